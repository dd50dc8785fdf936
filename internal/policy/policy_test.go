package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/ngo-portal/internal/domain"
	"github.com/iliyamo/ngo-portal/internal/model"
)

type stubVerifier map[string]string

func (s stubVerifier) Verify(raw string) (string, error) {
	if sub, ok := s[raw]; ok {
		return sub, nil
	}
	return "", errors.New("bad token")
}

type stubUsers map[string]*model.User

func (s stubUsers) GetByUsername(_ context.Context, name string) (*model.User, error) {
	if u, ok := s[name]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func TestCurrentUser(t *testing.T) {
	alice := &model.User{ID: 1, Username: "alice", IsActive: true}
	tokens := stubVerifier{"good": "alice", "ghost": "bob"}
	users := stubUsers{"alice": alice}
	ctx := context.Background()

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"missing", "", domain.ErrUnauthenticated},
		{"invalid", "junk", domain.ErrUnauthenticated},
		{"subject gone", "ghost", domain.ErrUserNotFound},
		{"valid", "good", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := CurrentUser(ctx, tokens, users, tt.token)
			if !errors.Is(err, tt.want) {
				t.Fatalf("CurrentUser() err = %v, want %v", err, tt.want)
			}
			if tt.want == nil && u != alice {
				t.Errorf("CurrentUser() = %v, want alice", u)
			}
		})
	}
}

func TestRequireActiveAndAdmin(t *testing.T) {
	active := &model.User{ID: 1, IsActive: true}
	inactive := &model.User{ID: 2}
	admin := &model.User{ID: 3, IsActive: true, IsAdmin: true}
	inactiveAdmin := &model.User{ID: 4, IsAdmin: true}

	if err := RequireActive(active); err != nil {
		t.Errorf("RequireActive(active) = %v", err)
	}
	if err := RequireActive(inactive); !errors.Is(err, domain.ErrInactiveUser) {
		t.Errorf("RequireActive(inactive) = %v", err)
	}
	if err := RequireAdmin(active); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("RequireAdmin(non-admin) = %v", err)
	}
	if err := RequireAdmin(admin); err != nil {
		t.Errorf("RequireAdmin(admin) = %v", err)
	}
	if err := RequireAdmin(inactiveAdmin); !errors.Is(err, domain.ErrInactiveUser) {
		t.Errorf("RequireAdmin(inactive admin) = %v", err)
	}
}

func TestRequireOwnerOrAdmin(t *testing.T) {
	ev := &model.Event{ID: 9, OrganizerID: 1}
	owner := &model.User{ID: 1, IsActive: true}
	stranger := &model.User{ID: 2, IsActive: true}
	admin := &model.User{ID: 3, IsActive: true, IsAdmin: true}

	if err := RequireOwnerOrAdmin(owner, ev, model.EventOrganizer); err != nil {
		t.Errorf("owner: %v", err)
	}
	if err := RequireOwnerOrAdmin(admin, ev, model.EventOrganizer); err != nil {
		t.Errorf("admin: %v", err)
	}
	if err := RequireOwnerOrAdmin(stranger, ev, model.EventOrganizer); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("stranger: %v, want ErrForbidden", err)
	}
}
