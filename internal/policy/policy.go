// Package policy decides who may act on what. Every predicate returns a
// domain error so the HTTP edge can map failures without knowing which rule
// fired.
package policy

import (
	"context"
	"errors"

	"github.com/iliyamo/ngo-portal/internal/domain"
	"github.com/iliyamo/ngo-portal/internal/model"
)

// TokenVerifier returns the subject of a valid access token.
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

// UserLookup resolves a token subject to a user.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// CurrentUser resolves a bearer token to its user. A missing or invalid
// token yields domain.ErrUnauthenticated; a valid token whose subject is gone
// yields domain.ErrUserNotFound.
func CurrentUser(ctx context.Context, tokens TokenVerifier, users UserLookup, token string) (*model.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	username, err := tokens.Verify(token)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	u, err := users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// RequireActive rejects deactivated accounts.
func RequireActive(u *model.User) error {
	if u == nil {
		return domain.ErrUnauthenticated
	}
	if !u.IsActive {
		return domain.ErrInactiveUser
	}
	return nil
}

// RequireAdmin rejects non-admins. Inactive admins are rejected as inactive
// first.
func RequireAdmin(u *model.User) error {
	if err := RequireActive(u); err != nil {
		return err
	}
	if !u.IsAdmin {
		return domain.ErrForbidden
	}
	return nil
}

// RequireOwnerOrAdmin allows the resource's owner or any admin.
func RequireOwnerOrAdmin[T any](u *model.User, resource T, ownerID func(T) uint64) error {
	if u == nil {
		return domain.ErrUnauthenticated
	}
	if u.IsAdmin || ownerID(resource) == u.ID {
		return nil
	}
	return domain.ErrForbidden
}
