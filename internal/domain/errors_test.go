package domain_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/iliyamo/ngo-portal/internal/domain"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{domain.ErrUserNotFound, http.StatusUnauthorized},
		{domain.ErrInactiveUser, http.StatusBadRequest},
		{domain.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("event %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("username taken: %w", domain.ErrConflict), http.StatusBadRequest},
		{domain.NewValidationError("title is required"), http.StatusUnprocessableEntity},
		{domain.NewConflictError("admin exists"), http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := domain.StatusCode(c.err); got != c.want {
			t.Errorf("StatusCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestMessage_HidesInternalCause(t *testing.T) {
	if got := domain.Message(errors.New("dial tcp 10.0.0.1: refused")); got != "internal server error" {
		t.Errorf("Message() = %q, want generic text", got)
	}
	if got := domain.Message(domain.NewValidationError("date must be YYYY-MM-DD")); got != "date must be YYYY-MM-DD" {
		t.Errorf("Message() = %q", got)
	}
	if got := domain.Message(fmt.Errorf("member %w", domain.ErrNotFound)); got != "member not found" {
		t.Errorf("Message() = %q", got)
	}
}
