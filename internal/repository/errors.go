// Package repository defines error types that are reused across multiple
// repositories. Each sentinel wraps one of the domain errors so handlers can
// map them to HTTP statuses without knowing which table they came from.
// For example, ErrUserInUse signals that a user cannot be removed while
// events or donations still reference it.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"

	"github.com/iliyamo/ngo-portal/internal/domain"
)

var (
	ErrUserNotFound   = fmt.Errorf("user %w", domain.ErrNotFound)
	ErrMemberNotFound = fmt.Errorf("member %w", domain.ErrNotFound)
	ErrEventNotFound  = fmt.Errorf("event %w", domain.ErrNotFound)

	// ErrDuplicateUser is returned when the email or username is taken.
	ErrDuplicateUser = domain.NewConflictError("Username or email already registered")

	// ErrUserInUse is returned when deleting a user that still organizes
	// events or holds donations.
	ErrUserInUse = domain.NewConflictError("user still owns events or donations")

	// ErrInvalidRefresh covers unknown, revoked and expired refresh tokens.
	ErrInvalidRefresh = fmt.Errorf("refresh token: %w", domain.ErrUnauthenticated)
)

// isUniqueViolation reports whether err is a duplicate-key error from either
// supported driver.
func isUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// isForeignKeyViolation reports whether err is a referential integrity error
// (a parent row is still referenced, or a child points nowhere).
func isForeignKeyViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1451 || myErr.Number == 1452
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
