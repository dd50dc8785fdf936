package service

import (
	"context"
	"errors"

	"github.com/iliyamo/ngo-portal/internal/domain"
	"github.com/iliyamo/ngo-portal/internal/model"
	"github.com/iliyamo/ngo-portal/internal/utils"
)

// UserLookup resolves a user by login name. It returns an error wrapping
// domain.ErrNotFound when there is no such user.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// Authenticate checks a username/password pair. It fails closed: ok is false
// for an unknown user and for a wrong password alike, and both paths run one
// bcrypt comparison. err is set only for storage failures.
func Authenticate(ctx context.Context, users UserLookup, username, password string) (u *model.User, ok bool, err error) {
	u, err = users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			utils.BurnPasswordCheck(password)
			return nil, false, nil
		}
		return nil, false, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, false, nil
	}
	return u, true, nil
}
