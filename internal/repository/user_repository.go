package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/sqlscan"

	"github.com/iliyamo/ngo-portal/internal/model"
)

var userColumns = []string{
	"id", "email", "username", "password_hash", "first_name", "last_name",
	"is_active", "is_admin", "profile_image",
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail lowercases and trims an address before it is stored or
// compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts u and sets its ID. A taken email or username yields
// ErrDuplicateUser.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	query, args, err := qb.Insert("users").
		Columns("email", "username", "password_hash", "first_name", "last_name",
			"is_active", "is_admin", "profile_image").
		Values(u.Email, u.Username, u.PasswordHash, u.FirstName, u.LastName,
			u.IsActive, u.IsAdmin, u.ProfileImage).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByUsername fetches a user by login name.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, sq.Eq{"username": username})
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *UserRepo) getOne(ctx context.Context, where sq.Eq) (*model.User, error) {
	query, args, err := qb.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := sqlscan.Get(ctx, r.DB, &u, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ExistsByUsernameOrEmail reports whether either identifier is already taken.
func (r *UserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query, args, err := qb.Select("COUNT(*)").From("users").
		Where(sq.Or{sq.Eq{"username": username}, sq.Eq{"email": NormalizeEmail(email)}}).
		ToSql()
	if err != nil {
		return false, err
	}
	var n int
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// AnyAdmin reports whether at least one admin account exists, active or not.
func (r *UserRepo) AnyAdmin(ctx context.Context) (bool, error) {
	query, args, err := qb.Select("id").From("users").Where(sq.Eq{"is_admin": true}).Limit(1).ToSql()
	if err != nil {
		return false, err
	}
	var id uint64
	err = r.DB.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context, page Page) ([]model.User, error) {
	return r.list(ctx, nil, page)
}

// ListAdmins returns active admins ordered by id.
func (r *UserRepo) ListAdmins(ctx context.Context, page Page) ([]model.User, error) {
	return r.list(ctx, sq.Eq{"is_admin": true, "is_active": true}, page)
}

func (r *UserRepo) list(ctx context.Context, where sq.Sqlizer, page Page) ([]model.User, error) {
	b := qb.Select(userColumns...).From("users").OrderBy("id")
	if where != nil {
		b = b.Where(where)
	}
	query, args, err := page.apply(b).ToSql()
	if err != nil {
		return nil, err
	}
	users := []model.User{}
	if err := sqlscan.Select(ctx, r.DB, &users, query, args...); err != nil {
		return nil, err
	}
	return users, nil
}

// Update writes the profile and flag columns of u. The password hash is left
// alone.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	query, args, err := qb.Update("users").
		Set("email", u.Email).
		Set("username", u.Username).
		Set("first_name", u.FirstName).
		Set("last_name", u.LastName).
		Set("profile_image", u.ProfileImage).
		Set("is_active", u.IsActive).
		Set("is_admin", u.IsAdmin).
		Set("updated_at", now()).
		Where(sq.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return err
	}
	return nil
}

// Delete removes a user. Refresh tokens go with it; events and donations
// block the delete with ErrUserInUse.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	query, args, err := qb.Delete("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserInUse
		}
		return err
	}
	return requireAffected(res, ErrUserNotFound)
}

// requireAffected turns a zero-row delete into notFound.
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
