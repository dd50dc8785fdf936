package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/sqlscan"

	"github.com/iliyamo/ngo-portal/internal/model"
)

var memberColumns = []string{"id", "name", "position", "age", "photo", "bio"}

// MemberRepo encapsulates queries on the team directory.
type MemberRepo struct {
	db *sql.DB
}

func NewMemberRepo(db *sql.DB) *MemberRepo {
	return &MemberRepo{db: db}
}

// Create inserts m and sets its ID.
func (r *MemberRepo) Create(ctx context.Context, m *model.Member) error {
	query, args, err := qb.Insert("members").
		Columns("name", "position", "age", "photo", "bio").
		Values(m.Name, m.Position, m.Age, m.Photo, m.Bio).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID returns ErrMemberNotFound when no row matches.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (*model.Member, error) {
	query, args, err := qb.Select(memberColumns...).From("members").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var m model.Member
	if err := sqlscan.Get(ctx, r.db, &m, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

// List returns members ordered by id.
func (r *MemberRepo) List(ctx context.Context, page Page) ([]model.Member, error) {
	query, args, err := page.apply(qb.Select(memberColumns...).From("members").OrderBy("id")).ToSql()
	if err != nil {
		return nil, err
	}
	members := []model.Member{}
	if err := sqlscan.Select(ctx, r.db, &members, query, args...); err != nil {
		return nil, err
	}
	return members, nil
}

// Update writes every column of m.
func (r *MemberRepo) Update(ctx context.Context, m *model.Member) error {
	query, args, err := qb.Update("members").
		Set("name", m.Name).
		Set("position", m.Position).
		Set("age", m.Age).
		Set("photo", m.Photo).
		Set("bio", m.Bio).
		Set("updated_at", now()).
		Where(sq.Eq{"id": m.ID}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// Delete removes the member row permanently.
func (r *MemberRepo) Delete(ctx context.Context, id uint64) error {
	query, args, err := qb.Delete("members").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrMemberNotFound)
}
