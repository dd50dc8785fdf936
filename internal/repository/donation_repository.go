package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/sqlscan"

	"github.com/iliyamo/ngo-portal/internal/model"
)

var donationColumns = []string{"id", "amount", "donor_id", "event_id", "date", "is_anonymous"}

// DonationRepo is read-only; donations are recorded outside this service.
type DonationRepo struct {
	db *sql.DB
}

func NewDonationRepo(db *sql.DB) *DonationRepo {
	return &DonationRepo{db: db}
}

// List returns all donations, newest first.
func (r *DonationRepo) List(ctx context.Context, page Page) ([]model.Donation, error) {
	return r.list(ctx, nil, page)
}

// ListByDonor returns the donations made by one user, newest first.
func (r *DonationRepo) ListByDonor(ctx context.Context, donorID uint64, page Page) ([]model.Donation, error) {
	return r.list(ctx, sq.Eq{"donor_id": donorID}, page)
}

func (r *DonationRepo) list(ctx context.Context, where sq.Sqlizer, page Page) ([]model.Donation, error) {
	b := qb.Select(donationColumns...).From("donations").OrderBy("date DESC", "id DESC")
	if where != nil {
		b = b.Where(where)
	}
	query, args, err := page.apply(b).ToSql()
	if err != nil {
		return nil, err
	}
	out := []model.Donation{}
	if err := sqlscan.Select(ctx, r.db, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}
