package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/sqlscan"

	"github.com/iliyamo/ngo-portal/internal/model"
)

var eventColumns = []string{
	"id", "title", "description", "date", "location", "image_url", "organizer_id", "is_active",
}

// EventRepo serves one event collection. Completed and upcoming events share
// a schema, so a single implementation is bound to a table by its kind.
type EventRepo struct {
	db   *sql.DB
	kind model.EventKind
}

func NewEventRepo(db *sql.DB, kind model.EventKind) *EventRepo {
	return &EventRepo{db: db, kind: kind}
}

// Kind returns the collection the repo is bound to.
func (r *EventRepo) Kind() model.EventKind { return r.kind }

func (r *EventRepo) notFound() error {
	if r.kind == model.UpcomingEvents {
		return fmt.Errorf("upcoming %w", ErrEventNotFound)
	}
	return ErrEventNotFound
}

// Create inserts ev as active and sets its ID. When attach is non-nil it is
// called with the new id before commit to store the event's image; the path
// it returns is written in the same transaction and an attach error rolls
// the insert back.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event, attach func(id uint64) (string, error)) error {
	ev.IsActive = true
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		query, args, err := qb.Insert(r.kind.Table()).
			Columns("title", "description", "date", "location", "image_url", "organizer_id", "is_active").
			Values(ev.Title, ev.Description, ev.Date, ev.Location, ev.ImageURL, ev.OrganizerID, ev.IsActive).
			ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		ev.ID = uint64(id)
		if attach == nil {
			return nil
		}

		path, err := attach(ev.ID)
		if err != nil {
			return err
		}
		query, args, err = qb.Update(r.kind.Table()).
			Set("image_url", path).
			Where(sq.Eq{"id": ev.ID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
		ev.ImageURL = &path
		return nil
	})
}

// GetByID returns the event whatever its active flag.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	query, args, err := qb.Select(eventColumns...).From(r.kind.Table()).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var ev model.Event
	if err := sqlscan.Get(ctx, r.db, &ev, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, r.notFound()
		}
		return nil, err
	}
	return &ev, nil
}

// ListActive returns active events ordered by id.
func (r *EventRepo) ListActive(ctx context.Context, page Page) ([]model.Event, error) {
	b := qb.Select(eventColumns...).From(r.kind.Table()).
		Where(sq.Eq{"is_active": true}).
		OrderBy("id")
	query, args, err := page.apply(b).ToSql()
	if err != nil {
		return nil, err
	}
	events := []model.Event{}
	if err := sqlscan.Select(ctx, r.db, &events, query, args...); err != nil {
		return nil, err
	}
	return events, nil
}

// Update writes the editable columns and image path of ev. Organizer and
// active flag are never changed here. Callers load the row first.
func (r *EventRepo) Update(ctx context.Context, ev *model.Event) error {
	query, args, err := qb.Update(r.kind.Table()).
		Set("title", ev.Title).
		Set("description", ev.Description).
		Set("date", ev.Date).
		Set("location", ev.Location).
		Set("image_url", ev.ImageURL).
		Set("updated_at", now()).
		Where(sq.Eq{"id": ev.ID}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// SoftDelete marks the event inactive. Repeating it is harmless. Callers
// look the event up first; a missing id is not reported here.
func (r *EventRepo) SoftDelete(ctx context.Context, id uint64) error {
	query, args, err := qb.Update(r.kind.Table()).
		Set("is_active", false).
		Set("updated_at", now()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}
