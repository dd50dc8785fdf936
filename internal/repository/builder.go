package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// qb builds '?' placeholder statements, understood by both MySQL and SQLite.
var qb = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// DefaultLimit is the page size used when the caller does not pass one.
const DefaultLimit = 100

// Page is a skip/limit window over an ordered listing.
type Page struct {
	Skip  uint64
	Limit uint64
}

func (p Page) apply(b sq.SelectBuilder) sq.SelectBuilder {
	limit := p.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	return b.Limit(limit).Offset(p.Skip)
}

// withTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

// now is the clock used for timestamp columns written from Go; NOW() is not
// portable to SQLite.
var now = func() time.Time { return time.Now().UTC() }
