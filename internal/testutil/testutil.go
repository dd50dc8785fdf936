// Package testutil builds migrated SQLite databases and fixture rows for
// package tests.
package testutil

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/ngo-portal/internal/database"
)

// Password is the plain password of every fixture user.
const Password = "secret123"

// OpenDB returns a fresh, migrated SQLite database closed at test end.
func OpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db, "sqlite3", database.Up); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// UserOpts tweaks a fixture user.
type UserOpts struct {
	Admin    bool
	Inactive bool
}

// InsertUser writes a user named username with email <username>@example.com
// and Password, and returns its id.
func InsertUser(t *testing.T, db *sql.DB, username string, opts UserOpts) uint64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	res, err := db.Exec(
		`INSERT INTO users (email, username, password_hash, is_active, is_admin) VALUES (?, ?, ?, ?, ?)`,
		fmt.Sprintf("%s@example.com", username), username, string(hash), !opts.Inactive, opts.Admin,
	)
	if err != nil {
		t.Fatalf("insert user %s: %v", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatal(err)
	}
	return uint64(id)
}

// InsertDonation writes a donation row dated date ("YYYY-MM-DD").
func InsertDonation(t *testing.T, db *sql.DB, donorID uint64, amount int, date string) uint64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO donations (amount, donor_id, date, is_anonymous) VALUES (?, ?, ?, 0)`,
		amount, donorID, date,
	)
	if err != nil {
		t.Fatalf("insert donation: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatal(err)
	}
	return uint64(id)
}
