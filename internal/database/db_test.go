package database

import (
	"path/filepath"
	"testing"
)

func TestMigrate_SQLiteUpDown(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "ngo.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() = %v, want nil", err)
	}
	defer db.Close()

	if err := Migrate(db, "sqlite3", Up); err != nil {
		t.Fatalf("Migrate(up) = %v, want nil", err)
	}
	// running again is a no-op
	if err := Migrate(db, "sqlite3", Up); err != nil {
		t.Fatalf("Migrate(up) twice = %v, want nil", err)
	}
	for _, table := range []string{"users", "refresh_tokens", "members", "events", "upcoming_events", "donations"} {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	if err := Migrate(db, "sqlite3", Down); err != nil {
		t.Fatalf("Migrate(down) = %v, want nil", err)
	}
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n); err == nil {
		t.Error("users table should be gone after down")
	}
}

func TestMigrate_UnknownDriver(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "x.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := Migrate(db, "oracle", Up); err == nil {
		t.Error("Migrate with unknown driver should fail")
	}
	if err := Migrate(db, "sqlite3", Direction("sideways")); err == nil {
		t.Error("Migrate with unknown direction should fail")
	}
}
