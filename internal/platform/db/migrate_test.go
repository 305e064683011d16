package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMigrations_SortsAndSkips(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"002_postings.sql": "CREATE TABLE payment_posting (id UUID);",
		"001_claims.sql":   "CREATE TABLE claim (id UUID);",
		"010_denials.sql":  "CREATE TABLE denial (id UUID);",
		"notes.txt":        "not a migration",
		"README.sql":       "no numeric prefix",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(migrations) != 3 {
		t.Fatalf("got %d migrations, want 3", len(migrations))
	}
	wantOrder := []int{1, 2, 10}
	for i, want := range wantOrder {
		if migrations[i].Version != want {
			t.Errorf("migrations[%d].Version = %d, want %d", i, migrations[i].Version, want)
		}
	}
	if migrations[0].Name != "001_claims.sql" {
		t.Errorf("first migration = %q, want 001_claims.sql", migrations[0].Name)
	}
	if migrations[0].SQL == "" {
		t.Error("migration SQL not loaded")
	}
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	m := NewMigrator(nil, "/does/not/exist")
	if _, err := m.LoadMigrations(); err == nil {
		t.Error("expected error for missing directory")
	}
}
