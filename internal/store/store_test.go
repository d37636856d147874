package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"documents", "revisions", "sync_state"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	checks := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"foreign_keys": "1",
	}
	for name, want := range checks {
		if err := s.verifyPragma(name, want); err != nil {
			t.Error(err)
		}
	}
}

func TestOpen_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	version, err := s.schemaVersion(context.Background())
	if err != nil {
		t.Fatalf("schemaVersion() failed: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}

	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_documents_origin'",
	).Scan(&name)
	if err != nil {
		t.Errorf("origin index missing: %v", err)
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPathMatchFunction(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		fullkey string
		path    string
		want    int64
	}{
		{"$.a", "a", 1},
		{"$.a[1].b", "a.b", 1},
		{"$.a[1].b", "a.1.b", 1},
		{"$.a[1]", "a", 0},
		{"$.a", "b", 0},
		{"$.a", "a..b", 0},
		{`$."x\"y"`, `x"y`, 1},
		{`$."x\"y"`, "x", 0},
		{`$."odd.key"`, "odd", 0},
	}
	for _, tt := range tests {
		var got int64
		err := s.db.QueryRow("SELECT sv_path_match(?, ?)", tt.fullkey, tt.path).Scan(&got)
		if err != nil {
			t.Fatalf("sv_path_match(%q, %q) failed: %v", tt.fullkey, tt.path, err)
		}
		if got != tt.want {
			t.Errorf("sv_path_match(%q, %q) = %d, want %d", tt.fullkey, tt.path, got, tt.want)
		}
	}
}

func TestKeyMatchFunction(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		fullkey string
		path    string
		want    int64
	}{
		{"$.a", "a", 1},
		{"$.a[1].b", "a.1.b", 1},
		{"$.a[1].b", "a.b", 0},
		{`$.obj."0"`, "obj.0", 1},
		{"$.obj[0]", "obj.0", 1},
		{`$."x\"y"`, `x"y`, 1},
		{"$.a", "a.", 0},
	}
	for _, tt := range tests {
		var got int64
		err := s.db.QueryRow("SELECT sv_key_match(?, ?)", tt.fullkey, tt.path).Scan(&got)
		if err != nil {
			t.Fatalf("sv_key_match(%q, %q) failed: %v", tt.fullkey, tt.path, err)
		}
		if got != tt.want {
			t.Errorf("sv_key_match(%q, %q) = %d, want %d", tt.fullkey, tt.path, got, tt.want)
		}
	}
}
