package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverSortsByVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"010_later.up.sql", "002_second.up.sql", "001_init.up.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("-- noop"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := discover(dir)
	if err != nil {
		t.Fatal(err)
	}

	want := []migration{
		{version: 1, file: "001_init.up.sql"},
		{version: 2, file: "002_second.up.sql"},
		{version: 10, file: "010_later.up.sql"},
	}
	if len(got) != len(want) {
		t.Fatalf("discovered %d migrations, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("migration %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDiscoverRejectsUnversionedFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "init.sql"), []byte("-- noop"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := discover(dir); err == nil {
		t.Error("expected error for file without numeric prefix")
	}
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("004_account_recovery.up.sql")
	if err != nil {
		t.Fatal(err)
	}
	if v != 4 {
		t.Errorf("version = %d, want 4", v)
	}
	if _, err := parseVersion("_no_prefix.sql"); err == nil {
		t.Error("expected error for empty prefix")
	}
}
