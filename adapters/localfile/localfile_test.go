package localfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func storePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "boda.json")
}

func TestOpen_MissingFileStartsEmpty(t *testing.T) {
	a, err := Open(storePath(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, found, err := a.Get("anything"); err != nil || found {
		t.Errorf("fresh store Get() = found %v, err %v", found, err)
	}
}

func TestOpen_RejectsCorruptFile(t *testing.T) {
	path := storePath(t)
	if err := os.WriteFile(path, []byte("{definitely not json"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Open(path); err == nil {
		t.Fatal("Open() should reject a corrupt store file")
	}
}

// Requirement: values survive process restart; a second Open sees what
// the first wrote.
func TestAdapter_PersistsAcrossReopen(t *testing.T) {
	path := storePath(t)

	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := a.Set("users", []byte(`[{"id":"u1","name":"Amina"}]`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := a.Set("last_backup", []byte("2026-08-29T10:00:00Z")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := a.Delete("last_backup"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// Act: simulate a restart.
	b, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}

	// Assert
	value, found, err := b.Get("users")
	if err != nil || !found {
		t.Fatalf("Get() after reopen = found %v, err %v", found, err)
	}
	if !bytes.Equal(value, []byte(`[{"id":"u1","name":"Amina"}]`)) {
		t.Errorf("Get() after reopen = %s", value)
	}
	if _, found, _ := b.Get("last_backup"); found {
		t.Error("deleted key should stay deleted after reopen")
	}
}

// Requirement: non-JSON values (the last-backup timestamp) round-trip
// byte for byte.
func TestAdapter_RoundTripsOpaqueValues(t *testing.T) {
	path := storePath(t)
	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	raw := []byte("2026-08-29T10:00:00.123456789Z")
	if err := a.Set("last_backup", raw); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	b, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	got, found, err := b.Get("last_backup")
	if err != nil || !found {
		t.Fatalf("Get() = found %v, err %v", found, err)
	}
	if !bytes.Equal(got, raw) {
		t.Errorf("value changed across reopen: %s != %s", got, raw)
	}
}

func TestAdapter_DeleteMissingIsNoop(t *testing.T) {
	a, err := Open(storePath(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := a.Delete("never-set"); err != nil {
		t.Errorf("Delete() of a missing key error = %v", err)
	}
}
