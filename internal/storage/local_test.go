package storage

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Local {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Get(KeyToken)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected missing key")
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if err := s.Set(KeySessionID, "sess_abc123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get(KeySessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || got != "sess_abc123" {
		t.Fatalf("Get = (%q, %v), want (sess_abc123, true)", got, ok)
	}
}

func TestSetOverwrites(t *testing.T) {
	s := openTestStore(t)

	if err := s.Set(KeyToken, "first"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(KeyToken, "second"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _, err := s.Get(KeyToken)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "second" {
		t.Fatalf("Get = %q, want second", got)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	if err := s.Set(KeyToken, "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Delete(KeyToken); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, ok, err := s.Get(KeyToken)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected key to be gone after delete")
	}

	// Deleting again is not an error.
	if err := s.Delete(KeyToken); err != nil {
		t.Fatalf("Delete absent key: %v", err)
	}
}

func TestValuesPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set(KeySessionID, "sess_persisted"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.Get(KeySessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || got != "sess_persisted" {
		t.Fatalf("Get after reopen = (%q, %v), want (sess_persisted, true)", got, ok)
	}
}
