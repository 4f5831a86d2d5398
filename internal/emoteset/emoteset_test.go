package emoteset

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNilSetAllowsAll(t *testing.T) {
	var s *Set
	if !s.Allows("anything") {
		t.Fatalf("nil set should allow every id")
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
}

func TestEmptySetAllowsAll(t *testing.T) {
	s := New(nil)
	if !s.Allows("e1") {
		t.Fatalf("empty set should allow every id")
	}
}

func TestSetMembership(t *testing.T) {
	s := New([]string{"e1", "e2", ""})
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if !s.Allows("e1") {
		t.Fatalf("e1 should be allowed")
	}
	if s.Allows("e3") {
		t.Fatalf("e3 should not be allowed")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channel_emotes.json")
	if err := os.WriteFile(path, []byte(`["e1","e2"]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if !s.Allows("e2") || s.Allows("e9") {
		t.Fatalf("unexpected membership: e2=%t e9=%t", s.Allows("e2"), s.Allows("e9"))
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"not":"an array"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected error for non-array content")
	}
}
