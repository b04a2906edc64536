package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFSStore_PutGet(t *testing.T) {
	base := filepath.Join(t.TempDir(), "exports")
	s, err := NewFSStore(base)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.Put("c1/report.xlsx", strings.NewReader("payload")); err != nil {
		t.Fatalf("put: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(base, "c1", "report.xlsx"))
	if err != nil || string(b) != "payload" {
		t.Fatalf("got %q err=%v", b, err)
	}

	u, err := s.URL("c1/report.xlsx")
	if err != nil || !strings.HasPrefix(u, "file://") || !strings.HasSuffix(u, "/c1/report.xlsx") {
		t.Fatalf("url=%q err=%v", u, err)
	}
}

func TestFSStore_KeysStayInsideBase(t *testing.T) {
	base := t.TempDir()
	s, _ := NewFSStore(base)
	if _, err := s.Put("", strings.NewReader("x")); err == nil {
		t.Fatalf("empty key accepted")
	}
	// leading ../ segments are clamped to the base
	if _, err := s.Put("../../escape.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "escape.txt")); err != nil {
		t.Fatalf("clamped key should land under base: %v", err)
	}
}
