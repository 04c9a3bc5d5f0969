package inplace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestJournaledWriteAndFinalize(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(dest, []byte("Hello World"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := Open(dest, Journaled)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteAt(6, []byte("Orbit")); err != nil {
		t.Fatal(err)
	}
	stats, err := w.Finalize(11)
	if err != nil {
		t.Fatal(err)
	}
	if stats.BytesWritten != 5 {
		t.Fatalf("bytes written = %d, want 5", stats.BytesWritten)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Hello Orbit" {
		t.Fatalf("got %q, want %q", got, "Hello Orbit")
	}

	if _, err := os.Stat(undoJournalPath(dest)); !os.IsNotExist(err) {
		t.Fatalf("expected journal removed after finalize, stat err=%v", err)
	}
}

func TestJournaledRecovery(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(dest, []byte("Hello World"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := Open(dest, Journaled)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteAt(6, []byte("Orbit")); err != nil {
		t.Fatal(err)
	}
	// Simulate a crash: close the file without finalizing, leaving the
	// journal in place.
	w.file.Close()

	if err := RecoverFromJournal(dest); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Hello World" {
		t.Fatalf("got %q after recovery, want original %q", got, "Hello World")
	}
	if _, err := os.Stat(undoJournalPath(dest)); !os.IsNotExist(err) {
		t.Fatal("expected journal removed after recovery")
	}
}

func TestUnsafeWrite(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(dest, []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := Open(dest, Unsafe)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteAt(2, []byte("XX")); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Finalize(10); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(dest)
	if string(got) != "01XX456789" {
		t.Fatalf("got %q", got)
	}
}

func TestRecoverFromJournalNoArtifacts(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(dest, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RecoverFromJournal(dest); err != nil {
		t.Fatalf("expected no-op when no recovery artifacts exist, got %v", err)
	}
}
