package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	b := New(dir)
	ctx := context.Background()

	w, err := b.Write(ctx, "sub/file.txt")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := b.Read(ctx, "sub/file.txt")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "hello" {
		t.Fatalf("got %q", data)
	}
}

func TestStatMissingIsValidationError(t *testing.T) {
	b := New(t.TempDir())
	_, err := b.Stat(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestListRecursive(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755)
	os.WriteFile(filepath.Join(dir, "a", "f1.txt"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "a", "b", "f2.txt"), []byte("y"), 0o644)

	b := New(dir)
	entries, err := b.List(context.Background(), "a", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries (dir b, f1.txt, b/f2.txt), got %d: %+v", len(entries), entries)
	}
}

func TestListNonRecursiveSkipsSubdirs(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755)
	os.WriteFile(filepath.Join(dir, "a", "f1.txt"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "a", "b", "f2.txt"), []byte("y"), 0o644)

	b := New(dir)
	entries, err := b.List(context.Background(), "a", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries (dir b, f1.txt), got %d: %+v", len(entries), entries)
	}
}

func TestRenameCreatesParent(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "src.txt"), []byte("z"), 0o644)
	b := New(dir)
	if err := b.Rename(context.Background(), "src.txt", "nested/dst.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "nested", "dst.txt")); err != nil {
		t.Fatal(err)
	}
}
