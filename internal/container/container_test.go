package container

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestWriteAndReadChunk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "container_000000.orbitpak")

	w, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	ref1, err := w.AppendChunk([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if ref1.Offset != headerSize {
		t.Fatalf("ref1 offset = %d, want %d", ref1.Offset, headerSize)
	}
	ref2, err := w.AppendChunk([]byte("wor"))
	if err != nil {
		t.Fatal(err)
	}
	if ref2.Offset != headerSize+5 {
		t.Fatalf("ref2 offset = %d, want %d", ref2.Offset, headerSize+5)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	data, err := r.ReadChunk(ref1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte("hello")) {
		t.Fatalf("got %q", data)
	}
	data2, err := r.ReadChunk(ref2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data2, []byte("wor")) {
		t.Fatalf("got %q", data2)
	}
}

func TestEmptyChunkIsLegal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.orbitpak")
	w, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	ref, err := w.AppendChunk(nil)
	if err != nil {
		t.Fatal(err)
	}
	if ref.Length != 0 || ref.Offset != headerSize {
		t.Fatalf("ref = %+v", ref)
	}
}

func TestContainerFull(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.orbitpak")
	w, err := CreateWithMaxSize(path, headerSize+10)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.AppendChunk(make([]byte, 5)); err != nil {
		t.Fatal(err)
	}
	if _, err := w.AppendChunk(make([]byte, 10)); err == nil {
		t.Fatal("expected container full error")
	}
}

// TestPoolRotation matches the literal scenario from the governing spec:
// max_container_size = header + 100, three 50-byte chunks.
func TestPoolRotation(t *testing.T) {
	dir := t.TempDir()
	pool := NewPool(dir, headerSize+100)

	ref1, err := pool.PackChunk(make([]byte, 50))
	if err != nil {
		t.Fatal(err)
	}
	ref2, err := pool.PackChunk(make([]byte, 50))
	if err != nil {
		t.Fatal(err)
	}
	ref3, err := pool.PackChunk(make([]byte, 50))
	if err != nil {
		t.Fatal(err)
	}

	if ref1.ContainerID != "container_000000" || ref2.ContainerID != "container_000000" {
		t.Fatalf("expected first two chunks in container_000000, got %s, %s", ref1.ContainerID, ref2.ContainerID)
	}
	if ref3.ContainerID != "container_000001" {
		t.Fatalf("expected third chunk in container_000001, got %s", ref3.ContainerID)
	}

	stats := pool.Stats()
	if stats.ContainersCreated != 2 || stats.TotalChunks != 3 || stats.TotalBytes != 150 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestPoolFlushNoActiveWriter(t *testing.T) {
	dir := t.TempDir()
	pool := NewPool(dir, headerSize+1024)
	if err := pool.Flush(); err != nil {
		t.Fatalf("expected safe no-op flush, got %v", err)
	}
}

func TestIndexPutLookup(t *testing.T) {
	dir := t.TempDir()
	idx, err := OpenIndex(filepath.Join(dir, "index.bolt"))
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	var hash [32]byte
	hash[0] = 0xAB
	ref := PackedChunkRef{ContainerID: "container_000042", Offset: 1024, Length: 256}

	if err := idx.Put(hash, ref); err != nil {
		t.Fatal(err)
	}
	got, ok := idx.Lookup(hash)
	if !ok {
		t.Fatal("expected lookup hit")
	}
	if got != ref {
		t.Fatalf("got %+v, want %+v", got, ref)
	}

	var miss [32]byte
	miss[0] = 0xFF
	if _, ok := idx.Lookup(miss); ok {
		t.Fatal("expected lookup miss")
	}
}
