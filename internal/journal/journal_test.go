package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/orbit-sync/orbit/internal/signature"
	"github.com/zeebo/blake3"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.orbitbtc")

	j := &Journal{}
	j.Append(Entry{Kind: KindCreateDir, Path: "sub"})
	j.Append(Entry{
		Kind:        KindCreateFile,
		Path:        "sub/file.txt",
		ChunkBytes:  [][]byte{[]byte("hello "), []byte("world")},
		FileSize:    11,
	})

	if err := j.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Entries) != len(j.Entries) {
		t.Fatalf("got %d entries, want %d", len(loaded.Entries), len(j.Entries))
	}
	if loaded.Entries[1].Path != "sub/file.txt" || loaded.Entries[1].FileSize != 11 {
		t.Fatalf("entry mismatch: %+v", loaded.Entries[1])
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.orbitbtc")
	if err := os.WriteFile(path, []byte("NOTAJOURNALXXXX"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestReplayCreateDirAndFile(t *testing.T) {
	dir := t.TempDir()
	j := &Journal{}
	j.Append(Entry{Kind: KindCreateDir, Path: "out"})
	j.Append(Entry{
		Kind:       KindCreateFile,
		Path:       "out/data.bin",
		ChunkBytes: [][]byte{[]byte("abc"), []byte("def")},
		FileSize:   6,
	})

	stats, err := Replay(j, dir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.DirsCreated != 1 || stats.FilesCreated != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	got, err := os.ReadFile(filepath.Join(dir, "out/data.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abcdef" {
		t.Fatalf("got %q", got)
	}
}

func TestReplayDeleteFileMissingIsNotError(t *testing.T) {
	dir := t.TempDir()
	j := &Journal{}
	j.Append(Entry{Kind: KindDeleteFile, Path: "nonexistent.bin"})
	stats, err := Replay(j, dir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesDeleted != 0 {
		t.Fatalf("expected 0 deletions for missing file, got %d", stats.FilesDeleted)
	}
}

func TestReplayUpdateFileIntegrityMismatch(t *testing.T) {
	dir := t.TempDir()
	destPath := filepath.Join(dir, "existing.bin")
	if err := os.WriteFile(destPath, []byte("MISMATCHEDBYTES!"), 0o644); err != nil {
		t.Fatal(err)
	}

	wrongHash := blake3.Sum256([]byte("something else entirely"))
	j := &Journal{}
	j.Append(Entry{
		Kind: KindUpdateFile,
		Path: "existing.bin",
		Instructions: []UpdateInstruction{
			{Kind: signature.KindCopy, Chunk: ChunkRef{Hash: wrongHash, Length: 8}},
		},
		NewSize: 8,
	})

	if _, err := Replay(j, dir); err == nil {
		t.Fatal("expected integrity error on hash mismatch")
	}
}

func TestReplayUpdateFileMatchingChunksSkipsRewrite(t *testing.T) {
	dir := t.TempDir()
	destPath := filepath.Join(dir, "existing.bin")
	content := []byte("ABCDEFGH")
	if err := os.WriteFile(destPath, content, 0o644); err != nil {
		t.Fatal(err)
	}
	hash := blake3.Sum256(content[:4])

	j := &Journal{}
	j.Append(Entry{
		Kind: KindUpdateFile,
		Path: "existing.bin",
		Instructions: []UpdateInstruction{
			{Kind: signature.KindCopy, Chunk: ChunkRef{Hash: hash, Length: 4}},
			{Kind: signature.KindData, Bytes: []byte("ZZZZ")},
		},
		NewSize: 8,
	})

	stats, err := Replay(j, dir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesUpdated != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	got, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ABCDZZZZ" {
		t.Fatalf("got %q", got)
	}
}
