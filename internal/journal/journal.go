// Package journal implements the transfer journal (batch record/replay
// log): a session-scoped, content-addressed record of the operations
// needed to reproduce a transfer against an independent destination.
package journal

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/orbit-sync/orbit/internal/orbiterr"
	"github.com/orbit-sync/orbit/internal/signature"
	"github.com/zeebo/blake3"
)

var journalMagic = [8]byte{'O', 'R', 'B', 'I', 'T', 'B', 'T', 'C'}

const journalVersion uint16 = 1

// EntryKind discriminates the variants of Entry.
type EntryKind int

const (
	KindCreateDir EntryKind = iota
	KindCreateFile
	KindDeleteFile
	KindCreateHardlink
	KindUpdateFile
	KindSetMetadata
)

// ChunkRef names a chunk by content hash and byte length, used by UpdateFile
// instructions so replay can succeed against a destination whose content
// already matches without re-transferring bytes.
type ChunkRef struct {
	Hash   [32]byte
	Length int
}

// UpdateInstruction mirrors signature.Instruction but names copies by chunk
// hash rather than raw source offset, since a journal entry must replay
// against a destination independent of any particular source file.
type UpdateInstruction struct {
	Kind  signature.InstructionKind
	Chunk ChunkRef // valid for KindCopy
	Bytes []byte   // valid for KindData
}

// Entry is one journal record. Only the fields relevant to Kind are set.
type Entry struct {
	Kind EntryKind

	Path string // CreateDir, CreateFile, DeleteFile, UpdateFile, SetMetadata

	// CreateFile
	ChunkHashes [][32]byte
	ChunkBytes  [][]byte
	FileSize    int64

	// CreateHardlink
	Target string
	Link   string

	// UpdateFile
	Instructions []UpdateInstruction
	NewSize      int64

	// SetMetadata
	Mode int64
}

// Journal is an in-memory, appendable sequence of entries that can be
// persisted to and reloaded from the ORBITBTC format.
type Journal struct {
	Entries []Entry
}

// Append adds e to the journal.
func (j *Journal) Append(e Entry) {
	j.Entries = append(j.Entries, e)
}

// Save persists the journal to path in the ORBITBTC format: magic, LE u16
// version, then for each entry a u64 LE length prefix and a gob-encoded
// payload.
func (j *Journal) Save(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("journal: open: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(journalMagic[:]); err != nil {
		return err
	}
	var verBuf [2]byte
	binary.LittleEndian.PutUint16(verBuf[:], journalVersion)
	if _, err := f.Write(verBuf[:]); err != nil {
		return err
	}

	for i := range j.Entries {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(&j.Entries[i]); err != nil {
			return fmt.Errorf("journal: encode entry %d: %w", i, err)
		}
		var lenBuf [8]byte
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(buf.Len()))
		if _, err := f.Write(lenBuf[:]); err != nil {
			return err
		}
		if _, err := f.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return f.Sync()
}

// Load reads a journal previously written by Save. A magic or version
// mismatch is a fatal load error.
func Load(path string) (*Journal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	defer f.Close()

	var magic [8]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return nil, fmt.Errorf("journal: read magic: %w", err)
	}
	if magic != journalMagic {
		return nil, orbiterr.New(orbiterr.Integrity, "not an Orbit transfer journal", nil)
	}
	var verBuf [2]byte
	if _, err := io.ReadFull(f, verBuf[:]); err != nil {
		return nil, fmt.Errorf("journal: read version: %w", err)
	}
	if binary.LittleEndian.Uint16(verBuf[:]) != journalVersion {
		return nil, orbiterr.New(orbiterr.Integrity, "unsupported journal version", nil)
	}

	j := &Journal{}
	for {
		var lenBuf [8]byte
		_, err := io.ReadFull(f, lenBuf[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("journal: read entry length: %w", err)
		}
		length := binary.LittleEndian.Uint64(lenBuf[:])
		payload := make([]byte, length)
		if _, err := io.ReadFull(f, payload); err != nil {
			return nil, fmt.Errorf("journal: read entry payload: %w", err)
		}
		var e Entry
		if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&e); err != nil {
			return nil, fmt.Errorf("journal: decode entry: %w", err)
		}
		j.Entries = append(j.Entries, e)
	}
	return j, nil
}

// ReplayStats counts the effects of a Replay call.
type ReplayStats struct {
	DirsCreated      int
	FilesCreated     int
	FilesDeleted     int
	HardlinksCreated int
	FilesUpdated     int
	MetadataApplied  int
}

// Replay applies j's entries in order against destRoot, an independent
// destination tree.
func Replay(j *Journal, destRoot string) (ReplayStats, error) {
	var stats ReplayStats
	for _, e := range j.Entries {
		full := filepath.Join(destRoot, e.Path)
		switch e.Kind {
		case KindCreateDir:
			if err := os.MkdirAll(full, 0o755); err != nil {
				return stats, orbiterr.NewIO("create dir", err)
			}
			stats.DirsCreated++

		case KindCreateFile:
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				return stats, orbiterr.NewIO("create parent dirs", err)
			}
			f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return stats, orbiterr.NewIO("create file", err)
			}
			for _, data := range e.ChunkBytes {
				if _, err := f.Write(data); err != nil {
					f.Close()
					return stats, orbiterr.NewIO("write chunk", err)
				}
			}
			if err := f.Truncate(e.FileSize); err != nil {
				f.Close()
				return stats, orbiterr.NewIO("truncate", err)
			}
			if err := f.Sync(); err != nil {
				f.Close()
				return stats, orbiterr.NewIO("fsync", err)
			}
			if err := f.Close(); err != nil {
				return stats, orbiterr.NewIO("close", err)
			}
			stats.FilesCreated++

		case KindDeleteFile:
			err := os.Remove(full)
			if err == nil {
				stats.FilesDeleted++
			} else if !os.IsNotExist(err) {
				return stats, orbiterr.NewIO("delete file", err)
			}

		case KindCreateHardlink:
			link := filepath.Join(destRoot, e.Link)
			target := filepath.Join(destRoot, e.Target)
			if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
				return stats, orbiterr.NewIO("create hardlink parent dirs", err)
			}
			if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
				return stats, orbiterr.NewIO("remove existing hardlink path", err)
			}
			if err := os.Link(target, link); err != nil {
				return stats, orbiterr.NewIO("create hardlink", err)
			}
			stats.HardlinksCreated++

		case KindUpdateFile:
			if err := applyUpdate(full, e); err != nil {
				return stats, err
			}
			stats.FilesUpdated++

		case KindSetMetadata:
			if e.Mode != 0 {
				_ = os.Chmod(full, os.FileMode(e.Mode))
			}
			stats.MetadataApplied++
		}
	}
	return stats, nil
}

func applyUpdate(path string, e Entry) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return orbiterr.NewIO("open destination for update", err)
	}
	defer f.Close()

	var writePos int64
	for _, instr := range e.Instructions {
		switch instr.Kind {
		case signature.KindData:
			if _, err := f.WriteAt(instr.Bytes, writePos); err != nil {
				return orbiterr.NewIO("write chunk", err)
			}
			writePos += int64(len(instr.Bytes))

		case signature.KindCopy:
			buf := make([]byte, instr.Chunk.Length)
			if _, err := io.ReadFull(io.NewSectionReader(f, writePos, int64(instr.Chunk.Length)), buf); err != nil {
				return orbiterr.NewIO("read chunk for copy verification", err)
			}
			if blake3.Sum256(buf) != instr.Chunk.Hash {
				return orbiterr.New(orbiterr.Integrity, "copy chunk hash mismatch during replay", nil)
			}
			writePos += int64(instr.Chunk.Length)
		}
	}
	if err := f.Truncate(e.NewSize); err != nil {
		return orbiterr.NewIO("truncate after update", err)
	}
	return f.Sync()
}
