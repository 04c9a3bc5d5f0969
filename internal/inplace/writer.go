// Package inplace modifies an existing destination file directly rather
// than writing a temp file and renaming over it, so a transfer that touches
// only a small fraction of a large file need not double its disk footprint.
// Three safety levels trade recovery guarantees for per-write overhead:
// Unsafe (none), Journaled (undo log), and Reflink (copy-on-write snapshot,
// degrading to Journaled where the filesystem does not support it).
// During recovery a failed rename of the snapshot back over the destination
// (for example across filesystems) is returned as an error; no copy
// fallback is attempted.
package inplace

import (
	"fmt"
	"io"
	"os"
)

// Safety selects the crash-recovery strategy for in-place writes.
type Safety int

const (
	Unsafe Safety = iota
	Journaled
	Reflink
)

func (s Safety) String() string {
	switch s {
	case Unsafe:
		return "unsafe"
	case Journaled:
		return "journaled"
	case Reflink:
		return "reflink"
	default:
		return "unknown"
	}
}

// Stats summarizes one in-place update.
type Stats struct {
	BytesWritten int64
}

// Writer applies chunk-level updates directly to an existing file.
type Writer struct {
	file             *os.File
	dest             string
	safety           Safety
	journal          *undoJournal
	reflinkAttempted bool
	reflinkCreated   bool
	bytesWritten     int64
}

// Open opens an existing destination file for in-place modification. The
// file must already exist; Open does not create it.
func Open(dest string, safety Safety) (*Writer, error) {
	f, err := os.OpenFile(dest, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("inplace: open destination: %w", err)
	}

	w := &Writer{file: f, dest: dest, safety: safety}
	if safety == Journaled {
		j, err := openUndoJournal(dest)
		if err != nil {
			f.Close()
			return nil, err
		}
		w.journal = j
	}
	return w, nil
}

// WriteAt applies data at offset, first making whatever safety record the
// configured level requires. The record is durable before the write is
// issued.
func (w *Writer) WriteAt(offset int64, data []byte) error {
	switch w.safety {
	case Reflink:
		if !w.reflinkAttempted {
			created, err := w.tryCreateReflinkSnapshot()
			if err != nil {
				return err
			}
			w.reflinkCreated = created
			w.reflinkAttempted = true
			if !created {
				w.safety = Journaled
				if w.journal == nil {
					j, err := openUndoJournal(w.dest)
					if err != nil {
						return err
					}
					w.journal = j
				}
			}
		}
		if w.safety == Journaled {
			if err := w.recordJournalEntry(offset, data); err != nil {
				return err
			}
		}
	case Journaled:
		if err := w.recordJournalEntry(offset, data); err != nil {
			return err
		}
	case Unsafe:
		// No safety measures.
	}

	if _, err := w.file.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("inplace: seek: %w", err)
	}
	if _, err := w.file.Write(data); err != nil {
		return fmt.Errorf("inplace: write: %w", err)
	}
	w.bytesWritten += int64(len(data))
	return nil
}

func (w *Writer) recordJournalEntry(offset int64, data []byte) error {
	original := make([]byte, len(data))
	if _, err := w.file.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("inplace: seek for journal read: %w", err)
	}
	n, err := readFully(w.file, original)
	if err != nil {
		return fmt.Errorf("inplace: read original bytes: %w", err)
	}
	return w.journal.record(offset, original[:n])
}

func readFully(r io.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// Finalize sets the file to finalSize, fsyncs, and removes any journal or
// snapshot left over from a successful run.
func (w *Writer) Finalize(finalSize int64) (Stats, error) {
	if err := w.file.Truncate(finalSize); err != nil {
		return Stats{}, fmt.Errorf("inplace: truncate: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return Stats{}, fmt.Errorf("inplace: fsync: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return Stats{}, fmt.Errorf("inplace: close: %w", err)
	}

	if w.journal != nil {
		w.journal.close()
		os.Remove(w.journal.path)
	}
	if w.reflinkCreated {
		os.Remove(reflinkSnapshotPath(w.dest))
	}

	return Stats{BytesWritten: w.bytesWritten}, nil
}

func reflinkSnapshotPath(dest string) string {
	return dest + ".orbit_inplace_snapshot"
}

// RecoverFromJournal restores dest from whichever recovery artifact exists:
// a reflink snapshot (renamed back over dest) or an undo journal (entries
// applied in reverse). Returns nil with no error if neither exists.
func RecoverFromJournal(dest string) error {
	snapshot := reflinkSnapshotPath(dest)
	if _, err := os.Stat(snapshot); err == nil {
		return os.Rename(snapshot, dest)
	}

	journalPath := undoJournalPath(dest)
	if _, err := os.Stat(journalPath); err != nil {
		return nil
	}
	entries, err := loadJournalEntries(journalPath)
	if err != nil {
		return fmt.Errorf("inplace: load journal for recovery: %w", err)
	}

	f, err := os.OpenFile(dest, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("inplace: open destination for recovery: %w", err)
	}
	defer f.Close()

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if _, err := f.WriteAt(e.Original, e.Offset); err != nil {
			return fmt.Errorf("inplace: restore entry at offset %d: %w", e.Offset, err)
		}
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("inplace: fsync recovered file: %w", err)
	}
	return os.Remove(journalPath)
}
