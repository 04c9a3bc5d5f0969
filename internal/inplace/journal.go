package inplace

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

var journalMagic = [8]byte{'O', 'R', 'B', 'I', 'T', 'J', 'N', 'L'}

const journalVersion uint16 = 1

// journalEntry records the bytes originally present at offset before they
// were overwritten, so they can be restored during recovery.
type journalEntry struct {
	Offset   int64
	Original []byte
}

// undoJournal is an append-only, fsync-before-acknowledge log of journalEntry
// records, stored beside the destination at "<dest>.orbit_undo_journal".
type undoJournal struct {
	file    *os.File
	path    string
	entries uint64
}

func undoJournalPath(dest string) string {
	return dest + ".orbit_undo_journal"
}

func openUndoJournal(dest string) (*undoJournal, error) {
	path := undoJournalPath(dest)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("inplace: open undo journal: %w", err)
	}
	if _, err := f.Write(journalMagic[:]); err != nil {
		f.Close()
		return nil, err
	}
	var verBuf [2]byte
	binary.LittleEndian.PutUint16(verBuf[:], journalVersion)
	if _, err := f.Write(verBuf[:]); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, err
	}
	return &undoJournal{file: f, path: path}, nil
}

// record appends one entry, fsyncing before returning — the safety record
// must be durable before the corresponding write is issued.
func (j *undoJournal) record(offset int64, original []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(original)))
	var offBuf [8]byte
	binary.LittleEndian.PutUint64(offBuf[:], uint64(offset))

	payloadLen := uint32(8 + len(original))
	var payloadLenBuf [4]byte
	binary.LittleEndian.PutUint32(payloadLenBuf[:], payloadLen)

	if _, err := j.file.Write(payloadLenBuf[:]); err != nil {
		return err
	}
	if _, err := j.file.Write(offBuf[:]); err != nil {
		return err
	}
	if _, err := j.file.Write(original); err != nil {
		return err
	}
	if err := j.file.Sync(); err != nil {
		return err
	}
	j.entries++
	return nil
}

func (j *undoJournal) close() error {
	return j.file.Close()
}

// loadJournalEntries reads and validates the journal at path, returning its
// entries in record order.
func loadJournalEntries(path string) ([]journalEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var magic [8]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return nil, fmt.Errorf("inplace: read journal magic: %w", err)
	}
	if magic != journalMagic {
		return nil, fmt.Errorf("inplace: not an Orbit undo journal")
	}
	var verBuf [2]byte
	if _, err := io.ReadFull(f, verBuf[:]); err != nil {
		return nil, fmt.Errorf("inplace: read journal version: %w", err)
	}
	if binary.LittleEndian.Uint16(verBuf[:]) != journalVersion {
		return nil, fmt.Errorf("inplace: unsupported journal version")
	}

	var entries []journalEntry
	for {
		var lenBuf [4]byte
		_, err := io.ReadFull(f, lenBuf[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("inplace: read journal entry length: %w", err)
		}
		payloadLen := binary.LittleEndian.Uint32(lenBuf[:])
		if payloadLen < 8 {
			return nil, fmt.Errorf("inplace: corrupt journal entry")
		}
		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(f, payload); err != nil {
			return nil, fmt.Errorf("inplace: read journal entry payload: %w", err)
		}
		offset := int64(binary.LittleEndian.Uint64(payload[:8]))
		entries = append(entries, journalEntry{Offset: offset, Original: payload[8:]})
	}
	return entries, nil
}
