package container

import (
	"encoding/binary"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
)

var bucketIndex = []byte("container_index")

// Index is a BoltDB-backed map from chunk content hash to its packed
// location, letting the executor skip re-packing a chunk it has already
// written into some container. Adapted from the teacher's BoltCAS, which
// tracked transfer-session presence rather than chunk location.
type Index struct {
	db *bolt.DB
}

// OpenIndex opens (creating if absent) the index database at path.
func OpenIndex(path string) (*Index, error) {
	db, err := bolt.Open(filepath.Clean(path), 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucketIndex)
		return e
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func (idx *Index) Close() error { return idx.db.Close() }

// Lookup returns the packed location for hash, if known.
func (idx *Index) Lookup(hash [32]byte) (PackedChunkRef, bool) {
	var ref PackedChunkRef
	var found bool
	_ = idx.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketIndex)
		v := b.Get(hash[:])
		if v == nil {
			return nil
		}
		ref = decodeRecord(v)
		found = true
		return nil
	})
	return ref, found
}

// Put records ref as the packed location for hash.
func (idx *Index) Put(hash [32]byte, ref PackedChunkRef) error {
	return idx.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketIndex)
		return b.Put(hash[:], encodeRecord(ref))
	})
}

// GC removes index entries older than maxAge.
func (idx *Index) GC(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	removed := 0
	err := idx.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketIndex)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if storedAt(v) < cutoff {
				if err := c.Delete(); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	return removed, err
}

func encodeRecord(ref PackedChunkRef) []byte {
	idBytes := []byte(ref.ContainerID)
	buf := make([]byte, 2+len(idBytes)+8+4+8)
	binary.BigEndian.PutUint16(buf[0:2], uint16(len(idBytes)))
	copy(buf[2:2+len(idBytes)], idBytes)
	off := 2 + len(idBytes)
	binary.BigEndian.PutUint64(buf[off:off+8], ref.Offset)
	binary.BigEndian.PutUint32(buf[off+8:off+12], ref.Length)
	binary.BigEndian.PutUint64(buf[off+12:off+20], uint64(time.Now().Unix()))
	return buf
}

func decodeRecord(buf []byte) PackedChunkRef {
	idLen := binary.BigEndian.Uint16(buf[0:2])
	id := string(buf[2 : 2+idLen])
	off := 2 + int(idLen)
	offset := binary.BigEndian.Uint64(buf[off : off+8])
	length := binary.BigEndian.Uint32(buf[off+8 : off+12])
	return PackedChunkRef{ContainerID: id, Offset: offset, Length: length}
}

func storedAt(buf []byte) int64 {
	idLen := binary.BigEndian.Uint16(buf[0:2])
	off := 2 + int(idLen) + 12
	return int64(binary.BigEndian.Uint64(buf[off : off+8]))
}
