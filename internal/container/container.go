// Package container aggregates small chunks into large append-only
// container files, avoiding one-inode-per-chunk pressure at scale. An
// Index (BoltDB) maps chunk hashes to their packed location.
package container

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var containerMagic = [8]byte{'O', 'R', 'B', 'I', 'T', 'P', 'A', 'K'}

const (
	containerVersion    uint16 = 1
	headerSize          uint64 = 16
	defaultMaxContainer uint64 = 4 * 1024 * 1024 * 1024
)

// PackedChunkRef names a chunk's location inside a container file.
type PackedChunkRef struct {
	ContainerID string
	Offset      uint64
	Length      uint32
}

// Writer appends chunks sequentially to one container file.
type Writer struct {
	containerID string
	file        *os.File
	bw          *bufio.Writer
	offset      uint64
	chunks      uint64
	bytes       uint64
	maxSize     uint64
	path        string
}

func containerIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Create creates a new container file at path with the default max size.
func Create(path string) (*Writer, error) {
	return CreateWithMaxSize(path, defaultMaxContainer)
}

// CreateWithMaxSize creates a new container file at path, truncating any
// existing content, and writes the 16-byte header.
func CreateWithMaxSize(path string, maxSize uint64) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("container: create: %w", err)
	}
	bw := bufio.NewWriter(f)
	if _, err := bw.Write(containerMagic[:]); err != nil {
		f.Close()
		return nil, err
	}
	var verBuf [2]byte
	binary.LittleEndian.PutUint16(verBuf[:], containerVersion)
	if _, err := bw.Write(verBuf[:]); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := bw.Write(make([]byte, 6)); err != nil {
		f.Close()
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return nil, err
	}

	return &Writer{
		containerID: containerIDFromPath(path),
		file:        f,
		bw:          bw,
		offset:      headerSize,
		maxSize:     maxSize,
		path:        path,
	}, nil
}

// OpenAppend opens an existing container file for appending further chunks.
func OpenAppend(path string) (*Writer, error) {
	verifyFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("container: open for header check: %w", err)
	}
	var magic [8]byte
	_, err = io.ReadFull(verifyFile, magic[:])
	verifyFile.Close()
	if err != nil {
		return nil, fmt.Errorf("container: read header: %w", err)
	}
	if magic != containerMagic {
		return nil, fmt.Errorf("container: invalid magic")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("container: open append: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Writer{
		containerID: containerIDFromPath(path),
		file:        f,
		bw:          bufio.NewWriter(f),
		offset:      uint64(info.Size()),
		maxSize:     defaultMaxContainer,
		path:        path,
	}, nil
}

// AppendChunk writes data to the container and returns its location. Empty
// chunks are legal.
func (w *Writer) AppendChunk(data []byte) (PackedChunkRef, error) {
	if w.offset+uint64(len(data)) > w.maxSize {
		return PackedChunkRef{}, fmt.Errorf("container: full, would exceed max size")
	}
	offset := w.offset
	if _, err := w.bw.Write(data); err != nil {
		return PackedChunkRef{}, fmt.Errorf("container: write chunk: %w", err)
	}
	w.offset += uint64(len(data))
	w.chunks++
	w.bytes += uint64(len(data))

	return PackedChunkRef{ContainerID: w.containerID, Offset: offset, Length: uint32(len(data))}, nil
}

// Flush ensures buffered writes reach the OS.
func (w *Writer) Flush() error { return w.bw.Flush() }

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// ContainerID returns the writer's container identifier.
func (w *Writer) ContainerID() string { return w.containerID }

// CurrentSize returns the current append cursor (total file size).
func (w *Writer) CurrentSize() uint64 { return w.offset }

// ChunksWritten returns the count of chunks appended by this writer.
func (w *Writer) ChunksWritten() uint64 { return w.chunks }

// HasCapacity reports whether n more bytes fit before max size is reached.
func (w *Writer) HasCapacity(n uint64) bool {
	return w.offset+n <= w.maxSize
}

// Path returns the writer's file path.
func (w *Writer) Path() string { return w.path }

// Reader reads chunks from a container file by offset and length. Each read
// opens a fresh file descriptor so a shared read position is never mutated
// across concurrent reads.
type Reader struct {
	path string
}

// OpenReader validates the container header and returns a Reader.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("container: open: %w", err)
	}
	defer f.Close()

	var magic [8]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return nil, fmt.Errorf("container: read header: %w", err)
	}
	if magic != containerMagic {
		return nil, fmt.Errorf("container: invalid magic")
	}
	return &Reader{path: path}, nil
}

// ReadChunk reads the bytes named by ref.
func (r *Reader) ReadChunk(ref PackedChunkRef) ([]byte, error) {
	return r.ReadAt(ref.Offset, ref.Length)
}

// ReadAt reads length bytes at offset via a fresh file handle.
func (r *Reader) ReadAt(offset uint64, length uint32) ([]byte, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("container: open for read: %w", err)
	}
	defer f.Close()

	buf := make([]byte, length)
	if _, err := f.ReadAt(buf, int64(offset)); err != nil {
		return nil, fmt.Errorf("container: read at offset %d: %w", offset, err)
	}
	return buf, nil
}

// Pool manages a rotating set of container files in one directory.
type Pool struct {
	directory string
	maxSize   uint64
	active    *Writer
	nextID    uint64
	chunks    uint64
	bytes     uint64
}

// NewPool creates a pool writing containers under directory.
func NewPool(directory string, maxSize uint64) *Pool {
	return &Pool{directory: directory, maxSize: maxSize}
}

// PackChunk appends data into the pool, rotating to a new container when the
// active one lacks capacity.
func (p *Pool) PackChunk(data []byte) (PackedChunkRef, error) {
	if p.active == nil || !p.active.HasCapacity(uint64(len(data))) {
		if err := p.rotate(); err != nil {
			return PackedChunkRef{}, err
		}
	}
	ref, err := p.active.AppendChunk(data)
	if err != nil {
		return PackedChunkRef{}, err
	}
	p.chunks++
	p.bytes += uint64(len(data))
	return ref, nil
}

func (p *Pool) rotate() error {
	if p.active != nil {
		if err := p.active.Flush(); err != nil {
			return err
		}
		if err := p.active.Close(); err != nil {
			return err
		}
	}
	name := fmt.Sprintf("container_%06d.orbitpak", p.nextID)
	p.nextID++
	path := filepath.Join(p.directory, name)
	w, err := CreateWithMaxSize(path, p.maxSize)
	if err != nil {
		return err
	}
	p.active = w
	return nil
}

// Flush flushes the active container, if any. It is a safe no-op otherwise.
func (p *Pool) Flush() error {
	if p.active == nil {
		return nil
	}
	return p.active.Flush()
}

// Stats reports pool-wide counters.
type Stats struct {
	ContainersCreated    uint64
	TotalChunks          uint64
	TotalBytes           uint64
	ActiveContainerSize  uint64
}

func (p *Pool) Stats() Stats {
	var activeSize uint64
	if p.active != nil {
		activeSize = p.active.CurrentSize()
	}
	return Stats{
		ContainersCreated:   p.nextID,
		TotalChunks:         p.chunks,
		TotalBytes:          p.bytes,
		ActiveContainerSize: activeSize,
	}
}
