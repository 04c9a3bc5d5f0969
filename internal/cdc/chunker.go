// Package cdc implements content-defined chunking over a byte stream using a
// Gear-hash rolling window. Chunk boundaries depend only on local content, so
// inserting or deleting bytes near the front of a stream shifts at most the
// chunks adjacent to the edit.
package cdc

import (
	"fmt"
	"io"
	"math/bits"

	"github.com/zeebo/blake3"
)

// Config bounds chunk sizes. MinSize must be less than AvgSize, which must be
// less than MaxSize.
type Config struct {
	MinSize int
	AvgSize int
	MaxSize int
}

// DefaultConfig matches the reference min/avg/max used throughout the test
// suite and in practice: 4 KiB floor, 64 KiB target, 1 MiB ceiling.
func DefaultConfig() Config {
	return Config{MinSize: 4096, AvgSize: 65536, MaxSize: 1048576}
}

func (c Config) validate() error {
	if !(c.MinSize > 0 && c.MinSize < c.AvgSize && c.AvgSize < c.MaxSize) {
		return fmt.Errorf("cdc: invalid config, require 0 < min < avg < max, got %+v", c)
	}
	return nil
}

// mask derives the cut-point mask from AvgSize: (1 << floor(log2(avg))) - 1.
func (c Config) mask() uint64 {
	shift := bits.Len(uint(c.AvgSize)) - 1
	return (uint64(1) << uint(shift)) - 1
}

// Chunk describes one content-defined chunk: its byte range in the source
// stream, its BLAKE3 content hash, and (for in-memory use) its bytes.
type Chunk struct {
	Offset int64
	Length int
	Hash   [32]byte
	Data   []byte
}

// Chunker produces a lazy, non-restartable sequence of Chunks from a reader.
// To re-chunk an input, open a fresh reader and construct a new Chunker.
type Chunker struct {
	r      io.Reader
	cfg    Config
	mask   uint64
	offset int64
	eof    bool

	// buf holds bytes read but not yet consumed into a chunk.
	buf    []byte
	bufPos int
}

// NewChunker validates cfg and wraps r for chunk-by-chunk consumption.
func NewChunker(r io.Reader, cfg Config) (*Chunker, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Chunker{
		r:    r,
		cfg:  cfg,
		mask: cfg.mask(),
		buf:  make([]byte, 0, cfg.MaxSize),
	}, nil
}

// fill reads until buf holds at least MaxSize unconsumed bytes or the
// underlying reader is exhausted.
func (c *Chunker) fill() error {
	if c.eof {
		return nil
	}
	unconsumed := len(c.buf) - c.bufPos
	if c.bufPos > 0 {
		copy(c.buf, c.buf[c.bufPos:])
		c.buf = c.buf[:unconsumed]
		c.bufPos = 0
	}
	for len(c.buf) < c.cfg.MaxSize {
		need := c.cfg.MaxSize - len(c.buf)
		grown := c.buf[:len(c.buf)+need]
		n, err := c.r.Read(grown[len(c.buf):])
		c.buf = grown[:len(c.buf)+n]
		if err != nil {
			if err == io.EOF {
				c.eof = true
				return nil
			}
			return err
		}
		if n == 0 {
			c.eof = true
			return nil
		}
	}
	return nil
}

// Next returns the next chunk, or io.EOF when the stream is exhausted.
func (c *Chunker) Next() (Chunk, error) {
	if err := c.fill(); err != nil {
		return Chunk{}, err
	}
	avail := c.buf[c.bufPos:]
	if len(avail) == 0 {
		return Chunk{}, io.EOF
	}

	cut := c.findCut(avail)
	data := avail[:cut]

	hash := blake3.Sum256(data)

	out := Chunk{
		Offset: c.offset,
		Length: cut,
		Hash:   hash,
		Data:   append([]byte(nil), data...),
	}
	c.offset += int64(cut)
	c.bufPos += cut
	return out, nil
}

// findCut applies the Gear-hash cut rule to avail, which holds at most
// MaxSize bytes (fewer only when the stream is ending). It returns the length
// of the next chunk.
func (c *Chunker) findCut(avail []byte) int {
	if len(avail) <= c.cfg.MinSize {
		return len(avail)
	}

	limit := len(avail)
	forced := c.cfg.MaxSize - 1
	if forced < limit {
		limit = forced
	}

	var h uint64
	for i := 0; i < c.cfg.MinSize; i++ {
		h = bits.RotateLeft64(h, 1) ^ gearTable[avail[i]]
	}
	for i := c.cfg.MinSize; i < limit; i++ {
		h = bits.RotateLeft64(h, 1) ^ gearTable[avail[i]]
		if h&c.mask == 0 {
			return i + 1
		}
	}
	if forced < len(avail) {
		return forced + 1
	}
	return len(avail)
}

// All drains the chunker into a slice. Intended for tests and small inputs;
// streaming callers should use Next directly.
func All(r io.Reader, cfg Config) ([]Chunk, error) {
	ch, err := NewChunker(r, cfg)
	if err != nil {
		return nil, err
	}
	var out []Chunk
	for {
		chunk, err := ch.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, chunk)
	}
}
