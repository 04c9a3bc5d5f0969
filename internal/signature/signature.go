// Package signature implements the rsync-style signature and delta engine:
// fixed-size block signatures (weak rolling hash + strong hash), a matcher
// that diffs a new source against a destination's signatures, and the
// should_use_delta heuristic.
package signature

import (
	"bytes"
	"io"
	"math/bits"

	"github.com/orbit-sync/orbit/internal/cdc"
	"github.com/zeebo/blake3"
)

// DefaultBlockSize is independent of the chunker's AvgSize; the signature
// engine and the content-defined chunker are deliberately decoupled.
const DefaultBlockSize = 4096

// BlockSignature is the weak+strong hash pair for one fixed-size block.
type BlockSignature struct {
	Index  int
	Offset int64
	Length int
	Weak   uint64
	Strong [32]byte
}

// GenerateSignatures reads r in blockSize blocks (the final block may be
// short) and returns one BlockSignature per block.
func GenerateSignatures(r io.Reader, blockSize int) ([]BlockSignature, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	var sigs []BlockSignature
	buf := make([]byte, blockSize)
	var offset int64
	for idx := 0; ; idx++ {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			sigs = append(sigs, BlockSignature{
				Index:  idx,
				Offset: offset,
				Length: n,
				Weak:   weakHash(buf[:n]),
				Strong: blake3.Sum256(buf[:n]),
			})
			offset += int64(n)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return sigs, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// weakHash computes the buzhash-style rolling hash over window, reusing the
// chunker's Gear table so both engines share one source of pseudo-random
// constants.
func weakHash(window []byte) uint64 {
	var h uint64
	for _, b := range window {
		h = bits.RotateLeft64(h, 1) ^ gearAt(b)
	}
	return h
}

func gearAt(b byte) uint64 {
	return cdc.GearTable()[b]
}

// roller maintains a buzhash-style rolling weak hash over a fixed-size
// window, supporting O(1) slides.
type roller struct {
	h      uint64
	window int
}

func newRoller(initial []byte) *roller {
	r := &roller{window: len(initial)}
	r.h = weakHash(initial)
	return r
}

// roll removes oldByte from the front of the window and appends newByte,
// updating the hash in constant time.
func (r *roller) roll(oldByte, newByte byte) {
	dropped := bits.RotateLeft64(gearAt(oldByte), r.window%64)
	r.h = bits.RotateLeft64(r.h, 1) ^ gearAt(newByte) ^ dropped
}

// InstructionKind distinguishes the two delta instruction variants.
type InstructionKind int

const (
	KindCopy InstructionKind = iota
	KindData
)

// Instruction is one step in a delta stream: either Copy bytes from the
// destination's existing content, or write literal Data bytes.
type Instruction struct {
	Kind      InstructionKind
	SrcOffset int64 // valid for KindCopy
	DestOffset int64
	Length    int    // valid for KindCopy
	Bytes     []byte // valid for KindData
}

// ComputeDelta diffs source against dest's signatures, returning the
// instruction stream that reproduces source when applied to dest.
func ComputeDelta(source []byte, destSigs []BlockSignature, blockSize int) []Instruction {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	byWeak := make(map[uint64][]BlockSignature, len(destSigs))
	for _, s := range destSigs {
		byWeak[s.Weak] = append(byWeak[s.Weak], s)
	}
	// Stable tie-breaking: lowest destination offset first.
	for _, bucket := range byWeak {
		sortByOffset(bucket)
	}

	var instructions []Instruction
	var literal bytes.Buffer
	literalStart := int64(0)

	flushLiteral := func(destOffset int64) {
		if literal.Len() == 0 {
			return
		}
		instructions = append(instructions, Instruction{
			Kind:       KindData,
			DestOffset: literalStart,
			Bytes:      append([]byte(nil), literal.Bytes()...),
		})
		literal.Reset()
		_ = destOffset
	}

	n := len(source)
	i := 0
	destWritePos := int64(0)

	var rl *roller
	windowStart := -1 // source index the roller's window currently begins at

	for i < n {
		remaining := n - i
		windowLen := blockSize
		if remaining < windowLen {
			windowLen = remaining
		}

		var w uint64
		if windowLen == blockSize {
			if rl == nil || windowStart != i {
				rl = newRoller(source[i : i+windowLen])
				windowStart = i
			}
			w = rl.h
		}

		if windowLen == blockSize {
			if candidates, ok := byWeak[w]; ok {
				strong := blake3.Sum256(source[i : i+windowLen])
				if match, found := firstStrongMatch(candidates, strong); found {
					flushLiteral(destWritePos)
					instructions = append(instructions, Instruction{
						Kind:       KindCopy,
						SrcOffset:  match.Offset,
						DestOffset: destWritePos,
						Length:     windowLen,
					})
					destWritePos += int64(windowLen)
					i += windowLen
					literalStart = destWritePos
					rl = nil // window reset: next scan starts a fresh block-aligned hash
					continue
				}
			}
		}

		if literal.Len() == 0 {
			literalStart = destWritePos
		}
		literal.WriteByte(source[i])
		destWritePos++
		i++
		if rl != nil && i+blockSize <= n {
			rl.roll(source[windowStart], source[i+blockSize-1])
			windowStart++
		} else {
			rl = nil
		}
	}
	flushLiteral(destWritePos)

	return instructions
}

func firstStrongMatch(candidates []BlockSignature, strong [32]byte) (BlockSignature, bool) {
	for _, c := range candidates {
		if c.Strong == strong {
			return c, true
		}
	}
	return BlockSignature{}, false
}

func sortByOffset(s []BlockSignature) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].Offset < s[j-1].Offset; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// FilesDifferBySignature reports whether a and b, assumed equal in size,
// differ in content by comparing block signatures rather than raw bytes
// twice. Equal-size files with identical weak+strong hashes for every block
// are declared equal.
func FilesDifferBySignature(a, b io.Reader, blockSize int) (bool, error) {
	sigsA, err := GenerateSignatures(a, blockSize)
	if err != nil {
		return true, err
	}
	sigsB, err := GenerateSignatures(b, blockSize)
	if err != nil {
		return true, err
	}
	if len(sigsA) != len(sigsB) {
		return true, nil
	}
	for i := range sigsA {
		if sigsA[i].Weak != sigsB[i].Weak || sigsA[i].Strong != sigsB[i].Strong || sigsA[i].Length != sigsB[i].Length {
			return true, nil
		}
	}
	return false, nil
}

// DeltaConfig carries the thresholds used by ShouldUseDelta.
type DeltaConfig struct {
	WholeFileForced    bool
	MinSourceSizeBytes int64
	MaxSizeRatio       float64
}

// DefaultDeltaConfig matches the heuristic described for delta eligibility:
// skip delta for small sources or wildly different file sizes.
func DefaultDeltaConfig() DeltaConfig {
	return DeltaConfig{MinSourceSizeBytes: 64 * 1024, MaxSizeRatio: 10.0}
}

// ShouldUseDelta decides whether to run the delta engine rather than a
// whole-file transfer, given the source and (possibly absent) destination
// sizes.
func ShouldUseDelta(sourceSize int64, destSize int64, destExists bool, cfg DeltaConfig) bool {
	if !destExists {
		return false
	}
	if cfg.WholeFileForced {
		return false
	}
	if sourceSize < cfg.MinSourceSizeBytes {
		return false
	}
	if destSize <= 0 {
		return sourceSize == 0
	}
	ratio := float64(sourceSize) / float64(destSize)
	if ratio < 1 {
		ratio = 1 / ratio
	}
	if ratio > cfg.MaxSizeRatio {
		return false
	}
	return true
}
