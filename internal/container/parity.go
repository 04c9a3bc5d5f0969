package container

import (
	"fmt"

	"github.com/orbit-sync/orbit/internal/fec"
)

// ParityShards computes Reed-Solomon parity over a chunk's data split into
// k equal-sized data shards, returning r parity shards of the same size.
// This is an optional, opt-in hedge against partial corruption of a
// container file (bit rot, truncated writes) independent of the
// source-to-destination transfer path, which is covered by BLAKE3 content
// hashing instead.
type ParityShards struct {
	K, R int
}

// DefaultParityShards matches the teacher's network-FEC default data/parity
// split, repurposed here for at-rest container protection rather than
// packet-loss recovery.
func DefaultParityShards() ParityShards {
	return ParityShards{K: 8, R: 2}
}

// Encode pads data to a multiple of K, splits it into K equal shards, and
// returns R parity shards alongside the (possibly padded) original length.
func (p ParityShards) Encode(data []byte) (parity [][]byte, paddedLen int, err error) {
	enc, err := fec.NewEncoder(p.K, p.R)
	if err != nil {
		return nil, 0, err
	}

	shardSize := (len(data) + p.K - 1) / p.K
	if shardSize == 0 {
		shardSize = 1
	}
	paddedLen = shardSize * p.K

	padded := make([]byte, paddedLen)
	copy(padded, data)

	dataShards := make([][]byte, p.K)
	for i := 0; i < p.K; i++ {
		dataShards[i] = padded[i*shardSize : (i+1)*shardSize]
	}

	parity, err = enc.Encode(dataShards)
	if err != nil {
		return nil, 0, fmt.Errorf("container: parity encode failed: %w", err)
	}
	return parity, paddedLen, nil
}

// Reconstruct rebuilds a container chunk's data shards from however many
// data and parity shards survived, returning the original (unpadded) bytes.
// shards must be length K+R, with a nil entry for every shard known lost.
func (p ParityShards) Reconstruct(shards [][]byte, originalLen int) ([]byte, error) {
	dec, err := fec.NewDecoder(p.K, p.R)
	if err != nil {
		return nil, err
	}
	if err := dec.Reconstruct(shards); err != nil {
		return nil, fmt.Errorf("container: parity reconstruct failed: %w", err)
	}

	out := make([]byte, 0, originalLen)
	for i := 0; i < p.K; i++ {
		out = append(out, shards[i]...)
	}
	if len(out) > originalLen {
		out = out[:originalLen]
	}
	return out, nil
}
