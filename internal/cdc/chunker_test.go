package cdc

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
)

func TestGearTableSize(t *testing.T) {
	if len(gearTable) != 256 {
		t.Fatalf("gearTable has %d entries, want 256", len(gearTable))
	}
}

func TestEmptyInput(t *testing.T) {
	chunks, err := All(bytes.NewReader(nil), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Fatalf("got %d chunks for empty input, want 0", len(chunks))
	}
}

func TestShorterThanMinSize(t *testing.T) {
	cfg := DefaultConfig()
	data := make([]byte, cfg.MinSize-1)
	rand.New(rand.NewSource(1)).Read(data)

	chunks, err := All(bytes.NewReader(data), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Length != len(data) {
		t.Fatalf("chunk length %d, want %d", chunks[0].Length, len(data))
	}
}

func TestDeterminism(t *testing.T) {
	cfg := Config{MinSize: 4096, AvgSize: 65536, MaxSize: 1048576}
	data := make([]byte, 100000)

	first, err := All(bytes.NewReader(data), cfg)
	if err != nil {
		t.Fatal(err)
	}

	var total int
	for _, c := range first {
		total += c.Length
	}
	if total != len(data) {
		t.Fatalf("chunk lengths sum to %d, want %d", total, len(data))
	}

	second, err := All(bytes.NewReader(data), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("non-deterministic chunk count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Hash != second[i].Hash || first[i].Length != second[i].Length {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestConcatenationEqualsInput(t *testing.T) {
	cfg := Config{MinSize: 64, AvgSize: 256, MaxSize: 4096}
	data := make([]byte, 50000)
	rand.New(rand.NewSource(7)).Read(data)

	chunks, err := All(bytes.NewReader(data), cfg)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	for _, c := range chunks {
		buf.Write(c.Data)
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Fatal("chunk concatenation does not equal input")
	}
}

func TestForcedCutAtMaxSize(t *testing.T) {
	cfg := Config{MinSize: 16, AvgSize: 32, MaxSize: 64}
	data := make([]byte, 200)

	chunks, err := All(bytes.NewReader(data), cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range chunks {
		if c.Length > cfg.MaxSize {
			t.Fatalf("chunk length %d exceeds max %d", c.Length, cfg.MaxSize)
		}
	}
}

func TestShiftResilience(t *testing.T) {
	cfg := Config{MinSize: 256, AvgSize: 1024, MaxSize: 8192}
	data := make([]byte, 200000)
	rand.New(rand.NewSource(42)).Read(data)

	before, err := All(bytes.NewReader(data), cfg)
	if err != nil {
		t.Fatal(err)
	}
	shifted := append([]byte{0xAB}, data...)
	after, err := All(bytes.NewReader(shifted), cfg)
	if err != nil {
		t.Fatal(err)
	}

	beforeHashes := make(map[[32]byte]bool, len(before))
	for _, c := range before {
		beforeHashes[c.Hash] = true
	}
	matched := 0
	for _, c := range after {
		if beforeHashes[c.Hash] {
			matched++
		}
	}
	ratio := float64(matched) / float64(len(before))
	if ratio < 0.8 {
		t.Fatalf("shift resilience ratio %.2f below 0.8 threshold", ratio)
	}
}

func TestInvalidConfig(t *testing.T) {
	_, err := NewChunker(bytes.NewReader(nil), Config{MinSize: 100, AvgSize: 50, MaxSize: 200})
	if err == nil {
		t.Fatal("expected error for min >= avg")
	}
}

func TestNextReturnsEOF(t *testing.T) {
	ch, err := NewChunker(bytes.NewReader([]byte("hi")), Config{MinSize: 1, AvgSize: 2, MaxSize: 4})
	if err != nil {
		t.Fatal(err)
	}
	for {
		_, err := ch.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}
	if _, err := ch.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after exhaustion, got %v", err)
	}
}
