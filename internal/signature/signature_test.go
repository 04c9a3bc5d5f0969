package signature

import (
	"bytes"
	"testing"
)

// applyDelta reconstructs source from dest using the instruction stream
// ComputeDelta produced against it.
func applyDelta(dest []byte, instructions []Instruction) []byte {
	var out []byte
	for _, instr := range instructions {
		switch instr.Kind {
		case KindCopy:
			out = append(out, dest[instr.SrcOffset:instr.SrcOffset+int64(instr.Length)]...)
		case KindData:
			out = append(out, instr.Bytes...)
		}
	}
	return out
}

func TestGenerateSignaturesCoversWholeFileInBlockSizedPieces(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 4096+100)
	sigs, err := GenerateSignatures(bytes.NewReader(data), 4096)
	if err != nil {
		t.Fatal(err)
	}
	if len(sigs) != 2 {
		t.Fatalf("got %d signatures, want 2", len(sigs))
	}
	if sigs[0].Length != 4096 || sigs[1].Length != 100 {
		t.Fatalf("unexpected lengths: %+v", sigs)
	}
}

func TestComputeDeltaReconstructsIdenticalContent(t *testing.T) {
	dest := []byte("AAAAA BBBB CCCCC")
	sigs, err := GenerateSignatures(bytes.NewReader(dest), 5)
	if err != nil {
		t.Fatal(err)
	}
	instructions := ComputeDelta(dest, sigs, 5)
	got := applyDelta(dest, instructions)
	if !bytes.Equal(got, dest) {
		t.Fatalf("reconstructed = %q, want %q", got, dest)
	}
}

// TestComputeDeltaMiddleBlockChanged is the worked example from the delta
// engine's specification: a single interior block differs, and the
// unchanged head and tail blocks should reuse copy instructions rather than
// being resent as literal data.
func TestComputeDeltaMiddleBlockChanged(t *testing.T) {
	dest := []byte("AAAAA BBBB CCCCC")
	source := []byte("AAAAA XXXX CCCCC")
	blockSize := 5

	sigs, err := GenerateSignatures(bytes.NewReader(dest), blockSize)
	if err != nil {
		t.Fatal(err)
	}
	instructions := ComputeDelta(source, sigs, blockSize)

	got := applyDelta(dest, instructions)
	if !bytes.Equal(got, source) {
		t.Fatalf("reconstructed = %q, want %q", got, source)
	}

	var copyBytes, dataBytes int
	for _, instr := range instructions {
		switch instr.Kind {
		case KindCopy:
			copyBytes += instr.Length
		case KindData:
			dataBytes += len(instr.Bytes)
		}
	}
	if copyBytes == 0 {
		t.Fatal("expected at least one copy instruction reusing unchanged blocks")
	}
	if copyBytes+dataBytes != len(source) {
		t.Fatalf("copy+data bytes = %d, want %d", copyBytes+dataBytes, len(source))
	}
}

func TestFilesDifferBySignatureDetectsEqualContent(t *testing.T) {
	a := bytes.Repeat([]byte("hello world "), 500)
	b := append([]byte(nil), a...)

	differ, err := FilesDifferBySignature(bytes.NewReader(a), bytes.NewReader(b), 4096)
	if err != nil {
		t.Fatal(err)
	}
	if differ {
		t.Fatal("identical content reported as differing")
	}
}

func TestFilesDifferBySignatureDetectsDifference(t *testing.T) {
	a := bytes.Repeat([]byte("hello world "), 500)
	b := append([]byte(nil), a...)
	b[100] = 'Z'

	differ, err := FilesDifferBySignature(bytes.NewReader(a), bytes.NewReader(b), 4096)
	if err != nil {
		t.Fatal(err)
	}
	if !differ {
		t.Fatal("differing content reported as equal")
	}
}

func TestShouldUseDeltaSkipsSmallSources(t *testing.T) {
	cfg := DefaultDeltaConfig()
	if ShouldUseDelta(1024, 1024, true, cfg) {
		t.Fatal("small source should not use delta")
	}
}

func TestShouldUseDeltaSkipsMissingDest(t *testing.T) {
	cfg := DefaultDeltaConfig()
	if ShouldUseDelta(1<<20, 0, false, cfg) {
		t.Fatal("missing destination should not use delta")
	}
}

func TestShouldUseDeltaSkipsWildlyDifferentSizes(t *testing.T) {
	cfg := DefaultDeltaConfig()
	if ShouldUseDelta(100*1<<20, 1<<20, true, cfg) {
		t.Fatal("size ratio beyond MaxSizeRatio should not use delta")
	}
}

func TestShouldUseDeltaAcceptsEligibleSource(t *testing.T) {
	cfg := DefaultDeltaConfig()
	if !ShouldUseDelta(1<<20, 1<<20, true, cfg) {
		t.Fatal("equal-size large files should be eligible for delta")
	}
}
