package remote

import (
	"bytes"
	"testing"

	"github.com/orbit-sync/orbit/internal/backend"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	req := Request{Op: OpStat, Path: "a/b.txt"}
	if err := writeFrame(&buf, req); err != nil {
		t.Fatal(err)
	}

	var got Request
	if err := readFrame(&buf, &got); err != nil {
		t.Fatal(err)
	}
	if got.Op != OpStat || got.Path != "a/b.txt" {
		t.Fatalf("got %+v", got)
	}
}

func TestResponseFrameCarriesEntries(t *testing.T) {
	var buf bytes.Buffer
	resp := Response{OK: true, Entries: []backend.Entry{{RelPath: "x.txt"}}}
	if err := writeFrame(&buf, resp); err != nil {
		t.Fatal(err)
	}
	var got Response
	if err := readFrame(&buf, &got); err != nil {
		t.Fatal(err)
	}
	if !got.OK || len(got.Entries) != 1 || got.Entries[0].RelPath != "x.txt" {
		t.Fatalf("got %+v", got)
	}
}
