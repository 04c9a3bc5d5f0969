// Command orbit-chunk prints the content-defined chunk manifest for a single
// file, for debugging delta-engine and container-packing decisions without
// running a full job.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/orbit-sync/orbit/internal/cdc"
)

type chunkRecord struct {
	Offset int64  `json:"offset"`
	Length int    `json:"length"`
	Hash   string `json:"hash"`
}

type manifest struct {
	FilePath   string        `json:"file_path"`
	FileSize   int64         `json:"file_size"`
	ChunkCount int           `json:"chunk_count"`
	Chunks     []chunkRecord `json:"chunks"`
}

func main() {
	minSize := flag.Int("min-size", cdc.DefaultConfig().MinSize, "minimum chunk size in bytes")
	avgSize := flag.Int("avg-size", cdc.DefaultConfig().AvgSize, "target average chunk size in bytes")
	maxSize := flag.Int("max-size", cdc.DefaultConfig().MaxSize, "maximum chunk size in bytes")
	output := flag.String("output", "", "write manifest JSON to file (default: stdout)")
	pretty := flag.Bool("pretty", true, "pretty-print JSON output")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: orbit-chunk [options] <file_path>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	filePath := flag.Arg(0)

	f, err := os.Open(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	chunker, err := cdc.NewChunker(f, cdc.Config{MinSize: *minSize, AvgSize: *avgSize, MaxSize: *maxSize})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(3)
	}

	m := manifest{FilePath: filePath, FileSize: info.Size()}
	for {
		chunk, err := chunker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error computing chunks: %v\n", err)
			os.Exit(3)
		}
		m.Chunks = append(m.Chunks, chunkRecord{
			Offset: chunk.Offset,
			Length: chunk.Length,
			Hash:   hex.EncodeToString(chunk.Hash[:]),
		})
	}
	m.ChunkCount = len(m.Chunks)

	var data []byte
	if *pretty {
		data, err = json.MarshalIndent(m, "", "  ")
	} else {
		data, err = json.Marshal(m)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error serializing manifest: %v\n", err)
		os.Exit(4)
	}

	if *output != "" {
		if err := os.WriteFile(*output, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing output: %v\n", err)
			os.Exit(5)
		}
		fmt.Fprintf(os.Stderr, "manifest written to %s\n", *output)
		return
	}
	fmt.Println(string(data))
}
