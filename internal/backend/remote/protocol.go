// Package remote implements internal/backend.Backend over a QUIC
// connection: one stream per operation, a length-prefixed JSON request
// frame, then (for Read/Write) a raw byte stream, then (for every operation
// except Read) a length-prefixed JSON response frame. A Read stream carries
// only the file's bytes. This keeps the framing consistent with the
// teacher's control-stream idiom without designing a user-facing protocol.
package remote

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/orbit-sync/orbit/internal/backend"
)

// OpCode names the requested Backend operation.
type OpCode uint8

const (
	OpStat OpCode = iota + 1
	OpList
	OpRead
	OpWrite
	OpDelete
	OpMkdir
	OpRename
	OpExists
)

// Request is the length-prefixed JSON frame sent at the start of a stream.
type Request struct {
	Op        OpCode `json:"op"`
	Path      string `json:"path"`
	NewPath   string `json:"new_path,omitempty"`
	Recursive bool   `json:"recursive,omitempty"`
}

// Response is the length-prefixed JSON frame sent at the end of a stream
// (after the raw body bytes for OpWrite). OpRead streams have none.
type Response struct {
	OK      bool            `json:"ok"`
	Error   string          `json:"error,omitempty"`
	Info    backend.Info    `json:"info,omitempty"`
	Entries []backend.Entry `json:"entries,omitempty"`
	Exists  bool            `json:"exists,omitempty"`
}

func writeFrame(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func readFrame(r io.Reader, v any) error {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
