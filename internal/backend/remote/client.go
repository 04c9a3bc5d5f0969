package remote

import (
	"context"
	"io"

	"github.com/quic-go/quic-go"

	"github.com/orbit-sync/orbit/internal/backend"
	"github.com/orbit-sync/orbit/internal/orbiterr"
)

// Backend implements backend.Backend by opening one QUIC stream per
// operation against a peer running a matching remote.Server.
type Backend struct {
	conn *quic.Conn
}

// New constructs a remote Backend over an already-established QUIC
// connection. Connection setup (TLS config, dial/listen) is the caller's
// responsibility; this package only frames requests and responses on top
// of an open *quic.Conn.
func New(conn *quic.Conn) *Backend {
	return &Backend{conn: conn}
}

func (b *Backend) call(ctx context.Context, req Request, body io.Reader) (*quic.Stream, *Response, error) {
	stream, err := b.conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, nil, orbiterr.New(orbiterr.Network, "open stream failed", err)
	}
	if err := writeFrame(stream, req); err != nil {
		stream.Close()
		return nil, nil, orbiterr.New(orbiterr.Network, "write request failed", err)
	}
	if body != nil {
		if _, err := io.Copy(stream, body); err != nil {
			stream.Close()
			return nil, nil, orbiterr.NewIO("write body failed", err)
		}
	}
	if err := stream.Close(); err != nil && body == nil {
		// Close signals end-of-request for ops without a body; errors here
		// are surfaced via the response frame instead when possible.
	}

	var resp Response
	if err := readFrame(stream, &resp); err != nil {
		return nil, nil, orbiterr.New(orbiterr.Network, "read response failed", err)
	}
	if !resp.OK {
		return stream, &resp, orbiterr.New(orbiterr.IO, resp.Error, nil)
	}
	return stream, &resp, nil
}

func (b *Backend) Stat(ctx context.Context, path string) (backend.Info, error) {
	_, resp, err := b.call(ctx, Request{Op: OpStat, Path: path}, nil)
	if err != nil {
		return backend.Info{}, err
	}
	return resp.Info, nil
}

func (b *Backend) List(ctx context.Context, dir string, recursive bool) ([]backend.Entry, error) {
	_, resp, err := b.call(ctx, Request{Op: OpList, Path: dir, Recursive: recursive}, nil)
	if err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// remoteReadCloser streams the raw body written by the server; the server
// sends no response frame for a read, so Close only closes the stream.
type remoteReadCloser struct {
	stream *quic.Stream
	done   bool
}

func (r *remoteReadCloser) Read(p []byte) (int, error) {
	return r.stream.Read(p)
}

func (r *remoteReadCloser) Close() error {
	return r.stream.Close()
}

func (b *Backend) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	stream, err := b.conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, orbiterr.New(orbiterr.Network, "open stream failed", err)
	}
	if err := writeFrame(stream, Request{Op: OpRead, Path: path}); err != nil {
		stream.Close()
		return nil, orbiterr.New(orbiterr.Network, "write request failed", err)
	}
	return &remoteReadCloser{stream: stream}, nil
}

// remoteWriteCloser buffers nothing; it streams bytes directly to the
// QUIC stream and sends the terminating request frame semantics by
// closing the write side on Close, then awaits the response frame.
type remoteWriteCloser struct {
	stream *quic.Stream
}

func (w *remoteWriteCloser) Write(p []byte) (int, error) {
	return w.stream.Write(p)
}

func (w *remoteWriteCloser) Close() error {
	if err := w.stream.Close(); err != nil {
		return orbiterr.New(orbiterr.Network, "close stream failed", err)
	}
	var resp Response
	if err := readFrame(w.stream, &resp); err != nil {
		return orbiterr.New(orbiterr.Network, "read response failed", err)
	}
	if !resp.OK {
		return orbiterr.New(orbiterr.IO, resp.Error, nil)
	}
	return nil
}

func (b *Backend) Write(ctx context.Context, path string) (io.WriteCloser, error) {
	stream, err := b.conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, orbiterr.New(orbiterr.Network, "open stream failed", err)
	}
	if err := writeFrame(stream, Request{Op: OpWrite, Path: path}); err != nil {
		stream.Close()
		return nil, orbiterr.New(orbiterr.Network, "write request failed", err)
	}
	return &remoteWriteCloser{stream: stream}, nil
}

func (b *Backend) Delete(ctx context.Context, path string) error {
	_, _, err := b.call(ctx, Request{Op: OpDelete, Path: path}, nil)
	return err
}

func (b *Backend) Mkdir(ctx context.Context, path string) error {
	_, _, err := b.call(ctx, Request{Op: OpMkdir, Path: path}, nil)
	return err
}

func (b *Backend) Rename(ctx context.Context, oldPath, newPath string) error {
	_, _, err := b.call(ctx, Request{Op: OpRename, Path: oldPath, NewPath: newPath}, nil)
	return err
}

func (b *Backend) Exists(ctx context.Context, path string) (bool, error) {
	_, resp, err := b.call(ctx, Request{Op: OpExists, Path: path}, nil)
	if err != nil {
		return false, err
	}
	return resp.Exists, nil
}

// Supports reports that every contract operation is available over the
// wire; zero-copy and reflink are local-filesystem-only optimizations that
// cannot apply across a network hop.
func (b *Backend) Supports(op backend.Op) bool {
	switch op {
	case backend.OpReflink, backend.OpZeroCopy:
		return false
	default:
		return true
	}
}
