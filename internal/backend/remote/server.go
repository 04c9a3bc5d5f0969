package remote

import (
	"context"
	"io"

	"github.com/quic-go/quic-go"

	"github.com/orbit-sync/orbit/internal/backend"
)

// Server accepts streams on a QUIC connection and dispatches each to a
// local backend.Backend, mirroring the operation the client requested.
// Grounded on the teacher's AcceptControlStream accept-loop shape.
type Server struct {
	conn  *quic.Conn
	local backend.Backend
}

// NewServer wraps local behind conn, serving remote.Backend clients.
func NewServer(conn *quic.Conn, local backend.Backend) *Server {
	return &Server{conn: conn, local: local}
}

// Serve accepts streams until ctx is cancelled or the connection closes.
func (s *Server) Serve(ctx context.Context) error {
	for {
		stream, err := s.conn.AcceptStream(ctx)
		if err != nil {
			return err
		}
		go s.handle(ctx, stream)
	}
}

func (s *Server) handle(ctx context.Context, stream *quic.Stream) {
	defer stream.Close()

	var req Request
	if err := readFrame(stream, &req); err != nil {
		return
	}

	switch req.Op {
	case OpStat:
		info, err := s.local.Stat(ctx, req.Path)
		s.reply(stream, err, func(r *Response) { r.Info = info })
	case OpList:
		entries, err := s.local.List(ctx, req.Path, req.Recursive)
		s.reply(stream, err, func(r *Response) { r.Entries = entries })
	case OpExists:
		exists, err := s.local.Exists(ctx, req.Path)
		s.reply(stream, err, func(r *Response) { r.Exists = exists })
	case OpDelete:
		s.reply(stream, s.local.Delete(ctx, req.Path), nil)
	case OpMkdir:
		s.reply(stream, s.local.Mkdir(ctx, req.Path), nil)
	case OpRename:
		s.reply(stream, s.local.Rename(ctx, req.Path, req.NewPath), nil)
	case OpRead:
		s.serveRead(ctx, stream, req.Path)
	case OpWrite:
		s.serveWrite(ctx, stream, req.Path)
	}
}

func (s *Server) reply(stream *quic.Stream, err error, fill func(*Response)) {
	resp := Response{OK: err == nil}
	if err != nil {
		resp.Error = err.Error()
	} else if fill != nil {
		fill(&resp)
	}
	_ = writeFrame(stream, resp)
}

func (s *Server) serveRead(ctx context.Context, stream *quic.Stream, path string) {
	r, err := s.local.Read(ctx, path)
	if err != nil {
		return
	}
	defer r.Close()
	io.Copy(stream, r)
}

func (s *Server) serveWrite(ctx context.Context, stream *quic.Stream, path string) {
	w, err := s.local.Write(ctx, path)
	if err != nil {
		s.reply(stream, err, nil)
		return
	}
	_, copyErr := io.Copy(w, stream)
	closeErr := w.Close()
	if copyErr != nil {
		s.reply(stream, copyErr, nil)
		return
	}
	s.reply(stream, closeErr, nil)
}
