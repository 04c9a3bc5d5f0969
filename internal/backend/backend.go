// Package backend defines the storage-capability contract consumed by the
// Planner and Executor (spec §6). A Backend abstracts over where files
// physically live (local disk today, a remote QUIC-connected peer in
// principle) behind the same small operation set.
package backend

import (
	"context"
	"io"
	"time"
)

// Op names a single Backend capability for Supports queries.
type Op string

const (
	OpStat     Op = "stat"
	OpList     Op = "list"
	OpRead     Op = "read"
	OpWrite    Op = "write"
	OpDelete   Op = "delete"
	OpMkdir    Op = "mkdir"
	OpRename   Op = "rename"
	OpExists   Op = "exists"
	OpReflink  Op = "reflink"
	OpZeroCopy Op = "zero_copy"
)

// Info is the subset of file metadata the Planner and Executor need to make
// copy-mode and check-mode decisions.
type Info struct {
	Size    int64
	ModTime time.Time
	IsDir   bool
	Mode    uint32
}

// Entry is one item returned by List: a relative path plus its Info.
type Entry struct {
	RelPath string
	Info    Info
}

// Backend is the storage-capability contract. All operations return typed
// errors from the internal/orbiterr taxonomy.
type Backend interface {
	Stat(ctx context.Context, path string) (Info, error)
	List(ctx context.Context, dir string, recursive bool) ([]Entry, error)
	Read(ctx context.Context, path string) (io.ReadCloser, error)
	Write(ctx context.Context, path string) (io.WriteCloser, error)
	Delete(ctx context.Context, path string) error
	Mkdir(ctx context.Context, path string) error
	Rename(ctx context.Context, oldPath, newPath string) error
	Exists(ctx context.Context, path string) (bool, error)
	Supports(op Op) bool
}

// LocalPather is an optional capability implemented by backends that are
// backed by a real, directly-addressable filesystem path. The Executor's
// delta/in-place write path (internal/inplace) type-asserts for this before
// attempting an in-place update, since WriteAt-style random-access writes
// have no meaning against a backend like internal/backend/remote that only
// exposes sequential Read/Write streams.
type LocalPather interface {
	LocalPath(path string) (string, bool)
}
