// Package local implements internal/backend.Backend against the host
// filesystem using the standard library. Reflink and zero-copy support is
// reported per platform by Supports (Linux only); the FICLONE call itself
// lives in internal/inplace.
package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/orbit-sync/orbit/internal/backend"
	"github.com/orbit-sync/orbit/internal/orbiterr"
)

// Backend implements backend.Backend rooted at a single base directory.
type Backend struct {
	root string
}

// New constructs a local filesystem backend rooted at root.
func New(root string) *Backend {
	return &Backend{root: root}
}

func (b *Backend) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(b.root, filepath.FromSlash(path))
}

// LocalPath implements backend.LocalPather: every local-backend path is, by
// construction, a real filesystem path.
func (b *Backend) LocalPath(path string) (string, bool) {
	return b.resolve(path), true
}

func (b *Backend) Stat(_ context.Context, path string) (backend.Info, error) {
	fi, err := os.Stat(b.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return backend.Info{}, orbiterr.New(orbiterr.Validation, "source not found: "+path, err)
		}
		return backend.Info{}, orbiterr.NewIO("stat failed: "+path, err)
	}
	return backend.Info{Size: fi.Size(), ModTime: fi.ModTime(), IsDir: fi.IsDir(), Mode: uint32(fi.Mode().Perm())}, nil
}

func (b *Backend) List(_ context.Context, dir string, recursive bool) ([]backend.Entry, error) {
	root := b.resolve(dir)
	var entries []backend.Entry
	walk := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, backend.Entry{
			RelPath: filepath.ToSlash(rel),
			Info: backend.Info{
				Size: fi.Size(), ModTime: fi.ModTime(), IsDir: fi.IsDir(), Mode: uint32(fi.Mode().Perm()),
			},
		})
		if d.IsDir() && !recursive {
			return filepath.SkipDir
		}
		return nil
	}
	if err := filepath.WalkDir(root, walk); err != nil {
		if os.IsNotExist(err) {
			return nil, orbiterr.New(orbiterr.Validation, "source not found: "+dir, err)
		}
		return nil, orbiterr.NewIO("walk failed: "+dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })
	return entries, nil
}

func (b *Backend) Read(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(b.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, orbiterr.New(orbiterr.Validation, "source not found: "+path, err)
		}
		return nil, orbiterr.NewIO("open for read failed: "+path, err)
	}
	return f, nil
}

func (b *Backend) Write(_ context.Context, path string) (io.WriteCloser, error) {
	full := b.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, orbiterr.NewIO("mkdir for write failed: "+path, err)
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, orbiterr.NewIO("open for write failed: "+path, err)
	}
	return f, nil
}

func (b *Backend) Delete(_ context.Context, path string) error {
	if err := os.Remove(b.resolve(path)); err != nil && !os.IsNotExist(err) {
		return orbiterr.NewIO("delete failed: "+path, err)
	}
	return nil
}

func (b *Backend) Mkdir(_ context.Context, path string) error {
	if err := os.MkdirAll(b.resolve(path), 0o755); err != nil {
		return orbiterr.NewIO("mkdir failed: "+path, err)
	}
	return nil
}

func (b *Backend) Rename(_ context.Context, oldPath, newPath string) error {
	full := b.resolve(newPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return orbiterr.NewIO("mkdir for rename failed: "+newPath, err)
	}
	if err := os.Rename(b.resolve(oldPath), full); err != nil {
		return orbiterr.NewIO("rename failed: "+oldPath, err)
	}
	return nil
}

func (b *Backend) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(b.resolve(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, orbiterr.NewIO("exists check failed: "+path, err)
}

// Supports reports local filesystem capabilities. Reflink/zero-copy support
// is platform- and filesystem-dependent; callers should treat a true return
// here as "may be attempted", not a guarantee (internal/inplace degrades
// gracefully on failure).
func (b *Backend) Supports(op backend.Op) bool {
	switch op {
	case backend.OpStat, backend.OpList, backend.OpRead, backend.OpWrite,
		backend.OpDelete, backend.OpMkdir, backend.OpRename, backend.OpExists:
		return true
	case backend.OpReflink, backend.OpZeroCopy:
		return runtime.GOOS == "linux"
	default:
		return false
	}
}
