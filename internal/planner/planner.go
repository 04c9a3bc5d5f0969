// Package planner walks a source tree and turns it into an ordered list of
// Tasks per the configured copy mode, check mode, and filters (spec §4.7).
package planner

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/orbit-sync/orbit/daemon/config"
	"github.com/orbit-sync/orbit/internal/backend"
	"github.com/orbit-sync/orbit/internal/signature"
)

// minBlockCompareSize is the floor below which CheckModeDelta falls back to
// a full checksum comparison rather than block signatures (spec §4.7): a
// file this small has no meaningful sub-block reuse to detect.
const minBlockCompareSize = 64 * 1024

// TaskKind discriminates the planned operations.
type TaskKind int

const (
	TaskCreateDir TaskKind = iota
	TaskCopy
	TaskDelete
)

// Task is one planned operation. Copy tasks capture the source's metadata
// at plan time so the Executor can detect "source changed since plan" at
// verification time (spec §4.8).
type Task struct {
	Kind             TaskKind
	SrcPath          string
	DstPath          string
	ExpectedSize     int64
	ExpectedModTime  time.Time
}

// Result is the planner's output: an ordered task list plus, for Mirror
// mode, the set of destination-relative paths expected to exist.
type Result struct {
	Tasks    []Task
	Expected map[string]struct{}
}

// Options configures one planning run.
type Options struct {
	CopyMode    config.CopyMode
	CheckMode   config.CheckMode
	Recursive   bool
	Filters     *FilterList
	BlockSize   int
}

// Plan walks src under srcBackend and dst under dstBackend, producing the
// task list described by spec §4.7.
func Plan(ctx context.Context, srcBackend, dstBackend backend.Backend, opts Options) (Result, error) {
	result := Result{Expected: make(map[string]struct{})}

	entries, err := srcBackend.List(ctx, "", opts.Recursive)
	if err != nil {
		return Result{}, err
	}

	// CreateDir tasks must precede Copy tasks for paths below them (spec
	// §5 ordering guarantee); listing is already sorted by RelPath, which
	// places a directory's entry before its descendants lexically, but we
	// still partition explicitly so the caller can dispatch dirs first.
	var dirTasks, copyTasks []Task

	for _, e := range entries {
		if opts.Filters != nil && opts.Filters.Decide(e.RelPath) == Exclude {
			continue
		}
		result.Expected[e.RelPath] = struct{}{}

		if e.Info.IsDir {
			exists, err := dstBackend.Exists(ctx, e.RelPath)
			if err != nil {
				return Result{}, err
			}
			if !exists {
				dirTasks = append(dirTasks, Task{Kind: TaskCreateDir, DstPath: e.RelPath})
			}
			continue
		}

		needsCopy, err := needsTransfer(ctx, srcBackend, dstBackend, e, opts.CopyMode, opts.CheckMode, opts.BlockSize)
		if err != nil {
			return Result{}, err
		}
		if needsCopy {
			copyTasks = append(copyTasks, Task{
				Kind:            TaskCopy,
				SrcPath:         e.RelPath,
				DstPath:         e.RelPath,
				ExpectedSize:    e.Info.Size,
				ExpectedModTime: e.Info.ModTime,
			})
		}
	}

	result.Tasks = append(result.Tasks, dirTasks...)
	result.Tasks = append(result.Tasks, copyTasks...)

	if opts.CopyMode == config.CopyModeMirror {
		deletes, err := planDeletes(ctx, dstBackend, opts.Recursive, opts.Filters, result.Expected)
		if err != nil {
			return Result{}, err
		}
		result.Tasks = append(result.Tasks, deletes...)
	}

	return result, nil
}

// needsTransfer implements the copy-mode dispatch from spec §4.7: Copy and
// Mirror always transfer; Sync/Update transfer when the destination is
// missing, or per check_mode otherwise (size, mtime, full checksum, or
// block-signature delta equality).
func needsTransfer(ctx context.Context, srcBackend, dstBackend backend.Backend, e backend.Entry, mode config.CopyMode, check config.CheckMode, blockSize int) (bool, error) {
	if mode == config.CopyModeCopy || mode == config.CopyModeMirror {
		return true, nil
	}

	exists, err := dstBackend.Exists(ctx, e.RelPath)
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}

	dstInfo, err := dstBackend.Stat(ctx, e.RelPath)
	if err != nil {
		return false, err
	}

	switch check {
	case config.CheckModeSize:
		return dstInfo.Size != e.Info.Size, nil
	case config.CheckModeChecksum:
		if dstInfo.Size != e.Info.Size {
			return true, nil
		}
		return filesDifferByChecksum(ctx, srcBackend, dstBackend, e.RelPath)
	case config.CheckModeDelta:
		if dstInfo.Size != e.Info.Size {
			return true, nil
		}
		return filesDifferByDelta(ctx, srcBackend, dstBackend, e.RelPath, e.Info.Size, blockSize)
	default: // ModTime
		return e.Info.ModTime.After(dstInfo.ModTime) || dstInfo.Size != e.Info.Size, nil
	}
}

// filesDifferByChecksum compares the full-file BLAKE3 digest of src and dst
// at relPath (spec §4.7 CheckModeChecksum).
func filesDifferByChecksum(ctx context.Context, srcBackend, dstBackend backend.Backend, relPath string) (bool, error) {
	srcReader, err := srcBackend.Read(ctx, relPath)
	if err != nil {
		return false, err
	}
	defer srcReader.Close()
	dstReader, err := dstBackend.Read(ctx, relPath)
	if err != nil {
		return false, err
	}
	defer dstReader.Close()

	srcHash := blake3.New()
	if _, err := io.Copy(srcHash, srcReader); err != nil {
		return false, err
	}
	dstHash := blake3.New()
	if _, err := io.Copy(dstHash, dstReader); err != nil {
		return false, err
	}
	return !bytes.Equal(srcHash.Sum(nil), dstHash.Sum(nil)), nil
}

// filesDifferByDelta compares src and dst at relPath by block signature
// (spec §4.7 CheckModeDelta), falling back to a full checksum below
// minBlockCompareSize where block-level comparison buys nothing.
func filesDifferByDelta(ctx context.Context, srcBackend, dstBackend backend.Backend, relPath string, size int64, blockSize int) (bool, error) {
	if size < minBlockCompareSize {
		return filesDifferByChecksum(ctx, srcBackend, dstBackend, relPath)
	}
	if blockSize <= 0 {
		blockSize = signature.DefaultBlockSize
	}

	srcReader, err := srcBackend.Read(ctx, relPath)
	if err != nil {
		return false, err
	}
	defer srcReader.Close()
	dstReader, err := dstBackend.Read(ctx, relPath)
	if err != nil {
		return false, err
	}
	defer dstReader.Close()

	return signature.FilesDifferBySignature(srcReader, dstReader, blockSize)
}

// planDeletes walks dst and emits a Delete task for every non-excluded
// entry not present in expected (Mirror mode, spec §4.7 step 5).
func planDeletes(ctx context.Context, dstBackend backend.Backend, recursive bool, filters *FilterList, expected map[string]struct{}) ([]Task, error) {
	dstEntries, err := dstBackend.List(ctx, "", recursive)
	if err != nil {
		return nil, err
	}
	var deletes []Task
	for _, e := range dstEntries {
		if filters != nil && filters.Decide(e.RelPath) == Exclude {
			continue
		}
		if _, ok := expected[e.RelPath]; ok {
			continue
		}
		deletes = append(deletes, Task{Kind: TaskDelete, DstPath: e.RelPath})
	}
	return deletes, nil
}

// NormalizeRelPath forward-slashes a path for cross-platform filter
// matching (spec §4.7).
func NormalizeRelPath(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}
