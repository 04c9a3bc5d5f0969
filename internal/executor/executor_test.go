package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/orbit-sync/orbit/daemon/config"
	"github.com/orbit-sync/orbit/internal/backend/local"
	"github.com/orbit-sync/orbit/internal/planner"
)

func TestRunCopiesSmallFile(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(filepath.Join(src, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}

	srcB, dstB := local.New(src), local.New(dst)
	cfg := *config.DefaultConfig()
	cfg.VerifyChecksum = false

	ex := New(cfg, srcB, dstB, nil, nil)
	tasks := []planner.Task{{Kind: planner.TaskCopy, SrcPath: "a.txt", DstPath: "a.txt", ExpectedSize: 5, ExpectedModTime: fi.ModTime()}}

	stats, err := ex.Run(context.Background(), tasks)
	if err != nil {
		t.Fatal(err)
	}
	snap := stats.Snapshot()
	if snap.FilesCopied != 1 || snap.BytesCopied != 5 {
		t.Fatalf("unexpected stats: %+v", snap)
	}
	data, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	if err != nil || string(data) != "hello" {
		t.Fatalf("copy result = %q, err=%v", data, err)
	}
}

func TestRunCreatesDirectoriesBeforeFiles(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "sub", "f.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(filepath.Join(src, "sub", "f.txt"))
	if err != nil {
		t.Fatal(err)
	}

	srcB, dstB := local.New(src), local.New(dst)
	cfg := *config.DefaultConfig()
	cfg.VerifyChecksum = false

	ex := New(cfg, srcB, dstB, nil, nil)
	tasks := []planner.Task{
		{Kind: planner.TaskCreateDir, DstPath: "sub"},
		{Kind: planner.TaskCopy, SrcPath: "sub/f.txt", DstPath: "sub/f.txt", ExpectedSize: 1, ExpectedModTime: fi.ModTime()},
	}

	stats, err := ex.Run(context.Background(), tasks)
	if err != nil {
		t.Fatal(err)
	}
	snap := stats.Snapshot()
	if snap.DirsCreated != 1 || snap.FilesCopied != 1 {
		t.Fatalf("unexpected stats: %+v", snap)
	}
	if _, err := os.Stat(filepath.Join(dst, "sub", "f.txt")); err != nil {
		t.Fatal(err)
	}
}

func TestRunSkipModeRecordsFailureWithoutAborting(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	// missing.txt doesn't exist in src, so this copy will fail.
	srcB, dstB := local.New(src), local.New(dst)
	cfg := *config.DefaultConfig()
	cfg.ErrorMode = config.ErrorModeSkip
	cfg.RetryAttempts = 0

	ex := New(cfg, srcB, dstB, nil, nil)
	tasks := []planner.Task{
		{Kind: planner.TaskCopy, SrcPath: "missing.txt", DstPath: "missing.txt", ExpectedSize: 1},
	}

	stats, err := ex.Run(context.Background(), tasks)
	if err != nil {
		t.Fatalf("skip mode should not return a top-level error: %v", err)
	}
	snap := stats.Snapshot()
	if snap.FilesFailed != 1 {
		t.Fatalf("expected one recorded failure, got %+v", snap)
	}
}

func TestRunDryRunMakesNoChanges(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	srcB, dstB := local.New(src), local.New(dst)
	cfg := *config.DefaultConfig()
	cfg.DryRun = true

	ex := New(cfg, srcB, dstB, nil, nil)
	tasks := []planner.Task{{Kind: planner.TaskCopy, SrcPath: "a.txt", DstPath: "a.txt", ExpectedSize: 5}}

	stats, err := ex.Run(context.Background(), tasks)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Snapshot().FilesCopied != 1 {
		t.Fatal("dry run should still report planned stats")
	}
	if _, err := os.Stat(filepath.Join(dst, "a.txt")); !os.IsNotExist(err) {
		t.Fatal("dry run must not write the destination")
	}
}
