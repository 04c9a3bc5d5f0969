package planner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/orbit-sync/orbit/daemon/config"
	"github.com/orbit-sync/orbit/internal/backend/local"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPlanCopyModeAlwaysCopies(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, src, "a.txt", "hello")
	writeFile(t, dst, "a.txt", "hello") // identical, but Copy mode still copies

	srcB, dstB := local.New(src), local.New(dst)
	result, err := Plan(context.Background(), srcB, dstB, Options{CopyMode: config.CopyModeCopy, Recursive: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Tasks) != 1 || result.Tasks[0].Kind != TaskCopy {
		t.Fatalf("expected one copy task, got %+v", result.Tasks)
	}
}

func TestPlanSyncModeSkipsUpToDate(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, src, "a.txt", "hello")
	writeFile(t, dst, "a.txt", "hello")

	// Ensure dst mtime is not older than src.
	now := time.Now()
	os.Chtimes(filepath.Join(src, "a.txt"), now, now)
	os.Chtimes(filepath.Join(dst, "a.txt"), now.Add(time.Second), now.Add(time.Second))

	srcB, dstB := local.New(src), local.New(dst)
	result, err := Plan(context.Background(), srcB, dstB, Options{CopyMode: config.CopyModeSync, CheckMode: config.CheckModeModTime, Recursive: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Tasks) != 0 {
		t.Fatalf("expected no tasks, got %+v", result.Tasks)
	}
}

func TestPlanSyncModeCopiesMissingDest(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, src, "a.txt", "hello")

	srcB, dstB := local.New(src), local.New(dst)
	result, err := Plan(context.Background(), srcB, dstB, Options{CopyMode: config.CopyModeSync, Recursive: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Tasks) != 1 || result.Tasks[0].Kind != TaskCopy {
		t.Fatalf("expected one copy task, got %+v", result.Tasks)
	}
}

func TestPlanCreateDirForMissingDestDir(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, src, "sub/a.txt", "hello")

	srcB, dstB := local.New(src), local.New(dst)
	result, err := Plan(context.Background(), srcB, dstB, Options{CopyMode: config.CopyModeCopy, Recursive: true})
	if err != nil {
		t.Fatal(err)
	}
	var sawDir, sawFile bool
	for i, task := range result.Tasks {
		if task.Kind == TaskCreateDir && task.DstPath == "sub" {
			sawDir = true
		}
		if task.Kind == TaskCopy {
			sawFile = true
			if !sawDir {
				t.Fatalf("copy task at index %d appeared before its directory's create task", i)
			}
		}
	}
	if !sawDir || !sawFile {
		t.Fatalf("expected both a dir task and a copy task, got %+v", result.Tasks)
	}
}

func TestPlanMirrorModeDeletesUnexpected(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, src, "keep.txt", "hello")
	writeFile(t, dst, "stale.txt", "old")

	srcB, dstB := local.New(src), local.New(dst)
	result, err := Plan(context.Background(), srcB, dstB, Options{CopyMode: config.CopyModeMirror, Recursive: true})
	if err != nil {
		t.Fatal(err)
	}
	var sawDelete bool
	for _, task := range result.Tasks {
		if task.Kind == TaskDelete && task.DstPath == "stale.txt" {
			sawDelete = true
		}
	}
	if !sawDelete {
		t.Fatalf("expected delete task for stale.txt, got %+v", result.Tasks)
	}
}

func TestPlanExcludeFilterSkipsEntry(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, src, "a.txt", "hello")
	writeFile(t, src, "a.tmp", "junk")

	filters, err := FromPatterns([]string{"*.tmp"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	srcB, dstB := local.New(src), local.New(dst)
	result, err := Plan(context.Background(), srcB, dstB, Options{CopyMode: config.CopyModeCopy, Recursive: true, Filters: filters})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Tasks) != 1 || result.Tasks[0].SrcPath != "a.txt" {
		t.Fatalf("expected only a.txt copied, got %+v", result.Tasks)
	}
}

func TestFilterFirstMatchWins(t *testing.T) {
	list, err := NewFilterList([]Rule{
		{Kind: RuleGlob, Pattern: "*.log", Action: Exclude},
		{Kind: RuleGlob, Pattern: "keep.log", Action: Include},
	})
	if err != nil {
		t.Fatal(err)
	}
	if list.Decide("keep.log") != Exclude {
		t.Fatal("first matching rule (exclude *.log) should win over the later include rule")
	}
}
