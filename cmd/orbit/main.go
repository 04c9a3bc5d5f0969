// Command orbit runs a single replication job: it loads a configuration
// file, plans the work between a source and destination path, and drives
// the Executor to completion.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/orbit-sync/orbit/daemon/config"
	"github.com/orbit-sync/orbit/internal/backend/local"
	"github.com/orbit-sync/orbit/internal/executor"
	"github.com/orbit-sync/orbit/internal/observability"
	"github.com/orbit-sync/orbit/internal/planner"
	"github.com/orbit-sync/orbit/internal/resilience"
)

// isInteractive reports whether stderr is a terminal, used to decide
// whether the final summary line is printed at all (scripted runs piping
// stderr to a log file do not get it; the structured JobCompleted log
// entry still records the outcome).
func isInteractive() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func main() {
	configPath := flag.String("config", "", "path to an orbit YAML configuration file (defaults applied if empty)")
	srcPath := flag.String("src", "", "source directory")
	dstPath := flag.String("dst", "", "destination directory")
	flag.Parse()

	if *srcPath == "" || *dstPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: orbit -src <path> -dst <path> [-config orbit.yaml]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(2)
	}

	logger := observability.NewLogger("orbit", "dev", os.Stderr)
	jobID := fmt.Sprintf("job-%d", time.Now().UnixNano())
	jobLogger := logger.WithJob(jobID)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srcBackend := local.New(*srcPath)
	dstBackend := local.New(*dstPath)

	filters, err := planner.FromPatterns(cfg.ExcludePatterns, cfg.IncludePatterns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error compiling filters: %v\n", err)
		os.Exit(2)
	}

	jobLogger.JobStarted(jobID, *srcPath, *dstPath, 0)

	plan, err := planner.Plan(ctx, srcBackend, dstBackend, planner.Options{
		CopyMode:  cfg.CopyMode,
		CheckMode: cfg.CheckMode,
		Recursive: cfg.Recursive,
		Filters:   filters,
		BlockSize: cfg.BlockSize,
	})
	if err != nil {
		jobLogger.Error(err, "planning failed")
		os.Exit(3)
	}

	penaltyBox := resilience.NewPenaltyBox(resilience.DefaultPenaltyConfig())
	backpressure := resilience.NewBackpressureGuard(*dstPath, resilience.DefaultBackpressureConfig())

	exec := executor.New(*cfg, srcBackend, dstBackend, penaltyBox, backpressure)

	start := time.Now()
	stats, err := exec.Run(ctx, plan.Tasks)
	duration := time.Since(start)

	if stats != nil {
		snap := stats.Snapshot()
		jobLogger.JobCompleted(jobID, snap.FilesCopied, snap.FilesFailed, duration)
		if isInteractive() {
			fmt.Fprintf(os.Stderr,
				"copied=%d deleted=%d skipped=%d failed=%d dirs=%d bytes=%d retries=%d duration=%s\n",
				snap.FilesCopied, snap.FilesDeleted, snap.FilesSkipped, snap.FilesFailed,
				snap.DirsCreated, snap.BytesCopied, snap.TotalRetries, snap.Duration)
		}
	}

	if err != nil {
		jobLogger.Error(err, "job aborted")
		os.Exit(4)
	}
	if stats != nil && stats.Snapshot().FilesFailed > 0 {
		os.Exit(1)
	}
}
