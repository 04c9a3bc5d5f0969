// Package executor runs a Planner task list against a pair of Backends,
// with a bounded worker pool, a fast lane for small files, retry with
// exponential backoff, and resilience-primitive integration (spec §4.8).
package executor

import (
	"bytes"
	"context"
	"io"
	"runtime"
	"sync"

	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/orbit-sync/orbit/daemon/config"
	"github.com/orbit-sync/orbit/internal/backend"
	"github.com/orbit-sync/orbit/internal/observability"
	"github.com/orbit-sync/orbit/internal/orbiterr"
	"github.com/orbit-sync/orbit/internal/planner"
	"github.com/orbit-sync/orbit/internal/ratelimit"
	"github.com/orbit-sync/orbit/internal/resilience"
)

// queueCapMin and queueCapMax bound the producer/consumer channel's
// buffer (spec §5: "default capacity = max(parallelism, 16), cap 1000").
const (
	queueCapMin = 16
	queueCapMax = 1000
)

// Executor runs one batch of planner.Tasks.
type Executor struct {
	cfg        config.Config
	srcBackend backend.Backend
	dstBackend backend.Backend

	penaltyBox  *resilience.PenaltyBox
	backpressure *resilience.BackpressureGuard
	bucket      *ratelimit.TokenBucket

	parallelism int
}

// New constructs an Executor. A nil penaltyBox/backpressure disables that
// primitive; a zero cfg.MaxBandwidth disables bandwidth throttling.
func New(cfg config.Config, srcBackend, dstBackend backend.Backend, penaltyBox *resilience.PenaltyBox, bp *resilience.BackpressureGuard) *Executor {
	parallelism := cfg.Parallel
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
		if parallelism > 16 {
			parallelism = 16
		}
	}

	var bucket *ratelimit.TokenBucket
	if cfg.MaxBandwidth > 0 {
		bucket = ratelimit.NewTokenBucket(float64(cfg.MaxBandwidth), int(cfg.MaxBandwidth))
	}

	return &Executor{
		cfg: cfg, srcBackend: srcBackend, dstBackend: dstBackend,
		penaltyBox: penaltyBox, backpressure: bp, bucket: bucket,
		parallelism: parallelism,
	}
}

// Run executes tasks to completion (or until ctx is cancelled), returning a
// final Stats snapshot. Directory-create tasks are applied sequentially
// before any worker is dispatched, guaranteeing CreateDir happens-before
// any Copy/Delete below it (spec §5 ordering guarantee); Copy and Delete
// tasks then flow through the worker pool concurrently.
func (e *Executor) Run(ctx context.Context, tasks []planner.Task) (*Stats, error) {
	stats := NewStats(len(tasks))
	defer stats.Finish()

	var dirTasks, workTasks []planner.Task
	for _, t := range tasks {
		if t.Kind == planner.TaskCreateDir {
			dirTasks = append(dirTasks, t)
		} else {
			workTasks = append(workTasks, t)
		}
	}

	for _, t := range dirTasks {
		if e.cfg.DryRun {
			stats.recordDirCreated()
			continue
		}
		if err := e.dstBackend.Mkdir(ctx, t.DstPath); err != nil {
			stats.recordFailure(classify(err))
			if e.cfg.ErrorMode == config.ErrorModeAbort {
				return stats, err
			}
			continue
		}
		stats.recordDirCreated()
	}

	queueCap := e.parallelism
	if queueCap < queueCapMin {
		queueCap = queueCapMin
	}
	if queueCap > queueCapMax {
		queueCap = queueCapMax
	}
	queue := make(chan planner.Task, queueCap)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var aborted error
	var abortOnce sync.Once
	abort := func(err error) {
		abortOnce.Do(func() {
			aborted = err
			cancel()
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < e.parallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-runCtx.Done():
					return
				case task, ok := <-queue:
					if !ok {
						return
					}
					e.dispatch(runCtx, task, stats, abort)
				}
			}
		}()
	}

	go func() {
		defer close(queue)
		for _, t := range workTasks {
			select {
			case <-runCtx.Done():
				return
			case queue <- t:
			}
		}
	}()

	wg.Wait()
	return stats, aborted
}

func (e *Executor) dispatch(ctx context.Context, task planner.Task, stats *Stats, abort func(error)) {
	if e.backpressure != nil {
		e.backpressure.RecordEnqueue(1, uint64(task.ExpectedSize))
		defer e.backpressure.RecordDequeue(1, uint64(task.ExpectedSize))
	}

	key := task.DstPath
	if e.penaltyBox != nil && !e.penaltyBox.IsEligible(key) {
		return
	}

	if e.cfg.DryRun {
		switch task.Kind {
		case planner.TaskCopy:
			stats.recordCopy(uint64(task.ExpectedSize))
		case planner.TaskDelete:
			stats.recordDelete()
		}
		return
	}

	result, err := withRetry(e.cfg, func(attempt uint32) { stats.recordRetry() }, func() error {
		return e.execOnce(ctx, task, stats)
	})

	switch result {
	case outcomeSuccess:
		if e.penaltyBox != nil {
			e.penaltyBox.Clear(key)
		}
	case outcomeSkipped:
		stats.recordSkip()
	case outcomeFailed:
		stats.recordFailure(classify(err))
		if e.penaltyBox != nil && err != nil {
			if exhausted := e.penaltyBox.Penalize(key, err.Error()); exhausted {
				// dead-letter: the caller inspects Stats' failure breakdown
				// and per-task error for dead-lettered entries.
			}
		}
		if e.cfg.ErrorMode == config.ErrorModeAbort {
			abort(err)
		}
	}
}

// execOnce performs one attempt of task, dispatching to the fast lane for
// small files and verifying the source hasn't changed since plan time
// (spec §4.8 "source changed" check).
func (e *Executor) execOnce(ctx context.Context, task planner.Task, stats *Stats) error {
	switch task.Kind {
	case planner.TaskDelete:
		if err := e.dstBackend.Delete(ctx, task.DstPath); err != nil {
			return err
		}
		stats.recordDelete()
		return nil
	case planner.TaskCopy:
		return e.execCopy(ctx, task, stats)
	default:
		return nil
	}
}

func (e *Executor) execCopy(ctx context.Context, task planner.Task, stats *Stats) (err error) {
	ctx, span := observability.Tracer().Start(ctx, "orbit.copy_task", oteltrace.WithAttributes(
		attribute.String("orbit.dst_path", task.DstPath),
		attribute.Int64("orbit.expected_size", task.ExpectedSize),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	ct := copyTask{SrcPath: task.SrcPath, DstPath: task.DstPath, ExpectedSize: task.ExpectedSize, ExpectedModTime: task.ExpectedModTime}

	var written uint64
	if task.ExpectedSize < FastLaneThreshold {
		written, err = copySmall(ctx, e.srcBackend, e.dstBackend, ct, e.bucket)
	} else {
		written, err = copyLarge(ctx, e.srcBackend, e.dstBackend, ct, e.cfg, e.bucket, stats)
	}
	if err != nil {
		return err
	}

	// Source-changed-since-plan-time check (spec §4.8): unconditional, since
	// it only costs a Stat and guards every copy against a TOCTOU race with
	// whatever wrote the source after the planner observed it.
	info, statErr := e.srcBackend.Stat(ctx, task.SrcPath)
	if statErr == nil && (info.Size != task.ExpectedSize || info.ModTime.After(task.ExpectedModTime)) {
		return orbiterr.New(orbiterr.Integrity, "source changed during copy: "+task.SrcPath, nil)
	}

	if e.cfg.VerifyChecksum {
		if err := e.verifyChecksum(ctx, task); err != nil {
			return err
		}
	}

	stats.recordCopy(written)
	return nil
}

// verifyChecksum implements the spec §6 verify_checksum option: an
// end-of-transfer full-file BLAKE3 comparison between source and
// destination, independent of whatever check_mode the planner used to
// decide the file needed copying in the first place.
func (e *Executor) verifyChecksum(ctx context.Context, task planner.Task) error {
	srcReader, err := e.srcBackend.Read(ctx, task.SrcPath)
	if err != nil {
		return err
	}
	defer srcReader.Close()
	dstReader, err := e.dstBackend.Read(ctx, task.DstPath)
	if err != nil {
		return err
	}
	defer dstReader.Close()

	srcHash := blake3.New()
	if _, err := io.Copy(srcHash, srcReader); err != nil {
		return orbiterr.NewIO("checksum read failed: "+task.SrcPath, err)
	}
	dstHash := blake3.New()
	if _, err := io.Copy(dstHash, dstReader); err != nil {
		return orbiterr.NewIO("checksum read failed: "+task.DstPath, err)
	}
	if !bytes.Equal(srcHash.Sum(nil), dstHash.Sum(nil)) {
		return orbiterr.New(orbiterr.Integrity, "checksum mismatch after copy: "+task.DstPath, nil)
	}
	return nil
}

// classify maps an orbiterr.Kind to the breakdown bucket used by Stats.
func classify(err error) string {
	e, ok := orbiterr.As(err)
	if !ok {
		return "internal"
	}
	switch e.Kind {
	case orbiterr.IO:
		return "io"
	case orbiterr.Network:
		return "network"
	case orbiterr.Permission:
		return "permission"
	case orbiterr.Integrity:
		return "integrity"
	default:
		return "internal"
	}
}
