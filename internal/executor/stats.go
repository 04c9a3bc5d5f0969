package executor

import (
	"sync"
	"time"
)

// Stats accumulates the Executor's running totals for one batch (spec
// §4.8: files_copied, files_deleted, files_skipped, files_failed,
// dirs_created, bytes_copied, bytes_saved_by_delta, completed_tasks,
// total_tasks, duration, plus an error-kind breakdown).
type Stats struct {
	mu sync.Mutex

	FilesCopied       uint64
	FilesDeleted      uint64
	FilesSkipped      uint64
	FilesFailed       uint64
	DirsCreated       uint64
	BytesCopied       uint64
	BytesSavedByDelta uint64
	CompletedTasks    uint64
	TotalTasks        uint64
	TotalRetries      uint64

	IOErrors       uint64
	NetworkErrors  uint64
	FatalErrors    uint64
	PermErrors     uint64
	IntegrityErrors uint64

	start time.Time
	end   time.Time
}

// NewStats constructs a Stats tracker for a batch of totalTasks tasks.
func NewStats(totalTasks int) *Stats {
	return &Stats{TotalTasks: uint64(totalTasks), start: time.Now()}
}

func (s *Stats) recordCopy(bytes uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FilesCopied++
	s.BytesCopied += bytes
	s.CompletedTasks++
}

func (s *Stats) recordDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FilesDeleted++
	s.CompletedTasks++
}

func (s *Stats) recordDirCreated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DirsCreated++
	s.CompletedTasks++
}

func (s *Stats) recordSkip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FilesSkipped++
	s.CompletedTasks++
}

func (s *Stats) recordRetry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TotalRetries++
}

func (s *Stats) recordDeltaSavings(bytes uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BytesSavedByDelta += bytes
}

func (s *Stats) recordFailure(kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FilesFailed++
	s.CompletedTasks++
	switch kind {
	case "io":
		s.IOErrors++
	case "network":
		s.NetworkErrors++
	case "permission":
		s.PermErrors++
	case "integrity":
		s.IntegrityErrors++
	default:
		s.FatalErrors++
	}
}

// Finish stops the batch's clock. Snapshot reflects the duration measured
// up to the most recent Finish call (or "still running" if never called).
func (s *Stats) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.end = time.Now()
}

// Snapshot is an immutable point-in-time copy of Stats, safe to hand to
// callers outside the executor's locking.
type Snapshot struct {
	FilesCopied, FilesDeleted, FilesSkipped, FilesFailed uint64
	DirsCreated                                          uint64
	BytesCopied, BytesSavedByDelta                       uint64
	CompletedTasks, TotalTasks, TotalRetries             uint64
	IOErrors, NetworkErrors, FatalErrors, PermErrors, IntegrityErrors uint64
	Duration                                             time.Duration
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	end := s.end
	if end.IsZero() {
		end = time.Now()
	}
	return Snapshot{
		FilesCopied: s.FilesCopied, FilesDeleted: s.FilesDeleted,
		FilesSkipped: s.FilesSkipped, FilesFailed: s.FilesFailed,
		DirsCreated: s.DirsCreated, BytesCopied: s.BytesCopied,
		BytesSavedByDelta: s.BytesSavedByDelta, CompletedTasks: s.CompletedTasks,
		TotalTasks: s.TotalTasks, TotalRetries: s.TotalRetries,
		IOErrors: s.IOErrors, NetworkErrors: s.NetworkErrors,
		FatalErrors: s.FatalErrors, PermErrors: s.PermErrors,
		IntegrityErrors: s.IntegrityErrors,
		Duration:        end.Sub(s.start),
	}
}
