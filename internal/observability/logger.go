package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog for structured logging.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a new structured logger.
func NewLogger(service, version string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339

	logger := zerolog.New(output).With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Str("host", getHostname()).
		Logger()

	return &Logger{
		logger: logger,
	}
}

// WithJob adds job_id context to logger (one batch run of the planner and
// executor).
func (l *Logger) WithJob(jobID string) *Logger {
	return &Logger{
		logger: l.logger.With().Str("job_id", jobID).Logger(),
	}
}

// WithDestination adds destination_id context to logger (the backpressure
// registry's naming for a copy target).
func (l *Logger) WithDestination(destID string) *Logger {
	return &Logger{
		logger: l.logger.With().Str("destination_id", destID).Logger(),
	}
}

// WithFile adds file context to logger.
func (l *Logger) WithFile(filePath string, fileSize int64) *Logger {
	return &Logger{
		logger: l.logger.With().
			Str("file_path", filePath).
			Int64("file_size", fileSize).
			Logger(),
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

// Info logs an info message.
func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

// Error logs an error message.
func (l *Logger) Error(err error, msg string) {
	l.logger.Error().Err(err).Msg(msg)
}

// Fatal logs a fatal message and exits.
func (l *Logger) Fatal(err error, msg string) {
	l.logger.Fatal().Err(err).Msg(msg)
}

// JobStarted logs a planner/executor batch starting.
func (l *Logger) JobStarted(jobID, srcPath, dstPath string, totalTasks int) {
	l.logger.Info().
		Str("job_id", jobID).
		Str("src_path", srcPath).
		Str("dst_path", dstPath).
		Int("total_tasks", totalTasks).
		Msg("job started")
}

// ChunkEmitted logs one chunk boundary found by the chunker.
func (l *Logger) ChunkEmitted(filePath string, chunkIndex int, chunkSize int, hash string) {
	l.logger.Debug().
		Str("file_path", filePath).
		Int("chunk_index", chunkIndex).
		Int("chunk_size", chunkSize).
		Str("hash", hash).
		Msg("chunk emitted")
}

// DeltaApplied logs one delta instruction batch applied to a destination.
func (l *Logger) DeltaApplied(filePath string, bytesCopied, bytesLiteral int64) {
	l.logger.Debug().
		Str("file_path", filePath).
		Int64("bytes_copied_from_dest", bytesCopied).
		Int64("bytes_literal", bytesLiteral).
		Msg("delta applied")
}

// JobProgress logs batch progress.
func (l *Logger) JobProgress(jobID string, completedTasks, totalTasks int, bytesCopied int64, elapsed time.Duration) {
	progress := float64(completedTasks) / float64(totalTasks) * 100.0

	l.logger.Info().
		Str("job_id", jobID).
		Int("completed_tasks", completedTasks).
		Int("total_tasks", totalTasks).
		Float64("progress_percent", progress).
		Int64("bytes_copied", bytesCopied).
		Float64("elapsed_seconds", elapsed.Seconds()).
		Msg("job progress")
}

// JobCompleted logs batch completion.
func (l *Logger) JobCompleted(jobID string, filesCopied, filesFailed uint64, duration time.Duration) {
	l.logger.Info().
		Str("job_id", jobID).
		Uint64("files_copied", filesCopied).
		Uint64("files_failed", filesFailed).
		Float64("duration_seconds", duration.Seconds()).
		Msg("job completed")
}

// TaskRetried logs a task's retry attempt.
func (l *Logger) TaskRetried(jobID, path string, attempt uint32, errMsg string) {
	l.logger.Warn().
		Str("job_id", jobID).
		Str("path", path).
		Uint32("attempt", attempt).
		Str("error", errMsg).
		Msg("task retried")
}

// TaskDeadLettered logs a task whose penalty box entry exhausted its
// retry budget.
func (l *Logger) TaskDeadLettered(jobID, key string, penaltyCount uint32) {
	l.logger.Error().
		Str("job_id", jobID).
		Str("key", key).
		Uint32("penalty_count", penaltyCount).
		Msg("task dead-lettered")
}

// ContainerRotated logs a container pool rotation.
func (l *Logger) ContainerRotated(previousID, newID string, bytesWritten uint64) {
	l.logger.Info().
		Str("previous_container", previousID).
		Str("new_container", newID).
		Uint64("bytes_written", bytesWritten).
		Msg("container rotated")
}

// AdvisoryRaised logs a health monitor advisory.
func (l *Logger) AdvisoryRaised(kind string, detail string) {
	l.logger.Warn().
		Str("advisory", kind).
		Str("detail", detail).
		Msg("health advisory raised")
}

// Helper function to get hostname.
func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
