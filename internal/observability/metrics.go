package observability

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for an orbit job run.
type Metrics struct {
	// Job metrics
	JobsTotal        *prometheus.CounterVec
	JobsActive       prometheus.Gauge
	JobDuration      prometheus.Histogram
	BytesCopiedTotal *prometheus.CounterVec
	ChunksEmittedTotal     prometheus.Counter
	ChunksDeduplicated     prometheus.Counter
	TasksRetriedTotal      *prometheus.CounterVec

	// Backend metrics
	BackendOperationsTotal   *prometheus.CounterVec
	BackendConnectionsActive prometheus.Gauge
	BackendOperationDuration prometheus.Histogram
	PenaltyBoxEntriesActive  prometheus.Gauge
	ParityReconstructionsTotal        prometheus.Counter
	ParityReconstructionFailuresTotal prometheus.Counter
	ParityShardsWrittenTotal          prometheus.Counter

	// Signature/delta metrics
	SignatureOperationsTotal *prometheus.CounterVec
	SignatureOperationDuration prometheus.Histogram
	ChecksumVerificationsTotal *prometheus.CounterVec

	// Resume/container metrics
	CheckpointPersistDuration prometheus.Histogram
	ResumeStoreOperationsTotal *prometheus.CounterVec
	ContainerSpaceUsedBytes   prometheus.Gauge

	// Active jobs counter (atomic for thread-safety)
	activeJobs int64
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		// Job metrics
		JobsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbit_jobs_total",
				Help: "Total replication jobs initiated",
			},
			[]string{"status"},
		),

		JobsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "orbit_jobs_active",
				Help: "Currently active replication jobs",
			},
		),

		JobDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "orbit_job_duration_seconds",
				Help:    "Job completion time distribution",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800},
			},
		),

		BytesCopiedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbit_bytes_copied_total",
				Help: "Total bytes copied",
			},
			[]string{"direction"},
		),

		ChunksEmittedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "orbit_chunks_emitted_total",
				Help: "Total chunk boundaries emitted by the CDC chunker",
			},
		),

		ChunksDeduplicated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "orbit_chunks_deduplicated_total",
				Help: "Chunks skipped because an identical chunk already existed at the destination",
			},
		),

		TasksRetriedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbit_tasks_retried_total",
				Help: "Tasks requiring a retry attempt",
			},
			[]string{"reason"},
		),

		// Backend metrics
		BackendOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbit_backend_operations_total",
				Help: "Backend operation attempts",
			},
			[]string{"op", "result"},
		),

		BackendConnectionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "orbit_backend_connections_active",
				Help: "Active remote backend connections",
			},
		),

		BackendOperationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "orbit_backend_operation_duration_seconds",
				Help:    "Backend operation latency",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),

		PenaltyBoxEntriesActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "orbit_penalty_box_entries_active",
				Help: "Destinations currently held in the penalty box",
			},
		),

		// Parity metrics
		ParityReconstructionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "orbit_parity_reconstructions_total",
				Help: "Containers reconstructed via Reed-Solomon parity",
			},
		),

		ParityReconstructionFailuresTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "orbit_parity_reconstruction_failures_total",
				Help: "Failed parity reconstructions",
			},
		),

		ParityShardsWrittenTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "orbit_parity_shards_written_total",
				Help: "Parity shards written to container storage",
			},
		),

		// Signature/delta metrics
		SignatureOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbit_signature_operations_total",
				Help: "Delta signature operations performed",
			},
			[]string{"operation"},
		),

		SignatureOperationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "orbit_signature_operation_duration_seconds",
				Help:    "Signature/delta operation latency",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
		),

		ChecksumVerificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbit_checksum_verifications_total",
				Help: "Post-copy checksum verifications",
			},
			[]string{"result"},
		),

		// Resume/container metrics
		CheckpointPersistDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "orbit_checkpoint_persist_duration_seconds",
				Help:    "Resume checkpoint persistence latency",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0},
			},
		),

		ResumeStoreOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbit_resume_store_operations_total",
				Help: "Resume store operation count",
			},
			[]string{"operation", "result"},
		),

		ContainerSpaceUsedBytes: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "orbit_container_space_used_bytes",
				Help: "Disk space used by container storage",
			},
		),
	}

	return m
}

// RecordJobStart increments active job counters.
func (m *Metrics) RecordJobStart() {
	atomic.AddInt64(&m.activeJobs, 1)
	m.JobsActive.Set(float64(atomic.LoadInt64(&m.activeJobs)))
}

// RecordJobComplete records job completion metrics.
func (m *Metrics) RecordJobComplete(success bool, durationSeconds float64) {
	atomic.AddInt64(&m.activeJobs, -1)
	m.JobsActive.Set(float64(atomic.LoadInt64(&m.activeJobs)))

	status := "success"
	if !success {
		status = "failure"
	}

	m.JobsTotal.WithLabelValues(status).Inc()
	m.JobDuration.Observe(durationSeconds)
}

// RecordChunkEmitted updates metrics for an emitted chunk.
func (m *Metrics) RecordChunkEmitted(bytes int) {
	m.ChunksEmittedTotal.Inc()
	m.BytesCopiedTotal.WithLabelValues("literal").Add(float64(bytes))
}

// RecordChunkDeduplicated updates metrics for a chunk skipped via delta match.
func (m *Metrics) RecordChunkDeduplicated(bytes int) {
	m.ChunksDeduplicated.Inc()
	m.BytesCopiedTotal.WithLabelValues("deduplicated").Add(float64(bytes))
}

// RecordTaskRetry increments retry counters.
func (m *Metrics) RecordTaskRetry(reason string) {
	m.TasksRetriedTotal.WithLabelValues(reason).Inc()
}

// RecordBackendOperation logs a backend operation attempt.
func (m *Metrics) RecordBackendOperation(op string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.BackendOperationsTotal.WithLabelValues(op, result).Inc()
}

// RecordBackendConnectionOpen marks a remote backend connection as active.
func (m *Metrics) RecordBackendConnectionOpen() {
	m.BackendConnectionsActive.Inc()
}

// RecordBackendConnectionClose updates metrics for a closed remote backend
// connection.
func (m *Metrics) RecordBackendConnectionClose(durationSeconds float64) {
	m.BackendConnectionsActive.Dec()
	m.BackendOperationDuration.Observe(durationSeconds)
}

// RecordSignatureOperation records signature/delta operation duration.
func (m *Metrics) RecordSignatureOperation(operation string, durationSeconds float64) {
	m.SignatureOperationsTotal.WithLabelValues(operation).Inc()
	m.SignatureOperationDuration.Observe(durationSeconds)
}

// RecordChecksumVerification increments checksum verification counters.
func (m *Metrics) RecordChecksumVerification(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.ChecksumVerificationsTotal.WithLabelValues(result).Inc()
}

// RecordParityReconstruction updates parity reconstruction counters.
func (m *Metrics) RecordParityReconstruction(success bool) {
	if success {
		m.ParityReconstructionsTotal.Inc()
	} else {
		m.ParityReconstructionFailuresTotal.Inc()
	}
}

// SetPenaltyBoxEntries sets the active penalty box entry gauge.
func (m *Metrics) SetPenaltyBoxEntries(count int) {
	m.PenaltyBoxEntriesActive.Set(float64(count))
}

// Handler exposes the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
