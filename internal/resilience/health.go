package resilience

import "time"

// HealthConfig tunes the monitor's thresholds.
type HealthConfig struct {
	DiskCriticalPct    float64
	DiskWarningPct     float64
	ThroughputFloorBps uint64
	CheckIntervalSecs  uint64
}

// DefaultHealthConfig matches the defaults observed across the resilience
// test suite.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		DiskCriticalPct:    95.0,
		DiskWarningPct:     85.0,
		ThroughputFloorBps: 100_000,
		CheckIntervalSecs:  30,
	}
}

// HealthSample is one point-in-time measurement fed to the monitor.
type HealthSample struct {
	DiskUsedPct        float64
	ThroughputBps      uint64
	MemoryUsedPct      float64
	ActiveErrors       uint32
	DiskAvailableBytes *uint64
}

// AdvisoryKind discriminates the Advisory variants.
type AdvisoryKind int

const (
	AdvisoryHealthy AdvisoryKind = iota
	AdvisoryDiskCritical
	AdvisoryDiskWarning
	AdvisoryDiskExhaustionPredicted
	AdvisoryThroughputLow
	AdvisoryErrorRateHigh
)

// Advisory is one finding from a health check.
type Advisory struct {
	Kind             AdvisoryKind
	UsedPct          float64
	SecondsRemaining float64
	CurrentBps       uint64
	FloorBps         uint64
	Errors           uint32
	WindowSecs       uint64
}

type diskSample struct {
	at        time.Time
	available uint64
}

// HealthMonitor turns a stream of HealthSamples into advisories, tracking a
// bounded history of disk-available readings for linear fill-rate
// prediction.
type HealthMonitor struct {
	config        HealthConfig
	diskHistory   []diskSample
	maxHistory    int
	checkCount    uint64
	advisoryCount uint64
}

// NewHealthMonitor constructs a monitor with a 60-sample disk history (about
// 30 minutes at the default 30-second check interval).
func NewHealthMonitor(config HealthConfig) *HealthMonitor {
	return &HealthMonitor{config: config, maxHistory: 60}
}

// Check processes one sample and returns its advisories. A fully healthy
// sample returns a single AdvisoryHealthy entry.
func (m *HealthMonitor) Check(sample HealthSample) []Advisory {
	m.checkCount++
	var advisories []Advisory

	switch {
	case sample.DiskUsedPct >= m.config.DiskCriticalPct:
		advisories = append(advisories, Advisory{Kind: AdvisoryDiskCritical, UsedPct: sample.DiskUsedPct})
	case sample.DiskUsedPct >= m.config.DiskWarningPct:
		advisories = append(advisories, Advisory{Kind: AdvisoryDiskWarning, UsedPct: sample.DiskUsedPct})
	}

	if sample.DiskAvailableBytes != nil {
		m.diskHistory = append(m.diskHistory, diskSample{at: time.Now(), available: *sample.DiskAvailableBytes})
		for len(m.diskHistory) > m.maxHistory {
			m.diskHistory = m.diskHistory[1:]
		}
		if prediction, ok := m.predictDiskExhaustion(); ok && prediction > 0 && prediction < 3600 {
			advisories = append(advisories, Advisory{Kind: AdvisoryDiskExhaustionPredicted, SecondsRemaining: prediction})
		}
	}

	if sample.ThroughputBps > 0 && sample.ThroughputBps < m.config.ThroughputFloorBps {
		advisories = append(advisories, Advisory{
			Kind:       AdvisoryThroughputLow,
			CurrentBps: sample.ThroughputBps,
			FloorBps:   m.config.ThroughputFloorBps,
		})
	}

	if sample.ActiveErrors > 5 {
		advisories = append(advisories, Advisory{
			Kind:       AdvisoryErrorRateHigh,
			Errors:     sample.ActiveErrors,
			WindowSecs: m.config.CheckIntervalSecs,
		})
	}

	if len(advisories) == 0 {
		return []Advisory{{Kind: AdvisoryHealthy}}
	}
	m.advisoryCount += uint64(len(advisories))
	return advisories
}

// predictDiskExhaustion applies linear regression over the disk-availability
// history, requiring at least 3 samples spanning at least 10 seconds with a
// positive consumption rate.
func (m *HealthMonitor) predictDiskExhaustion() (float64, bool) {
	if len(m.diskHistory) < 3 {
		return 0, false
	}
	first := m.diskHistory[0]
	last := m.diskHistory[len(m.diskHistory)-1]

	elapsed := last.at.Sub(first.at).Seconds()
	if elapsed < 10.0 {
		return 0, false
	}

	var consumed uint64
	if first.available > last.available {
		consumed = first.available - last.available
	}
	if consumed == 0 {
		return 0, false
	}

	rate := float64(consumed) / elapsed
	remaining := float64(last.available) / rate
	return remaining, true
}

// HealthMonitorStats reports cumulative monitor activity.
type HealthMonitorStats struct {
	CheckCount    uint64
	AdvisoryCount uint64
}

func (m *HealthMonitor) Stats() HealthMonitorStats {
	return HealthMonitorStats{CheckCount: m.checkCount, AdvisoryCount: m.advisoryCount}
}

// Config returns the monitor's configuration.
func (m *HealthMonitor) Config() HealthConfig { return m.config }
