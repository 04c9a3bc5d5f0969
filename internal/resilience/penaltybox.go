// Package resilience implements the three cross-cutting resilience
// primitives used by the Executor: a per-key penalty box with
// exponential backoff and dead-letter routing, a lock-free backpressure
// guard, and an advisory health monitor.
package resilience

import (
	"sync"
	"time"
)

// PenaltyConfig tunes the penalty box's backoff curve and dead-letter
// threshold.
type PenaltyConfig struct {
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	MaxPenalties  uint32
}

// DefaultPenaltyConfig matches the defaults observed across the resilience
// test suite: 5s initial delay, 300s cap, 2x backoff, 5 penalties before
// dead-letter.
func DefaultPenaltyConfig() PenaltyConfig {
	return PenaltyConfig{
		InitialDelay:  5 * time.Second,
		MaxDelay:      300 * time.Second,
		BackoffFactor: 2.0,
		MaxPenalties:  5,
	}
}

// PenaltyRecord is the per-key penalty state.
type PenaltyRecord struct {
	PenaltyCount uint32
	RetryAfter   time.Time
	LastError    string
	CurrentDelay time.Duration
}

// PenaltyStats is a point-in-time snapshot of the box's contents.
type PenaltyStats struct {
	TotalTracked int
	Penalized    int
	Eligible     int
	Exhausted    int
}

// PenaltyBox tracks penalized keys (chunk hash, file path, or a composite
// key such as "hash:destination") and decides retry eligibility.
type PenaltyBox struct {
	mu      sync.Mutex
	config  PenaltyConfig
	records map[string]*PenaltyRecord
}

// NewPenaltyBox constructs a box with the given configuration.
func NewPenaltyBox(config PenaltyConfig) *PenaltyBox {
	return &PenaltyBox{config: config, records: make(map[string]*PenaltyRecord)}
}

// Penalize records a transient failure for key. It returns true when the
// key has exhausted its maximum penalties (route to dead-letter), false
// when it will be retried after the computed delay.
func (b *PenaltyBox) Penalize(key, errMsg string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.records[key]
	if !ok {
		record = &PenaltyRecord{RetryAfter: time.Now(), CurrentDelay: b.config.InitialDelay}
		b.records[key] = record
	}

	record.PenaltyCount++
	record.LastError = errMsg

	if record.PenaltyCount > b.config.MaxPenalties {
		return true
	}

	var delay time.Duration
	if record.PenaltyCount == 1 {
		delay = b.config.InitialDelay
	} else {
		factor := pow(b.config.BackoffFactor, int(record.PenaltyCount)-1)
		delayMs := float64(b.config.InitialDelay.Milliseconds()) * factor
		delay = time.Duration(delayMs) * time.Millisecond
		if delay > b.config.MaxDelay {
			delay = b.config.MaxDelay
		}
	}

	record.CurrentDelay = delay
	record.RetryAfter = time.Now().Add(delay)
	return false
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

// IsEligible reports whether key's penalty period has expired. A never-seen
// key is always eligible.
func (b *PenaltyBox) IsEligible(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	record, ok := b.records[key]
	if !ok {
		return true
	}
	return !time.Now().Before(record.RetryAfter)
}

// GetRecord returns a copy of key's record, if tracked.
func (b *PenaltyBox) GetRecord(key string) (PenaltyRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	record, ok := b.records[key]
	if !ok {
		return PenaltyRecord{}, false
	}
	return *record, true
}

// Clear removes key's record (on success or after dead-lettering).
func (b *PenaltyBox) Clear(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.records, key)
}

// ClearEligible removes every record whose penalty period has expired.
func (b *PenaltyBox) ClearEligible() {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	for k, r := range b.records {
		if !now.Before(r.RetryAfter) {
			delete(b.records, k)
		}
	}
}

// PenalizedKeys returns every key currently ineligible for retry.
func (b *PenaltyBox) PenalizedKeys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	var keys []string
	for k, r := range b.records {
		if now.Before(r.RetryAfter) {
			keys = append(keys, k)
		}
	}
	return keys
}

// ExhaustedKeys returns every key that has exceeded max penalties.
func (b *PenaltyBox) ExhaustedKeys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var keys []string
	for k, r := range b.records {
		if r.PenaltyCount > b.config.MaxPenalties {
			keys = append(keys, k)
		}
	}
	return keys
}

// Len returns the number of tracked keys.
func (b *PenaltyBox) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// IsEmpty reports whether no keys are tracked.
func (b *PenaltyBox) IsEmpty() bool { return b.Len() == 0 }

// Stats returns a point-in-time snapshot of box contents.
func (b *PenaltyBox) Stats() PenaltyStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	stats := PenaltyStats{TotalTracked: len(b.records)}
	for _, r := range b.records {
		switch {
		case r.PenaltyCount > b.config.MaxPenalties:
			stats.Exhausted++
		case now.Before(r.RetryAfter):
			stats.Penalized++
		default:
			stats.Eligible++
		}
	}
	return stats
}
