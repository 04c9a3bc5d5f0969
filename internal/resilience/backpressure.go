package resilience

import (
	"sync"
	"sync/atomic"
)

// BackpressureConfig sets the two static thresholds a guard enforces.
type BackpressureConfig struct {
	MaxObjectCount uint64
	MaxByteSize    uint64
}

// DefaultBackpressureConfig matches the defaults observed across the
// resilience test suite: 10,000 objects, 1 GiB.
func DefaultBackpressureConfig() BackpressureConfig {
	return BackpressureConfig{MaxObjectCount: 10_000, MaxByteSize: 1 << 30}
}

// BackpressureState is a point-in-time read of a guard's counters.
type BackpressureState struct {
	ObjectCount        uint64
	ByteSize           uint64
	IsBackpressured    bool
	ObjectUtilization  float64
	ByteUtilization    float64
}

// BackpressureGuard tracks queue depth for one named destination using two
// atomic counters; no lock is required for enqueue/dequeue accounting.
type BackpressureGuard struct {
	name        string
	config      BackpressureConfig
	objectCount atomic.Uint64
	byteSize    atomic.Uint64
}

// NewBackpressureGuard constructs a guard for a named queue.
func NewBackpressureGuard(name string, config BackpressureConfig) *BackpressureGuard {
	return &BackpressureGuard{name: name, config: config}
}

// CanAccept reports whether neither threshold is currently breached.
func (g *BackpressureGuard) CanAccept() bool {
	return g.objectCount.Load() < g.config.MaxObjectCount && g.byteSize.Load() < g.config.MaxByteSize
}

// RecordEnqueue accounts for count items totalling bytes bytes being added.
func (g *BackpressureGuard) RecordEnqueue(count, bytes uint64) {
	g.objectCount.Add(count)
	g.byteSize.Add(bytes)
}

// RecordDequeue accounts for count items totalling bytes bytes being
// removed, using saturating subtraction so the counters never go negative.
func (g *BackpressureGuard) RecordDequeue(count, bytes uint64) {
	saturatingSub(&g.objectCount, count)
	saturatingSub(&g.byteSize, bytes)
}

func saturatingSub(counter *atomic.Uint64, n uint64) {
	for {
		v := counter.Load()
		next := uint64(0)
		if v > n {
			next = v - n
		}
		if counter.CompareAndSwap(v, next) {
			return
		}
	}
}

// State returns a snapshot of the guard's counters and derived thresholds.
func (g *BackpressureGuard) State() BackpressureState {
	count := g.objectCount.Load()
	size := g.byteSize.Load()
	return BackpressureState{
		ObjectCount:       count,
		ByteSize:          size,
		IsBackpressured:   count >= g.config.MaxObjectCount || size >= g.config.MaxByteSize,
		ObjectUtilization: float64(count) / float64(g.config.MaxObjectCount),
		ByteUtilization:   float64(size) / float64(g.config.MaxByteSize),
	}
}

// Name returns the guard's queue identifier.
func (g *BackpressureGuard) Name() string { return g.name }

// Reset zeroes both counters.
func (g *BackpressureGuard) Reset() {
	g.objectCount.Store(0)
	g.byteSize.Store(0)
}

// BackpressureRegistry aggregates named guards, one per active destination,
// so the Executor can fan out across multiple destinations (e.g. mirrored
// replication) while respecting each one's backpressure independently.
type BackpressureRegistry struct {
	mu     sync.RWMutex
	guards map[string]*BackpressureGuard
}

// NewBackpressureRegistry constructs an empty registry.
func NewBackpressureRegistry() *BackpressureRegistry {
	return &BackpressureRegistry{guards: make(map[string]*BackpressureGuard)}
}

// Register adds or replaces the guard for its name.
func (r *BackpressureRegistry) Register(guard *BackpressureGuard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guards[guard.Name()] = guard
}

// Get returns the guard for name, if registered.
func (r *BackpressureRegistry) Get(name string) (*BackpressureGuard, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.guards[name]
	return g, ok
}

// AvailableDestinations returns every guard currently accepting work.
func (r *BackpressureRegistry) AvailableDestinations() []*BackpressureGuard {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*BackpressureGuard
	for _, g := range r.guards {
		if g.CanAccept() {
			out = append(out, g)
		}
	}
	return out
}

// AllStates returns every guard's name and current state.
func (r *BackpressureRegistry) AllStates() map[string]BackpressureState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]BackpressureState, len(r.guards))
	for name, g := range r.guards {
		out[name] = g.State()
	}
	return out
}

// AnyBackpressured reports whether at least one guard is backpressured.
func (r *BackpressureRegistry) AnyBackpressured() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, g := range r.guards {
		if g.State().IsBackpressured {
			return true
		}
	}
	return false
}

// Remove deletes name's guard, if present.
func (r *BackpressureRegistry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.guards, name)
}
