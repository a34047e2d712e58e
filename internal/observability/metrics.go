package observability

import (
	"sync"
)

// Metrics provides basic in-memory counters for lifecycle actions.
type Metrics struct {
	mu            sync.Mutex
	actionCount   map[string]int64
	errorCount    map[string]int64
	degradedCount map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		actionCount:   make(map[string]int64),
		errorCount:    make(map[string]int64),
		degradedCount: make(map[string]int64),
	}
}

// RecordAction increments the counter for a completed lifecycle action.
func (m *Metrics) RecordAction(action string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actionCount[action]++
}

// RecordError increments the counter for a failed action by error code.
func (m *Metrics) RecordError(action, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[action+"|"+code]++
}

// RecordDeliveryDegraded increments the counter for a transcript delivery
// target that failed.
func (m *Metrics) RecordDeliveryDegraded(target string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degradedCount[target]++
}

// Snapshot returns a copy of all counters, keyed by counter family.
func (m *Metrics) Snapshot() map[string]map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]map[string]int64{
		"actions":           copyCounters(m.actionCount),
		"errors":            copyCounters(m.errorCount),
		"delivery_degraded": copyCounters(m.degradedCount),
	}
}

func copyCounters(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
