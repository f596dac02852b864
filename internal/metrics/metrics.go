package metrics

import (
	"sync"
)

// Metrics tracks report queue counters
type Metrics struct {
	mu sync.RWMutex

	reportsCreated   int64
	reportsRetried   int64
	reportsDeleted   int64
	downloads        int64
	dispatchFailures int64
	reportsCompleted int64
	reportsFailed    int64
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncrementCreated increments the created reports counter
func (m *Metrics) IncrementCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportsCreated++
}

// IncrementRetried increments the retried reports counter
func (m *Metrics) IncrementRetried() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportsRetried++
}

// IncrementDeleted increments the deleted reports counter
func (m *Metrics) IncrementDeleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportsDeleted++
}

// IncrementDownloads increments the download resolutions counter
func (m *Metrics) IncrementDownloads() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloads++
}

// IncrementDispatchFailures increments the failed worker notifications counter
func (m *Metrics) IncrementDispatchFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatchFailures++
}

// IncrementCompleted increments the completed reports counter
func (m *Metrics) IncrementCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportsCompleted++
}

// IncrementFailed increments the failed reports counter
func (m *Metrics) IncrementFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportsFailed++
}

// GetSnapshot returns a snapshot of all counters
func (m *Metrics) GetSnapshot() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]int64{
		"reports_created":   m.reportsCreated,
		"reports_retried":   m.reportsRetried,
		"reports_deleted":   m.reportsDeleted,
		"downloads":         m.downloads,
		"dispatch_failures": m.dispatchFailures,
		"reports_completed": m.reportsCompleted,
		"reports_failed":    m.reportsFailed,
	}
}
