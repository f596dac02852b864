package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountersStartAtZero(t *testing.T) {
	m := NewMetrics()
	snapshot := m.GetSnapshot()
	for key, value := range snapshot {
		assert.Equal(t, int64(0), value, "counter %s", key)
	}
}

func TestSnapshotReflectsIncrements(t *testing.T) {
	m := NewMetrics()
	m.IncrementCreated()
	m.IncrementCreated()
	m.IncrementRetried()
	m.IncrementDeleted()
	m.IncrementDownloads()
	m.IncrementDispatchFailures()

	snapshot := m.GetSnapshot()
	assert.Equal(t, int64(2), snapshot["reports_created"])
	assert.Equal(t, int64(1), snapshot["reports_retried"])
	assert.Equal(t, int64(1), snapshot["reports_deleted"])
	assert.Equal(t, int64(1), snapshot["downloads"])
	assert.Equal(t, int64(1), snapshot["dispatch_failures"])
	assert.Equal(t, int64(0), snapshot["reports_completed"])
}

func TestConcurrentIncrements(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementCreated()
			m.IncrementDownloads()
		}()
	}
	wg.Wait()

	snapshot := m.GetSnapshot()
	assert.Equal(t, int64(50), snapshot["reports_created"])
	assert.Equal(t, int64(50), snapshot["downloads"])
}
