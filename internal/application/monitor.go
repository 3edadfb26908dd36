package application

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/OliveiraNt/maned-mirror/internal/domain"
)

// Monitor accumulates engine counters and publishes them as metrics. Snapshot is safe to call
// from any goroutine.
type Monitor struct {
	mu      sync.RWMutex
	status  domain.Status
	metrics *engineMetrics
}

// NewMonitor creates a monitor for the engine instance id using the global meter provider.
func NewMonitor(instanceID string) *Monitor {
	return newMonitor(instanceID, nil)
}

func newMonitor(instanceID string, provider metric.MeterProvider) *Monitor {
	return &Monitor{
		status: domain.Status{
			InstanceID:       instanceID,
			Phase:            domain.PhaseIdle,
			StartedAt:        time.Now(),
			ReplicatedTopics: []string{},
		},
		metrics: newEngineMetrics(provider, instanceID),
	}
}

// Snapshot returns a copy of the current status.
func (m *Monitor) Snapshot() domain.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.status
	s.ReplicatedTopics = append([]string(nil), m.status.ReplicatedTopics...)
	return s
}

func (m *Monitor) setPhase(p domain.Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Phase = p
}

func (m *Monitor) cycleStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Cycles++
	m.status.Phase = domain.PhaseResetting
	m.status.ReplicatedTopics = []string{}
	m.metrics.add(m.metrics.cycles, 1)
	m.metrics.topics.Record(context.Background(), 0, m.metrics.attrs)
}

func (m *Monitor) restartRequested() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Restarts++
	m.metrics.add(m.metrics.restarts, 1)
}

func (m *Monitor) failed(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Failures++
	m.status.Phase = domain.PhaseFailed
	m.status.LastError = err.Error()
	m.status.LastErrorAt = time.Now()
	m.metrics.add(m.metrics.failures, 1)
}

func (m *Monitor) sliceCommitted(forwarded, skipped int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Forwarded += int64(forwarded)
	m.status.SkippedReplicas += int64(skipped)
	m.status.CommittedSlices++
	m.metrics.add(m.metrics.forwarded, forwarded)
	m.metrics.add(m.metrics.skipped, skipped)
	m.metrics.add(m.metrics.slices, 1)
}

func (m *Monitor) setTopics(topics domain.TopicSet) {
	sorted := topics.Sorted()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.ReplicatedTopics = sorted
	m.metrics.topics.Record(context.Background(), int64(len(sorted)), m.metrics.attrs)
}
