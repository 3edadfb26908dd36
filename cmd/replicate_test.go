package cmd

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OliveiraNt/maned-mirror/internal/config"
	"github.com/OliveiraNt/maned-mirror/internal/domain"
	"github.com/OliveiraNt/maned-mirror/internal/testutil"
	"github.com/OliveiraNt/maned-mirror/internal/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	utils.SetLogLevel("error")
	m.Run()
}

type factoryRecorder struct {
	mu        sync.Mutex
	source    *testutil.FakeCluster
	factories []*testutil.FakeFactory
	configs   []config.FileConfig
}

func (r *factoryRecorder) build(cfg config.FileConfig) domain.ClientFactory {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := testutil.NewFakeFactory(r.source, testutil.NewFakeCluster(nil))
	r.factories = append(r.factories, f)
	r.configs = append(r.configs, cfg)
	return f
}

func (r *factoryRecorder) last() (*testutil.FakeFactory, config.FileConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.factories) == 0 {
		return nil, config.FileConfig{}
	}
	return r.factories[len(r.factories)-1], r.configs[len(r.configs)-1]
}

func (r *factoryRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.factories)
}

func testConfig() config.FileConfig {
	cfg := config.Default()
	cfg.Source.Brokers = []string{"source:9092"}
	cfg.Destination.Brokers = []string{"destination:9092"}
	return cfg
}

func TestSupervisorStatusBeforeRun(t *testing.T) {
	sup := NewSupervisor(testConfig(), "mirror-1", nil)

	st := sup.Status()
	assert.Equal(t, "mirror-1", st.InstanceID)
	assert.Equal(t, domain.PhaseIdle, st.Phase)
	assert.Equal(t, []string{"source:9092"}, st.SourceBrokers)
	assert.Equal(t, []string{"destination:9092"}, st.DestinationBrokers)
}

func TestSupervisorRunsAndStopsOnCancel(t *testing.T) {
	rec := &factoryRecorder{source: testutil.NewFakeCluster(map[string]int32{"orders": 2})}
	sup := NewSupervisor(testConfig(), "mirror-1", rec.build)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	require.Eventually(t, func() bool {
		return sup.Status().Phase == domain.PhaseForwarding
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"orders"}, sup.Status().ReplicatedTopics)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop")
	}
	assert.Equal(t, domain.PhaseStopped, sup.Status().Phase)
}

func TestSupervisorReload(t *testing.T) {
	rec := &factoryRecorder{source: testutil.NewFakeCluster(map[string]int32{"orders": 1, "audit": 1})}
	sup := NewSupervisor(testConfig(), "mirror-1", rec.build)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"audit", "orders"}, sup.Status().ReplicatedTopics)
	}, 2*time.Second, 10*time.Millisecond)

	next := testConfig()
	next.SkipTopics = []string{"audit"}
	next.Destination.Brokers = []string{"other:9092"}
	sup.Reload(next)

	require.Eventually(t, func() bool { return rec.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		st := sup.Status()
		return st.Phase == domain.PhaseForwarding && assert.ObjectsAreEqual([]string{"orders"}, st.ReplicatedTopics)
	}, 2*time.Second, 10*time.Millisecond)

	_, cfg := rec.last()
	assert.Equal(t, []string{"audit"}, cfg.SkipTopics)
	assert.Equal(t, []string{"other:9092"}, sup.Status().DestinationBrokers)

	cancel()
	require.NoError(t, <-done)
}

func TestSupervisorReloadKeepsLatest(t *testing.T) {
	sup := NewSupervisor(testConfig(), "mirror-1", nil)

	first := testConfig()
	first.GroupID = "first"
	second := testConfig()
	second.GroupID = "second"
	sup.Reload(first)
	sup.Reload(second)

	got := <-sup.reload
	assert.Equal(t, "second", got.GroupID)
}

func TestSupervisorInvalidConfig(t *testing.T) {
	rec := &factoryRecorder{source: testutil.NewFakeCluster(nil)}
	cfg := testConfig()
	cfg.BatchCommitSize = 0
	sup := NewSupervisor(cfg, "mirror-1", rec.build)

	assert.Error(t, sup.Run(context.Background()))
}
