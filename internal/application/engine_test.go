package application

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OliveiraNt/maned-mirror/internal/domain"
	"github.com/OliveiraNt/maned-mirror/internal/testutil"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

func startEngine(t *testing.T, factory domain.ClientFactory, opts Options) *Engine {
	t.Helper()
	if opts.BatchCommitSize == 0 {
		opts.BatchCommitSize = 100
	}
	e, err := NewEngine(factory, opts)
	require.NoError(t, err)
	go e.Run(context.Background())
	t.Cleanup(func() {
		e.Stop()
		<-e.Stopped()
	})
	return e
}

func waitStopped(t *testing.T, e *Engine) {
	t.Helper()
	select {
	case <-e.Stopped():
	case <-time.After(waitFor):
		t.Fatal("engine did not stop")
	}
}

func subscribedTo(factory *testutil.FakeFactory, topics ...string) func() bool {
	return func() bool {
		c := factory.LastConsumer()
		return c != nil && assert.ObjectsAreEqual(topics, c.Subscribed())
	}
}

func TestNewEngineValidation(t *testing.T) {
	_, err := NewEngine(nil, Options{BatchCommitSize: 1})
	assert.ErrorIs(t, err, ErrNilFactory)

	factory := testutil.NewFakeFactory(testutil.NewFakeCluster(nil), testutil.NewFakeCluster(nil))
	_, err = NewEngine(factory, Options{BatchCommitSize: 0})
	assert.ErrorIs(t, err, ErrInvalidBatchCommitSize)
}

func TestEngineMirrorsEligibleTopics(t *testing.T) {
	source := testutil.NewFakeCluster(map[string]int32{"orders": 3, "audit": 1, "__consumer_offsets": 50})
	destination := testutil.NewFakeCluster(nil)
	factory := testutil.NewFakeFactory(source, destination)
	e := startEngine(t, factory, Options{SkipTopics: []string{"audit"}, BatchCommitSize: 2, InstanceID: "mirror-1"})

	require.Eventually(t, subscribedTo(factory, "orders"), waitFor, tick)
	factory.Feed.Push(
		msg("orders", 0, 1, `{"id":1}`),
		msg("orders", 1, 1, `{"id":2}`),
		msg("orders", 2, 1, string(Tag([]byte(`{"id":3}`)))),
	)

	require.Eventually(t, func() bool { return len(factory.Committed()) == 3 }, waitFor, tick)

	delivered := factory.Delivered()
	require.Len(t, delivered, 2)
	assert.Equal(t, int32(0), delivered[0].Partition)
	assert.Equal(t, int32(1), delivered[1].Partition)
	assert.Equal(t, `{"replica":true, "id":2}`, string(delivered[1].Value))

	assert.Equal(t, []testutil.CreatedTopic{{Name: "orders", Partitions: 3, ReplicationFactor: DestinationReplicationFactor}}, destination.Created())

	e.Stop()
	waitStopped(t, e)

	s := e.Status()
	assert.Equal(t, "mirror-1", s.InstanceID)
	assert.Equal(t, domain.PhaseStopped, s.Phase)
	assert.Equal(t, []string{"orders"}, s.ReplicatedTopics)
	assert.Equal(t, int64(1), s.Cycles)
	assert.Equal(t, int64(2), s.Forwarded)
	assert.Equal(t, int64(1), s.SkippedReplicas)
	assert.True(t, factory.LastConsumer().Closed())
}

func TestEngineRestartsOnNewTopicWithoutLosingBatch(t *testing.T) {
	source := testutil.NewFakeCluster(map[string]int32{"A": 1})
	destination := testutil.NewFakeCluster(nil)
	factory := testutil.NewFakeFactory(source, destination)
	e := startEngine(t, factory, Options{})

	require.Eventually(t, subscribedTo(factory, "A"), waitFor, tick)
	source.AddTopic("C", 2)
	factory.Feed.Push(msg("A", 0, 7, "a7"))

	require.Eventually(t, subscribedTo(factory, "A", "C"), waitFor, tick)
	require.Eventually(t, func() bool { return len(factory.Committed()) == 1 }, waitFor, tick)

	assert.Len(t, factory.Consumers(), 1, "a restart keeps the consumer")
	assert.Len(t, factory.Delivered(), 1)
	partitions, ok := destination.Partitions("C")
	require.True(t, ok)
	assert.Equal(t, int32(2), partitions)

	s := e.Status()
	assert.Equal(t, int64(1), s.Restarts)
	assert.Equal(t, int64(1), s.Cycles)
	assert.Equal(t, int64(0), s.Failures)
	assert.Equal(t, []string{"A", "C"}, s.ReplicatedTopics)
}

func TestEngineResetsAfterDeliveryFailure(t *testing.T) {
	source := testutil.NewFakeCluster(map[string]int32{"A": 1})
	factory := testutil.NewFakeFactory(source, testutil.NewFakeCluster(nil))
	factory.FailNextFlushes(1)
	e := startEngine(t, factory, Options{})

	require.Eventually(t, subscribedTo(factory, "A"), waitFor, tick)
	factory.Feed.Push(msg("A", 0, 1, "lost"))

	require.Eventually(t, func() bool { return len(factory.Consumers()) == 2 }, waitFor, tick)
	require.Eventually(t, subscribedTo(factory, "A"), waitFor, tick)
	assert.True(t, factory.Consumers()[0].Closed())

	factory.Feed.Push(msg("A", 0, 2, "kept"))
	require.Eventually(t, func() bool { return len(factory.Committed()) == 1 }, waitFor, tick)

	committed := factory.Committed()
	assert.Equal(t, int64(2), committed[0].Offset)

	s := e.Status()
	assert.Equal(t, int64(1), s.Failures)
	assert.Equal(t, int64(2), s.Cycles)
	assert.Contains(t, s.LastError, testutil.ErrFlush.Error())
	assert.Equal(t, domain.PhaseForwarding, s.Phase)
}

type panickyFactory struct {
	*testutil.FakeFactory
	panics atomic.Int32
}

type panickyCluster struct {
	*testutil.FakeCluster
	f *panickyFactory
}

func (c panickyCluster) ListTopics(ctx context.Context) (domain.TopicSet, error) {
	if c.f.panics.Add(-1) >= 0 {
		panic("metadata decoder exploded")
	}
	return c.FakeCluster.ListTopics(ctx)
}

func (f *panickyFactory) SourceCluster() (domain.Cluster, error) {
	return panickyCluster{FakeCluster: f.Source, f: f}, nil
}

func TestEngineRecoversFromPanic(t *testing.T) {
	factory := &panickyFactory{FakeFactory: testutil.NewFakeFactory(
		testutil.NewFakeCluster(map[string]int32{"A": 1}), testutil.NewFakeCluster(nil))}
	factory.panics.Store(1)
	e := startEngine(t, factory, Options{})

	require.Eventually(t, subscribedTo(factory.FakeFactory, "A"), waitFor, tick)

	s := e.Status()
	assert.Equal(t, int64(1), s.Failures)
	assert.Contains(t, s.LastError, ErrPanic.Error())
	assert.Contains(t, s.LastError, "metadata decoder exploded")
}

func TestEngineStopWhilePolling(t *testing.T) {
	factory := testutil.NewFakeFactory(testutil.NewFakeCluster(map[string]int32{"A": 1}), testutil.NewFakeCluster(nil))
	e := startEngine(t, factory, Options{})

	require.Eventually(t, subscribedTo(factory, "A"), waitFor, tick)
	e.Stop()
	e.Stop()
	waitStopped(t, e)

	assert.Equal(t, domain.PhaseStopped, e.Status().Phase)
	assert.True(t, factory.LastConsumer().Closed())
	assert.Equal(t, 1, factory.Source.Closed())
}

func TestEngineStopBeforeRun(t *testing.T) {
	factory := testutil.NewFakeFactory(testutil.NewFakeCluster(map[string]int32{"A": 1}), testutil.NewFakeCluster(nil))
	e, err := NewEngine(factory, Options{BatchCommitSize: 10})
	require.NoError(t, err)

	e.Stop()
	e.Run(context.Background())

	waitStopped(t, e)
	assert.Empty(t, factory.Consumers())
	assert.Equal(t, domain.PhaseStopped, e.Status().Phase)
}

func TestEngineStopsOnContextCancel(t *testing.T) {
	factory := testutil.NewFakeFactory(testutil.NewFakeCluster(map[string]int32{"A": 1}), testutil.NewFakeCluster(nil))
	e, err := NewEngine(factory, Options{BatchCommitSize: 10})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)

	require.Eventually(t, subscribedTo(factory, "A"), waitFor, tick)
	cancel()
	waitStopped(t, e)
	assert.Equal(t, int64(0), e.Status().Failures)
}
