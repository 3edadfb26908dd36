// Package testutil provides in-memory broker doubles shared by package tests.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/OliveiraNt/maned-mirror/internal/domain"
)

// ErrFlush is returned by a FakeProducer flush that was told to fail.
var ErrFlush = errors.New("fake flush failure")

// Record is a message delivered to the destination.
type Record struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int32
}

// CreatedTopic records a FakeCluster.CreateTopic call.
type CreatedTopic struct {
	Name              string
	Partitions        int32
	ReplicationFactor int16
}

// FakeCluster is an in-memory domain.Cluster.
type FakeCluster struct {
	mu      sync.Mutex
	topics  map[string]int32
	created []CreatedTopic
	listErr error
	closed  int
}

// NewFakeCluster creates a cluster holding topics (name to partition count).
func NewFakeCluster(topics map[string]int32) *FakeCluster {
	c := &FakeCluster{topics: map[string]int32{}}
	for name, p := range topics {
		c.topics[name] = p
	}
	return c
}

func (c *FakeCluster) AddTopic(name string, partitions int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics[name] = partitions
}

func (c *FakeCluster) Partitions(name string) (int32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.topics[name]
	return p, ok
}

func (c *FakeCluster) Created() []CreatedTopic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CreatedTopic(nil), c.created...)
}

// SetListErr makes ListTopics fail with err until reset with nil.
func (c *FakeCluster) SetListErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listErr = err
}

func (c *FakeCluster) Closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *FakeCluster) ListTopics(_ context.Context) (domain.TopicSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := make(domain.TopicSet, len(c.topics))
	for name := range c.topics {
		out.Add(name)
	}
	return out, nil
}

func (c *FakeCluster) PartitionCount(_ context.Context, topic string) (int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.topics[topic]
	if !ok {
		return 0, errors.New("unknown topic " + topic)
	}
	return p, nil
}

func (c *FakeCluster) CreateTopic(_ context.Context, topic string, partitions int32, rf int16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.topics[topic]; !ok {
		c.topics[topic] = partitions
	}
	c.created = append(c.created, CreatedTopic{Name: topic, Partitions: partitions, ReplicationFactor: rf})
	return nil
}

func (c *FakeCluster) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
}

// Feed is a queue of batches shared by every consumer of a FakeFactory.
type Feed struct {
	mu      sync.Mutex
	batches []domain.Batch
	notify  chan struct{}
}

func NewFeed() *Feed {
	return &Feed{notify: make(chan struct{}, 1)}
}

// Push appends a batch for the next Poll.
func (f *Feed) Push(msgs ...domain.Message) {
	f.mu.Lock()
	f.batches = append(f.batches, domain.Batch{Messages: msgs})
	f.mu.Unlock()
	select {
	case f.notify <- struct{}{}:
	default:
	}
}

// Pending returns the number of batches not polled yet.
func (f *Feed) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *Feed) next() (domain.Batch, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		return domain.Batch{}, false
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, true
}

// FakeConsumer is an in-memory domain.Consumer reading from a Feed.
type FakeConsumer struct {
	factory *FakeFactory

	mu         sync.Mutex
	subscribed []string
	marks      []domain.Message
	stopOnce   sync.Once
	stopCh     chan struct{}
	closed     bool
}

func (c *FakeConsumer) Subscribe(topic string, _ bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribed = append(c.subscribed, topic)
	return nil
}

func (c *FakeConsumer) Subscribed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.subscribed...)
}

func (c *FakeConsumer) Poll(ctx context.Context) (domain.Batch, error) {
	for {
		select {
		case <-c.stopCh:
			return domain.Batch{}, domain.ErrConsumerStopped
		default:
		}
		if b, ok := c.factory.Feed.next(); ok {
			c.factory.event("poll")
			return b, nil
		}
		select {
		case <-c.stopCh:
		case <-ctx.Done():
			return domain.Batch{}, ctx.Err()
		case <-c.factory.Feed.notify:
		}
	}
}

func (c *FakeConsumer) MarkProcessed(m domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.marks = append(c.marks, m)
}

func (c *FakeConsumer) CommitOffsets(_ context.Context) error {
	c.mu.Lock()
	marks := c.marks
	c.marks = nil
	c.mu.Unlock()
	c.factory.commit(marks)
	return nil
}

func (c *FakeConsumer) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *FakeConsumer) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *FakeConsumer) Close() {
	c.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// FakeProducer is an in-memory domain.Producer delivering into its FakeFactory.
type FakeProducer struct {
	factory *FakeFactory

	mu      sync.Mutex
	pending []Record
	closed  bool
}

func (p *FakeProducer) Enqueue(key, value []byte, topic string, partition int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, Record{Key: key, Value: value, Topic: topic, Partition: partition})
}

func (p *FakeProducer) Flush(_ context.Context) error {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()
	return p.factory.deliver(pending)
}

func (p *FakeProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// FakeFactory is a domain.ClientFactory backed by two FakeClusters and a shared Feed. It keeps
// a journal of polls, flushes and commits so tests can assert their ordering.
type FakeFactory struct {
	Source      *FakeCluster
	Destination *FakeCluster
	Feed        *Feed

	mu          sync.Mutex
	consumers   []*FakeConsumer
	producers   []*FakeProducer
	delivered   []Record
	committed   []domain.Message
	events      []string
	failFlushes int
}

func NewFakeFactory(source, destination *FakeCluster) *FakeFactory {
	return &FakeFactory{Source: source, Destination: destination, Feed: NewFeed()}
}

func (f *FakeFactory) SourceCluster() (domain.Cluster, error)      { return f.Source, nil }
func (f *FakeFactory) DestinationCluster() (domain.Cluster, error) { return f.Destination, nil }

func (f *FakeFactory) SourceConsumer() (domain.Consumer, error) {
	c := &FakeConsumer{factory: f, stopCh: make(chan struct{})}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consumers = append(f.consumers, c)
	return c, nil
}

func (f *FakeFactory) DestinationProducer() (domain.Producer, error) {
	p := &FakeProducer{factory: f}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.producers = append(f.producers, p)
	return p, nil
}

// FailNextFlushes makes the next n flushes drop their records and return ErrFlush.
func (f *FakeFactory) FailNextFlushes(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failFlushes = n
}

func (f *FakeFactory) Consumers() []*FakeConsumer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeConsumer(nil), f.consumers...)
}

// LastConsumer returns the most recently created consumer, or nil.
func (f *FakeFactory) LastConsumer() *FakeConsumer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.consumers) == 0 {
		return nil
	}
	return f.consumers[len(f.consumers)-1]
}

func (f *FakeFactory) Delivered() []Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Record(nil), f.delivered...)
}

func (f *FakeFactory) Committed() []domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Message(nil), f.committed...)
}

// Events returns the journal: "poll", "flush", "flush-failed" and "commit" entries in order.
func (f *FakeFactory) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func (f *FakeFactory) event(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, name)
}

func (f *FakeFactory) deliver(records []Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFlushes > 0 {
		f.failFlushes--
		f.events = append(f.events, "flush-failed")
		return ErrFlush
	}
	f.delivered = append(f.delivered, records...)
	f.events = append(f.events, "flush")
	return nil
}

func (f *FakeFactory) commit(marks []domain.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, marks...)
	f.events = append(f.events, "commit")
}
