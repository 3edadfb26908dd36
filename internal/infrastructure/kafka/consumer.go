package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/OliveiraNt/maned-mirror/internal/config"
	"github.com/OliveiraNt/maned-mirror/internal/domain"
	"github.com/twmb/franz-go/pkg/kgo"
)

// errLatestUnsupported is returned when a subscription asks to start at the log end.
var errLatestUnsupported = errors.New("consumer only supports starting from the earliest offset")

// consumerAPI is the subset of *kgo.Client used by Consumer.
type consumerAPI interface {
	AddConsumeTopics(topics ...string)
	PollFetches(ctx context.Context) kgo.Fetches
	AllowRebalance()
	CommitRecords(ctx context.Context, rs ...*kgo.Record) error
	CloseAllowingRebalance()
}

// Consumer implements domain.Consumer as a franz-go group consumer with manual commits.
type Consumer struct {
	client consumerAPI

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc

	// marks holds the highest processed record per topic partition.
	marks map[string]map[int32]*kgo.Record
}

var _ domain.Consumer = (*Consumer)(nil)

// NewConsumer joins groupID on the source cluster. Autocommit is disabled and rebalances are held
// while polled records are being processed so commits always target owned partitions.
func NewConsumer(cfg config.ClusterConfig, groupID string) (*Consumer, error) {
	cl, err := newClient(cfg,
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
		kgo.BlockRebalanceOnPoll(),
		kgo.SessionTimeout(60*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return newConsumer(cl), nil
}

func newConsumer(client consumerAPI) *Consumer {
	return &Consumer{client: client, marks: make(map[string]map[int32]*kgo.Record)}
}

// Subscribe adds topic to the group's subscription.
func (c *Consumer) Subscribe(topic string, fromBeginning bool) error {
	if !fromBeginning {
		return fmt.Errorf("subscribe %s: %w", topic, errLatestUnsupported)
	}
	c.client.AddConsumeTopics(topic)
	return nil
}

// Poll blocks until records are fetched. Fetch errors are returned as the batch error.
func (c *Consumer) Poll(ctx context.Context) (domain.Batch, error) {
	pctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return domain.Batch{}, domain.ErrConsumerStopped
	}
	c.cancel = cancel
	c.mu.Unlock()

	for {
		c.client.AllowRebalance()
		fetches := c.client.PollFetches(pctx)
		if c.isStopped() || fetches.IsClientClosed() {
			return domain.Batch{}, domain.ErrConsumerStopped
		}
		if err := pctx.Err(); err != nil {
			return domain.Batch{}, err
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			e := errs[0]
			return domain.Batch{}, fmt.Errorf("fetch %s[%d]: %w", e.Topic, e.Partition, e.Err)
		}
		if fetches.Empty() {
			continue
		}

		batch := domain.Batch{Messages: make([]domain.Message, 0, fetches.NumRecords())}
		fetches.EachRecord(func(r *kgo.Record) {
			batch.Messages = append(batch.Messages, domain.Message{
				Key:         r.Key,
				Value:       r.Value,
				Topic:       r.Topic,
				Partition:   r.Partition,
				Offset:      r.Offset,
				LeaderEpoch: r.LeaderEpoch,
				Timestamp:   r.Timestamp,
			})
		})
		return batch, nil
	}
}

// MarkProcessed records m for the next commit.
func (c *Consumer) MarkProcessed(m domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	parts, ok := c.marks[m.Topic]
	if !ok {
		parts = make(map[int32]*kgo.Record)
		c.marks[m.Topic] = parts
	}
	if cur, ok := parts[m.Partition]; ok && cur.Offset >= m.Offset {
		return
	}
	parts[m.Partition] = &kgo.Record{
		Topic:       m.Topic,
		Partition:   m.Partition,
		Offset:      m.Offset,
		LeaderEpoch: m.LeaderEpoch,
	}
}

// CommitOffsets synchronously commits the marked offsets. Marks are kept on failure.
func (c *Consumer) CommitOffsets(ctx context.Context) error {
	c.mu.Lock()
	recs := make([]*kgo.Record, 0, len(c.marks))
	for _, parts := range c.marks {
		for _, r := range parts {
			recs = append(recs, r)
		}
	}
	c.mu.Unlock()

	if len(recs) == 0 {
		return nil
	}
	if err := c.client.CommitRecords(ctx, recs...); err != nil {
		return fmt.Errorf("commit offsets: %w", err)
	}

	c.mu.Lock()
	for _, r := range recs {
		if cur, ok := c.marks[r.Topic][r.Partition]; ok && cur == r {
			delete(c.marks[r.Topic], r.Partition)
		}
	}
	c.mu.Unlock()
	return nil
}

// Stop unblocks a pending Poll. It is safe to call from any goroutine and more than once.
func (c *Consumer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Consumer) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// Close leaves the group and releases the client. A plain Close would hang after a poll because
// rebalances are blocked until the next AllowRebalance.
func (c *Consumer) Close() {
	if c != nil && c.client != nil {
		c.client.CloseAllowingRebalance()
	}
}
