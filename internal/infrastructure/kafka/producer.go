package kafka

import (
	"context"
	"fmt"

	"github.com/OliveiraNt/maned-mirror/internal/config"
	"github.com/OliveiraNt/maned-mirror/internal/domain"
	"github.com/twmb/franz-go/pkg/kgo"
)

// producerAPI is the subset of *kgo.Client used by Producer.
type producerAPI interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Producer implements domain.Producer. Records keep the partition chosen by the caller.
type Producer struct {
	client producerAPI
	buf    []*kgo.Record
}

var _ domain.Producer = (*Producer)(nil)

// NewProducer opens a producer on the destination cluster with manual partitioning and
// acknowledgement from all in-sync replicas.
func NewProducer(cfg config.ClusterConfig) (*Producer, error) {
	cl, err := newClient(cfg,
		kgo.RecordPartitioner(kgo.ManualPartitioner()),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, err
	}
	return newProducer(cl), nil
}

func newProducer(client producerAPI) *Producer {
	return &Producer{client: client}
}

// Enqueue buffers a record until the next Flush.
func (p *Producer) Enqueue(key, value []byte, topic string, partition int32) {
	p.buf = append(p.buf, &kgo.Record{
		Key:       key,
		Value:     value,
		Topic:     topic,
		Partition: partition,
	})
}

// Buffered returns the number of records waiting for Flush.
func (p *Producer) Buffered() int {
	return len(p.buf)
}

// Flush produces every buffered record and waits for all acknowledgements.
// The buffer is cleared whether or not delivery succeeds.
func (p *Producer) Flush(ctx context.Context) error {
	if len(p.buf) == 0 {
		return nil
	}
	recs := p.buf
	p.buf = nil

	if err := p.client.ProduceSync(ctx, recs...).FirstErr(); err != nil {
		return fmt.Errorf("deliver %d records: %w", len(recs), err)
	}
	return nil
}

// Close releases the client.
func (p *Producer) Close() {
	if p != nil && p.client != nil {
		p.client.Close()
	}
}
