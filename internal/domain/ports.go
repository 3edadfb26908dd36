package domain

import (
	"context"
	"errors"
)

// ErrConsumerStopped is returned by Consumer.Poll once Stop has been called.
var ErrConsumerStopped = errors.New("consumer stopped")

// Cluster is a metadata/admin handle on a broker cluster.
type Cluster interface {
	// ListTopics returns every topic known to the cluster, internal ones included.
	ListTopics(ctx context.Context) (TopicSet, error)
	PartitionCount(ctx context.Context, topic string) (int32, error)
	// CreateTopic creates topic. A topic that already exists is not an error.
	CreateTopic(ctx context.Context, topic string, partitions int32, replicationFactor int16) error
	Close()
}

// Consumer reads from the source cluster as a member of a consumer group.
type Consumer interface {
	// Subscribe adds topic to the consumed set. With fromBeginning, partitions without a
	// committed offset start at the earliest retained offset.
	Subscribe(topic string, fromBeginning bool) error
	// Poll blocks until a batch is available, the consumer is stopped or ctx is done.
	Poll(ctx context.Context) (Batch, error)
	// MarkProcessed records m as handled; it is committed by the next CommitOffsets.
	MarkProcessed(m Message)
	// CommitOffsets synchronously commits every processed mark.
	CommitOffsets(ctx context.Context) error
	// Stop unblocks a pending Poll and makes further polls fail with ErrConsumerStopped.
	Stop()
	Close()
}

// Producer writes to the destination cluster.
type Producer interface {
	// Enqueue buffers a record for topic/partition until the next Flush.
	Enqueue(key, value []byte, topic string, partition int32)
	// Flush synchronously delivers every buffered record.
	Flush(ctx context.Context) error
	Close()
}

// ClientFactory opens the broker handles used by one engine.
type ClientFactory interface {
	SourceCluster() (Cluster, error)
	DestinationCluster() (Cluster, error)
	SourceConsumer() (Consumer, error)
	DestinationProducer() (Producer, error)
}
