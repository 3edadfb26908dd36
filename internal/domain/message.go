// Package domain defines the entities shared by the replication engine and the collaborator
// interfaces it consumes: broker cluster handles, the source consumer and the destination producer.
package domain

import "time"

// Message is a single record read from the source cluster.
type Message struct {
	Key         []byte
	Value       []byte
	Topic       string
	Partition   int32
	Offset      int64
	LeaderEpoch int32
	Timestamp   time.Time
}

// Batch is the set of messages returned by one blocking consume call.
// Messages of the same partition appear in offset order.
type Batch struct {
	Messages []Message
}

// Len returns the number of messages in the batch.
func (b Batch) Len() int {
	return len(b.Messages)
}
