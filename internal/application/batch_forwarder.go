package application

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/OliveiraNt/maned-mirror/internal/domain"
	"github.com/OliveiraNt/maned-mirror/internal/utils"
)

// Outcome tells the supervisor why BatchForwarder.Run returned without an error.
type Outcome int

const (
	// OutcomeStopped means the consumer was stopped.
	OutcomeStopped Outcome = iota
	// OutcomeRestart means new eligible topics appeared and discovery must run again.
	OutcomeRestart
)

func (o Outcome) String() string {
	if o == OutcomeRestart {
		return "restart"
	}
	return "stopped"
}

// BatchForwarder copies polled messages to the destination, skipping replicas, and commits the
// source offsets after each slice is delivered.
type BatchForwarder struct {
	skip      domain.SkipSet
	sliceSize int
	monitor   *Monitor
	tracer    trace.Tracer
}

// NewBatchForwarder creates a forwarder committing every sliceSize messages.
func NewBatchForwarder(skip domain.SkipSet, sliceSize int, monitor *Monitor) *BatchForwarder {
	return &BatchForwarder{
		skip:      skip,
		sliceSize: sliceSize,
		monitor:   monitor,
		tracer:    otel.Tracer(instrumentationName),
	}
}

// Run consumes until the consumer is stopped, new topics appear or an error occurs.
func (f *BatchForwarder) Run(ctx context.Context, conns *connections, st *engineState) (Outcome, error) {
	source, err := conns.sourceCluster()
	if err != nil {
		return OutcomeStopped, err
	}
	consumer, err := conns.sourceConsumer()
	if err != nil {
		return OutcomeStopped, err
	}
	producer, err := conns.destinationProducer()
	if err != nil {
		return OutcomeStopped, err
	}

	for {
		batch, err := f.next(ctx, consumer, st)
		if errors.Is(err, domain.ErrConsumerStopped) {
			return OutcomeStopped, nil
		}
		if err != nil {
			return OutcomeStopped, fmt.Errorf("consume batch: %w", err)
		}

		eligible, err := EligibleTopics(ctx, source, f.skip)
		if err != nil {
			return OutcomeStopped, fmt.Errorf("list source topics: %w", err)
		}
		if pending := eligible.Difference(st.replicated); len(pending) > 0 {
			st.carry = &batch
			utils.Logger.Info("new topics added, restarting", "topics", pending.Sorted())
			return OutcomeRestart, nil
		}

		if err := f.forward(ctx, consumer, producer, batch); err != nil {
			return OutcomeStopped, err
		}
	}
}

// next returns the carried batch if any, otherwise blocks on the consumer.
func (f *BatchForwarder) next(ctx context.Context, consumer domain.Consumer, st *engineState) (domain.Batch, error) {
	if st.carry != nil {
		b := *st.carry
		st.carry = nil
		return b, nil
	}
	return consumer.Poll(ctx)
}

// forward processes batch in slices. A slice that has been enqueued is always delivered and
// committed, even when ctx is cancelled meanwhile.
func (f *BatchForwarder) forward(ctx context.Context, consumer domain.Consumer, producer domain.Producer, batch domain.Batch) error {
	deliverCtx := context.WithoutCancel(ctx)
	msgs := batch.Messages

	for start := 0; start < len(msgs); start += f.sliceSize {
		end := min(start+f.sliceSize, len(msgs))
		if err := f.deliverSlice(deliverCtx, consumer, producer, msgs[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// deliverSlice enqueues one slice, waits for delivery, then commits its offsets.
func (f *BatchForwarder) deliverSlice(ctx context.Context, consumer domain.Consumer, producer domain.Producer, slice []domain.Message) error {
	ctx, span := f.tracer.Start(ctx, "mirror.slice", trace.WithAttributes(attribute.Int("mirror.slice.size", len(slice))))
	defer span.End()

	forwarded, skipped := 0, 0
	for _, m := range slice {
		// replicas are never tagged again: this check must precede Tag
		if IsReplica(m.Value) {
			consumer.MarkProcessed(m)
			skipped++
			continue
		}
		producer.Enqueue(m.Key, Tag(m.Value), m.Topic, m.Partition)
		consumer.MarkProcessed(m)
		forwarded++
	}
	span.SetAttributes(attribute.Int("mirror.slice.forwarded", forwarded), attribute.Int("mirror.slice.skipped", skipped))

	if err := producer.Flush(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "deliver failed")
		return fmt.Errorf("deliver slice: %w", err)
	}
	if err := consumer.CommitOffsets(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return fmt.Errorf("commit slice: %w", err)
	}
	if f.monitor != nil {
		f.monitor.sliceCommitted(forwarded, skipped)
	}
	utils.Logger.Debug("slice committed", "forwarded", forwarded, "skipped", skipped)
	return nil
}
