// Package application holds the replication engine: the supervising loop, topic discovery
// and the batch forwarder that mirrors source topics onto the destination cluster.
package application

import (
	"context"
	"fmt"
	"sync/atomic"

	chlog "github.com/charmbracelet/log"

	"github.com/OliveiraNt/maned-mirror/internal/domain"
	"github.com/OliveiraNt/maned-mirror/internal/utils"
)

// Options configures an Engine.
type Options struct {
	// SkipTopics are excluded from replication in addition to domain.ReservedTopics.
	SkipTopics []string
	// BatchCommitSize is the number of messages delivered between two offset commits.
	BatchCommitSize int
	// InstanceID identifies the engine in logs and status.
	InstanceID string
}

// Engine continuously mirrors every eligible source topic to the destination cluster.
// Any failure inside a cycle releases all connections and starts a fresh cycle.
type Engine struct {
	conns      *connections
	subscriber *SubscriptionManager
	forwarder  *BatchForwarder
	monitor    *Monitor
	log        *chlog.Logger

	stopping atomic.Bool
	stopped  chan struct{}
}

// NewEngine creates an engine using factory for every broker handle.
func NewEngine(factory domain.ClientFactory, opts Options) (*Engine, error) {
	if factory == nil {
		return nil, ErrNilFactory
	}
	if opts.BatchCommitSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchCommitSize, opts.BatchCommitSize)
	}
	utils.InitLogger()

	skip := domain.NewSkipSet(opts.SkipTopics...)
	monitor := NewMonitor(opts.InstanceID)
	return &Engine{
		conns:      newConnections(factory),
		subscriber: NewSubscriptionManager(skip, monitor),
		forwarder:  NewBatchForwarder(skip, opts.BatchCommitSize, monitor),
		monitor:    monitor,
		log:        utils.Logger.With("instance", opts.InstanceID),
		stopped:    make(chan struct{}),
	}, nil
}

// Run supervises replication cycles until Stop is called or ctx is done. Cycle errors are
// logged and answered with a reset; they never escape Run.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.stopped)
	defer e.conns.release()

	stopOnCancel := context.AfterFunc(ctx, e.Stop)
	defer stopOnCancel()

	log := e.log
	log.Info("replication engine started")

	var st *engineState
	reset := true
	for !e.stopping.Load() {
		if reset {
			e.conns.release()
			st = newEngineState()
			e.monitor.cycleStarted()
			log.Info("replication cycle started", "cycle", e.monitor.Snapshot().Cycles)
			reset = false
		}

		outcome, err := e.cycle(ctx, st)
		switch {
		case err != nil:
			if e.stopping.Load() || ctx.Err() != nil {
				e.Stop()
				log.Debug("cycle ended during stop", "err", err)
				continue
			}
			e.monitor.failed(err)
			log.Error("replication cycle failed, resetting", "err", err, "cause", rootCause(err))
			reset = true
		case outcome == OutcomeRestart:
			e.monitor.restartRequested()
		case !e.stopping.Load():
			log.Warn("source consumer stopped unexpectedly, resetting")
			reset = true
		}
	}

	e.monitor.setPhase(domain.PhaseStopped)
	log.Info("replication engine stopped")
}

// cycle runs one discovery pass followed by forwarding.
func (e *Engine) cycle(ctx context.Context, st *engineState) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome, err = OutcomeStopped, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	e.monitor.setPhase(domain.PhaseDiscovering)
	e.log.Info("discovering topics")
	added, err := e.subscriber.Reconcile(ctx, e.conns, st)
	if err != nil {
		return OutcomeStopped, err
	}

	e.monitor.setPhase(domain.PhaseForwarding)
	e.log.Info("forwarding", "added", added.Sorted(), "replicated", len(st.replicated))
	return e.forwarder.Run(ctx, e.conns, st)
}

// Stop asks Run to return. A blocked poll is interrupted; a slice being delivered completes
// and is committed first. Stop may be called from any goroutine, any number of times.
func (e *Engine) Stop() {
	if e.stopping.Swap(true) {
		return
	}
	e.conns.stop()
}

// Stopped is closed once Run has returned.
func (e *Engine) Stopped() <-chan struct{} {
	return e.stopped
}

// Status returns a snapshot of the engine counters.
func (e *Engine) Status() domain.Status {
	return e.monitor.Snapshot()
}
