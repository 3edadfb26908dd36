package application

import "github.com/OliveiraNt/maned-mirror/internal/domain"

// engineState is the per-cycle state of the supervising loop. It is only touched by the
// goroutine running Engine.Run.
type engineState struct {
	// replicated grows within a cycle and is emptied on reset.
	replicated domain.TopicSet
	// carry is a polled batch that has not been forwarded yet because new topics showed up.
	carry *domain.Batch
}

func newEngineState() *engineState {
	return &engineState{replicated: make(domain.TopicSet)}
}
