package domain

import "time"

// Phase is a state of the supervising loop.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseResetting
	PhaseDiscovering
	PhaseForwarding
	PhaseFailed
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseResetting:
		return "resetting"
	case PhaseDiscovering:
		return "discovering"
	case PhaseForwarding:
		return "forwarding"
	case PhaseFailed:
		return "failed"
	case PhaseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase by name in JSON.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Status is a point-in-time view of a running engine.
type Status struct {
	InstanceID       string    `json:"instance_id"`
	Phase            Phase     `json:"phase"`
	StartedAt        time.Time `json:"started_at"`
	Cycles           int64     `json:"cycles"`
	Restarts         int64     `json:"restarts"`
	Failures         int64     `json:"failures"`
	Forwarded        int64     `json:"forwarded"`
	SkippedReplicas  int64     `json:"skipped_replicas"`
	CommittedSlices  int64     `json:"committed_slices"`
	ReplicatedTopics []string  `json:"replicated_topics"`
	LastError        string    `json:"last_error,omitempty"`
	LastErrorAt      time.Time `json:"last_error_at,omitempty"`

	SourceBrokers      []string `json:"source_brokers,omitempty"`
	DestinationBrokers []string `json:"destination_brokers,omitempty"`
}

// Running reports whether the engine has not reached its terminal phase.
func (s Status) Running() bool {
	return s.Phase != PhaseStopped
}
