package models

import "time"

// Event types recorded in the transition log.
const (
	EventTransition   = "TRANSITION"
	EventConfigChange = "CONFIG_CHANGE"
	EventError        = "ERROR"
)

// TransitionEvent is a single entry in the append-only log: an equipment
// command emitted by the controller, a configuration change, or an error
// worth keeping for telemetry.
type TransitionEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // TRANSITION | CONFIG_CHANGE | ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
