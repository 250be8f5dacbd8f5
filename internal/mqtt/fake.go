package mqtt

import (
	"context"
	"time"

	"thermostat_control/internal/thermostat"
)

// FakeActuator records published transitions for test assertions.
type FakeActuator struct {
	// Transitions contains all commands that were published.
	Transitions []thermostat.CommandTransition

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// PublishError, if set, will be returned by PublishTransition.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeActuator creates a FakeActuator for testing.
func NewFakeActuator() *FakeActuator {
	return &FakeActuator{}
}

// PublishTransition records the command.
func (f *FakeActuator) PublishTransition(ctx context.Context, at time.Time, tr thermostat.CommandTransition) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Transitions = append(f.Transitions, tr)

	payload, err := FormatPayload(at, tr)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)

	return nil
}

// Close marks the actuator as closed.
func (f *FakeActuator) Close() error {
	f.Closed = true
	return nil
}
