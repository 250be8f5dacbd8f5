package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"thermostat_control/internal/models"
	"thermostat_control/internal/repository"
	"thermostat_control/internal/thermostat"

	"github.com/google/uuid"
)

// ControlService owns the FSM controller. The mutex is the mutual-exclusion
// boundary the controller itself deliberately does not have: the sensor
// feed, the simulator and the configuration API all go through here.
type ControlService struct {
	mu        sync.Mutex
	ctrl      *thermostat.Controller
	stateRepo repository.StateRepo
	eventRepo repository.EventRepo
	actuator  Actuator // optional
}

func NewControlService(ctrl *thermostat.Controller, stateRepo repository.StateRepo, eventRepo repository.EventRepo, actuator Actuator) *ControlService {
	return &ControlService{
		ctrl:      ctrl,
		stateRepo: stateRepo,
		eventRepo: eventRepo,
		actuator:  actuator,
	}
}

// ApplySample feeds one reading through the FSM, persists the resulting
// snapshot, and records/publishes the transition if one was emitted.
// A rejected sample (out of order) is returned as an error without
// touching persisted state.
func (s *ControlService) ApplySample(ctx context.Context, p SampleParams) (*thermostat.CommandTransition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, err := s.ctrl.ApplySample(thermostat.Sample{
		Timestamp:   p.At,
		Temperature: p.Temperature,
		Humidity:    p.Humidity,
	})
	if err != nil {
		return nil, err
	}

	if err := s.stateRepo.Save(ctx, s.snapshotLocked(p.At)); err != nil {
		return tr, fmt.Errorf("save snapshot: %w", err)
	}
	if tr != nil {
		if err := s.recordAndActuateLocked(ctx, p.At, *tr); err != nil {
			return tr, err
		}
	}
	return tr, nil
}

// Configure validates and applies a new mode/setpoints/deadband. The FSM
// guarantees atomicity: on validation failure nothing changes. Switching
// to OFF may force an immediate shutdown transition, which is recorded
// and actuated like any other.
func (s *ControlService) Configure(ctx context.Context, p ConfigParams) error {
	mode, err := thermostat.ParseOperatingMode(p.Mode)
	if err != nil {
		return fmt.Errorf("%w: %v", thermostat.ErrInvalidConfiguration, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	forced, err := s.ctrl.UpdateConfiguration(mode, thermostat.Setpoints{
		HeatTo: p.HeatTo,
		CoolTo: p.CoolTo,
	}, p.Deadband)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := s.stateRepo.Save(ctx, s.snapshotLocked(now)); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := s.eventRepo.Append(ctx, models.TransitionEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  now,
		Type:        models.EventConfigChange,
		Description: "Configuration changed to " + mode.String(),
		Metadata: map[string]any{
			"mode":     mode.String(),
			"heat_to":  p.HeatTo,
			"cool_to":  p.CoolTo,
			"deadband": p.Deadband,
		},
	}); err != nil {
		return err
	}
	if forced != nil {
		return s.recordAndActuateLocked(ctx, now, *forced)
	}
	return nil
}

// recordAndActuateLocked appends the transition to the log and hands it to
// the actuation boundary. A failed publish is telemetry, not a control
// failure: it is logged as an ERROR event and swallowed.
func (s *ControlService) recordAndActuateLocked(ctx context.Context, at time.Time, tr thermostat.CommandTransition) error {
	if err := s.eventRepo.Append(ctx, transitionEvent(at, tr)); err != nil {
		return fmt.Errorf("append transition event: %w", err)
	}
	if s.actuator == nil {
		return nil
	}
	if err := s.actuator.PublishTransition(ctx, at, tr); err != nil {
		_ = s.eventRepo.Append(ctx, models.TransitionEvent{
			EventID:     uuid.NewString(),
			OccurredAt:  at.UTC(),
			Type:        models.EventError,
			Description: "actuation publish failed",
			Metadata:    map[string]any{"err": err.Error(), "transition": tr.String()},
		})
	}
	return nil
}

// snapshotLocked captures the controller's externally visible state.
// Callers must hold s.mu.
func (s *ControlService) snapshotLocked(at time.Time) models.ThermostatState {
	cfg := s.ctrl.Configuration()
	st := s.ctrl.CurrentState()
	snap := models.ThermostatState{
		ID:        1,
		Mode:      cfg.Mode.String(),
		Equipment: st.Kind.String(),
		Stage:     st.Stage,
		HeatTo:    cfg.Setpoints.HeatTo,
		CoolTo:    cfg.Setpoints.CoolTo,
		Deadband:  cfg.Deadband,
		UpdatedAt: at.UTC(),
	}
	if last, ok := s.ctrl.LastSample(); ok {
		snap.CurrentTemp = last.Temperature
		snap.Humidity = last.Humidity
	}
	return snap
}

func transitionEvent(at time.Time, tr thermostat.CommandTransition) models.TransitionEvent {
	return models.TransitionEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  at.UTC(),
		Type:        models.EventTransition,
		Description: tr.String(),
		Metadata: map[string]any{
			"from":    tr.From.String(),
			"to":      tr.To.String(),
			"channel": tr.Channel.String(),
			"stage":   tr.Stage,
		},
	}
}
