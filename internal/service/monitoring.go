package service

import (
	"context"
	"time"

	"thermostat_control/internal/models"
	"thermostat_control/internal/repository"
)

const (
	modeOff       = "OFF"
	equipmentIdle = "IDLE"

	// baselineTemp is only a display seed for the snapshot served before
	// the first sample arrives; it is unrelated to the simulator's
	// unconditioned-room AmbientTemp.
	baselineTemp        = 21.0
	defaultDeadbandTemp = 0.5
)

type MonitoringService struct {
	stateRepo repository.StateRepo
}

func NewMonitoringService(stateRepo repository.StateRepo) *MonitoringService {
	return &MonitoringService{stateRepo: stateRepo}
}

// GetState returns the latest persisted thermostat snapshot.
// If no snapshot is persisted yet, returns a baseline OFF/IDLE snapshot.
func (s *MonitoringService) GetState(ctx context.Context) (models.ThermostatState, error) {
	state, err := s.stateRepo.Load(ctx)
	if err != nil {
		return models.ThermostatState{}, err
	}
	if state.ID == 0 {
		return s.baselineState(), nil
	}
	state.UpdatedAt = toUTC(state.UpdatedAt)
	return state, nil
}

// baselineState returns a sensible default snapshot for an uninitialized DB.
func (s *MonitoringService) baselineState() models.ThermostatState {
	return models.ThermostatState{
		ID:          1, // DB schema enforces single-row state with id=1
		Mode:        modeOff,
		Equipment:   equipmentIdle,
		CurrentTemp: baselineTemp,
		Deadband:    defaultDeadbandTemp,
		UpdatedAt:   time.Now().UTC(),
	}
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
