package service

import (
	"context"
	"time"

	"thermostat_control/internal/models"
	"thermostat_control/internal/repository"
	"thermostat_control/internal/thermostat"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Control is the single serialization boundary around the thermostat FSM:
// samples and configuration updates both pass through it, so interlock
// timing invariants are never violated by interleaving.
type Control interface {
	ApplySample(ctx context.Context, p SampleParams) (*thermostat.CommandTransition, error)
	Configure(ctx context.Context, p ConfigParams) error
}

// Monitoring exposes the last persisted thermostat snapshot.
type Monitoring interface {
	GetState(ctx context.Context) (models.ThermostatState, error)
}

// EventLog exposes the append-only transition log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.TransitionEvent, error)
}

// Simulator runs the background loop that synthesizes sensor samples when
// no real sensor is attached. Stop via context cancellation in main().
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
}

// Actuator delivers emitted equipment commands to whatever component
// drives the physical relays. Actuation is assumed effectively immediate;
// no acknowledgment is tracked.
type Actuator interface {
	PublishTransition(ctx context.Context, at time.Time, tr thermostat.CommandTransition) error
}

// Service aggregates all sub-services behind one handle.
type Service struct {
	Control
	Monitoring
	EventLog
	Simulator
	Authorization
}

// NewService wires the repository layer, the FSM controller and the
// actuation boundary into concrete services.
func NewService(repos *repository.Repository, ctrl *thermostat.Controller, actuator Actuator, signingKey string) *Service {
	control := NewControlService(ctrl, repos.StateRepo, repos.EventRepo, actuator)
	return &Service{
		Control:       control,
		Monitoring:    NewMonitoringService(repos.StateRepo),
		EventLog:      NewEventLogService(repos.EventRepo),
		Simulator:     NewSimulatorService(control, NewMonitoringService(repos.StateRepo)),
		Authorization: NewAuthService(repos.Auth, signingKey),
	}
}
