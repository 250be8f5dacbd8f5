package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"thermostat_control/internal/models"
	"thermostat_control/internal/thermostat"
)

// ---- Test doubles ----

type fakeStateRepo struct {
	mu         sync.Mutex
	loadResp   models.ThermostatState
	loadErr    error
	saveErr    error
	savedCalls []models.ThermostatState
}

func (f *fakeStateRepo) Load(ctx context.Context) (models.ThermostatState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadResp, f.loadErr
}
func (f *fakeStateRepo) Save(ctx context.Context, s models.ThermostatState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedCalls = append(f.savedCalls, s)
	return f.saveErr
}
func (f *fakeStateRepo) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.savedCalls)
}

type fakeEventRepo struct {
	appendErr error
	events    []models.TransitionEvent
}

func (f *fakeEventRepo) Append(ctx context.Context, e models.TransitionEvent) error {
	f.events = append(f.events, e)
	return f.appendErr
}
func (f *fakeEventRepo) List(ctx context.Context, from, to time.Time, typ string) ([]models.TransitionEvent, error) {
	var out []models.TransitionEvent
	for _, e := range f.events {
		if typ == "" || e.Type == typ {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeActuator struct {
	err       error
	published []thermostat.CommandTransition
}

func (f *fakeActuator) PublishTransition(ctx context.Context, at time.Time, tr thermostat.CommandTransition) error {
	f.published = append(f.published, tr)
	return f.err
}

var simBase = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func tAt(sec int) time.Time { return simBase.Add(time.Duration(sec) * time.Second) }

func newControlFixture(t *testing.T, cfg thermostat.Config) (*ControlService, *fakeStateRepo, *fakeEventRepo, *fakeActuator) {
	t.Helper()
	ctrl, err := thermostat.New(cfg)
	if err != nil {
		t.Fatalf("thermostat.New(): %v", err)
	}
	srepo := &fakeStateRepo{}
	erepo := &fakeEventRepo{}
	act := &fakeActuator{}
	return NewControlService(ctrl, srepo, erepo, act), srepo, erepo, act
}

func lastSaved(t *testing.T, f *fakeStateRepo) models.ThermostatState {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.savedCalls) == 0 {
		t.Fatalf("expected at least one Save call")
	}
	return f.savedCalls[len(f.savedCalls)-1]
}

// ---- Tests ----

func TestControlService_ApplySample_PersistsAndPublishesTransition(t *testing.T) {
	svc, srepo, erepo, act := newControlFixture(t, thermostat.Config{
		Mode:      thermostat.ModeCool,
		Setpoints: thermostat.Setpoints{CoolTo: 22.0},
		Deadband:  0.5,
	})
	ctx := context.Background()

	tr, err := svc.ApplySample(ctx, SampleParams{At: tAt(0), Temperature: 23.0})
	if err != nil {
		t.Fatalf("ApplySample: %v", err)
	}
	if tr == nil || tr.To.Kind != thermostat.KindCooling {
		t.Fatalf("expected cooling transition, got %v", tr)
	}

	snap := lastSaved(t, srepo)
	if snap.Mode != "COOL" || snap.Equipment != "COOLING" || snap.Stage != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.CurrentTemp != 23.0 {
		t.Fatalf("snapshot temp = %v, want 23.0", snap.CurrentTemp)
	}
	if !snap.UpdatedAt.Equal(tAt(0)) {
		t.Fatalf("snapshot UpdatedAt = %v, want sample time", snap.UpdatedAt)
	}

	if len(erepo.events) != 1 || erepo.events[0].Type != models.EventTransition {
		t.Fatalf("expected one TRANSITION event, got %+v", erepo.events)
	}
	if erepo.events[0].EventID == "" {
		t.Fatalf("expected generated event id")
	}
	if len(act.published) != 1 || act.published[0].Channel != thermostat.ChannelCompressor {
		t.Fatalf("expected one actuation publish, got %+v", act.published)
	}
}

func TestControlService_ApplySample_NoTransitionStillSnapshots(t *testing.T) {
	svc, srepo, erepo, act := newControlFixture(t, thermostat.Config{
		Mode:      thermostat.ModeCool,
		Setpoints: thermostat.Setpoints{CoolTo: 22.0},
		Deadband:  0.5,
	})
	ctx := context.Background()

	if _, err := svc.ApplySample(ctx, SampleParams{At: tAt(0), Temperature: 23.0}); err != nil {
		t.Fatalf("ApplySample: %v", err)
	}
	// Inside the deadband: no transition, but the reading is persisted.
	tr, err := svc.ApplySample(ctx, SampleParams{At: tAt(60), Temperature: 21.8})
	if err != nil {
		t.Fatalf("ApplySample: %v", err)
	}
	if tr != nil {
		t.Fatalf("expected no transition, got %v", tr)
	}
	if len(srepo.savedCalls) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(srepo.savedCalls))
	}
	if len(erepo.events) != 1 || len(act.published) != 1 {
		t.Fatalf("silent sample must not log or actuate: %d events, %d publishes",
			len(erepo.events), len(act.published))
	}
}

func TestControlService_ApplySample_DeferredByInterlockIsSilent(t *testing.T) {
	cfg := thermostat.Config{
		Mode:      thermostat.ModeCool,
		Setpoints: thermostat.Setpoints{CoolTo: 22.0},
		Deadband:  0.5,
	}
	cfg.Interlocks[thermostat.ChannelCompressor] = thermostat.InterlockConfig{MinOff: 300 * time.Second}
	svc, _, erepo, act := newControlFixture(t, cfg)
	ctx := context.Background()

	if _, err := svc.ApplySample(ctx, SampleParams{At: tAt(0), Temperature: 23.0}); err != nil {
		t.Fatalf("ApplySample: %v", err)
	}
	if _, err := svc.ApplySample(ctx, SampleParams{At: tAt(10), Temperature: 21.4}); err != nil {
		t.Fatalf("ApplySample: %v", err)
	}
	// Demand is back but the compressor must rest: deferred, no event.
	tr, err := svc.ApplySample(ctx, SampleParams{At: tAt(100), Temperature: 23.5})
	if err != nil {
		t.Fatalf("ApplySample: %v", err)
	}
	if tr != nil {
		t.Fatalf("expected deferral, got %v", tr)
	}
	if len(erepo.events) != 2 || len(act.published) != 2 {
		t.Fatalf("deferral must not log or actuate: %d events, %d publishes",
			len(erepo.events), len(act.published))
	}
}

func TestControlService_ApplySample_OutOfOrderLeavesStateAlone(t *testing.T) {
	svc, srepo, _, _ := newControlFixture(t, thermostat.Config{
		Mode:      thermostat.ModeCool,
		Setpoints: thermostat.Setpoints{CoolTo: 22.0},
	})
	ctx := context.Background()

	if _, err := svc.ApplySample(ctx, SampleParams{At: tAt(100), Temperature: 23.0}); err != nil {
		t.Fatalf("ApplySample: %v", err)
	}
	saves := len(srepo.savedCalls)

	_, err := svc.ApplySample(ctx, SampleParams{At: tAt(99), Temperature: 10.0})
	if !errors.Is(err, thermostat.ErrOutOfOrderSample) {
		t.Fatalf("expected ErrOutOfOrderSample, got %v", err)
	}
	if len(srepo.savedCalls) != saves {
		t.Fatalf("rejected sample must not be persisted")
	}
}

func TestControlService_Configure_InvalidInputs(t *testing.T) {
	svc, srepo, erepo, _ := newControlFixture(t, thermostat.Config{
		Mode:      thermostat.ModeAuto,
		Setpoints: thermostat.Setpoints{HeatTo: 18.0, CoolTo: 24.0},
		Deadband:  0.5,
	})
	ctx := context.Background()

	cases := []struct {
		name string
		p    ConfigParams
	}{
		{"unknown mode", ConfigParams{Mode: "TURBO", HeatTo: 18, CoolTo: 24, Deadband: 0.5}},
		{"inverted setpoints", ConfigParams{Mode: "AUTO", HeatTo: 25, CoolTo: 20, Deadband: 0.5}},
		{"negative deadband", ConfigParams{Mode: "COOL", CoolTo: 22, Deadband: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Configure(ctx, tc.p)
			if !errors.Is(err, thermostat.ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
	if len(srepo.savedCalls) != 0 || len(erepo.events) != 0 {
		t.Fatalf("rejected configuration must not persist or log")
	}
}

func TestControlService_Configure_RecordsChange(t *testing.T) {
	svc, srepo, erepo, _ := newControlFixture(t, thermostat.Config{
		Mode:      thermostat.ModeCool,
		Setpoints: thermostat.Setpoints{CoolTo: 22.0},
		Deadband:  0.5,
	})
	ctx := context.Background()

	if err := svc.Configure(ctx, ConfigParams{Mode: "AUTO", HeatTo: 18, CoolTo: 24, Deadband: 0.5}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	snap := lastSaved(t, srepo)
	if snap.Mode != "AUTO" || snap.HeatTo != 18 || snap.CoolTo != 24 {
		t.Fatalf("snapshot did not pick up new config: %+v", snap)
	}
	if len(erepo.events) != 1 || erepo.events[0].Type != models.EventConfigChange {
		t.Fatalf("expected one CONFIG_CHANGE event, got %+v", erepo.events)
	}
}

func TestControlService_Configure_OffForcesShutdownTransition(t *testing.T) {
	svc, _, erepo, act := newControlFixture(t, thermostat.Config{
		Mode:      thermostat.ModeHeat,
		Setpoints: thermostat.Setpoints{HeatTo: 20.0},
	})
	ctx := context.Background()

	if _, err := svc.ApplySample(ctx, SampleParams{At: tAt(0), Temperature: 15.0}); err != nil {
		t.Fatalf("ApplySample: %v", err)
	}
	if err := svc.Configure(ctx, ConfigParams{Mode: "OFF"}); err != nil {
		t.Fatalf("Configure(OFF): %v", err)
	}

	// Engage transition, config change, forced shutdown transition.
	if len(erepo.events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(erepo.events), erepo.events)
	}
	last := erepo.events[2]
	if last.Type != models.EventTransition {
		t.Fatalf("expected forced shutdown TRANSITION, got %s", last.Type)
	}
	if len(act.published) != 2 || act.published[1].To.Kind != thermostat.KindIdle {
		t.Fatalf("expected shutdown actuation, got %+v", act.published)
	}
}

func TestControlService_ActuatorFailureIsTelemetryNotControlFailure(t *testing.T) {
	svc, _, erepo, act := newControlFixture(t, thermostat.Config{
		Mode:      thermostat.ModeCool,
		Setpoints: thermostat.Setpoints{CoolTo: 22.0},
	})
	act.err = errors.New("broker down")
	ctx := context.Background()

	tr, err := svc.ApplySample(ctx, SampleParams{At: tAt(0), Temperature: 25.0})
	if err != nil {
		t.Fatalf("publish failure must not fail the sample: %v", err)
	}
	if tr == nil {
		t.Fatalf("expected transition")
	}
	if len(erepo.events) != 2 || erepo.events[1].Type != models.EventError {
		t.Fatalf("expected TRANSITION + ERROR events, got %+v", erepo.events)
	}
}

func TestControlService_NilActuatorIsAllowed(t *testing.T) {
	ctrl, err := thermostat.New(thermostat.Config{
		Mode:      thermostat.ModeCool,
		Setpoints: thermostat.Setpoints{CoolTo: 22.0},
	})
	if err != nil {
		t.Fatalf("thermostat.New(): %v", err)
	}
	svc := NewControlService(ctrl, &fakeStateRepo{}, &fakeEventRepo{}, nil)

	if _, err := svc.ApplySample(context.Background(), SampleParams{At: tAt(0), Temperature: 25.0}); err != nil {
		t.Fatalf("ApplySample with nil actuator: %v", err)
	}
}
