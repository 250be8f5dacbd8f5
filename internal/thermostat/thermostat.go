// Package thermostat implements the finite state machine that decides what
// a centralized HVAC apparatus should be doing at any instant: heating,
// cooling, circulating air, or idle.
//
// The controller is deliberately pure: it owns only in-memory state, never
// reads a wall clock, spawns no goroutines and performs no I/O. All timing
// comes from caller-supplied sample timestamps, so the same input history
// always produces the same transitions regardless of host timing jitter.
// Callers driving it from more than one goroutine must serialize access
// themselves (see service.ControlService).
package thermostat

import (
	"fmt"
	"time"
)

// Controller is the thermostat state machine. Construct it with New and
// mutate it only through ApplySample and UpdateConfiguration.
type Controller struct {
	cfg        Config
	state      EquipmentState
	interlocks interlockTable
	lastSample *Sample

	// Stage-escalation window: when the current stage engaged and how big
	// the control error was at that moment.
	stageStartedAt  time.Time
	stageStartError float64
}

// New builds a controller in the Idle state with the given configuration.
func New(cfg Config) (*Controller, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Controller{
		cfg:        cfg,
		state:      EquipmentState{Kind: KindIdle},
		interlocks: newInterlockTable(cfg.Interlocks),
	}, nil
}

// CurrentState returns a snapshot of the equipment state.
func (c *Controller) CurrentState() EquipmentState {
	return c.state
}

// Configuration returns a copy of the active configuration.
func (c *Controller) Configuration() Config {
	return c.cfg
}

// LastSample returns the most recently accepted sample, if any.
func (c *Controller) LastSample() (Sample, bool) {
	if c.lastSample == nil {
		return Sample{}, false
	}
	return *c.lastSample, true
}

// ApplySample re-evaluates the state machine against one sensor reading.
//
// It returns a non-nil transition only when the equipment state actually
// changed. A nil transition with a nil error covers both "no change
// requested" and "change deferred by an interlock"; callers that need to
// distinguish the two must track whether a change was due. Timestamps must
// be monotonically non-decreasing; an earlier timestamp is rejected with
// ErrOutOfOrderSample and leaves all state untouched.
func (c *Controller) ApplySample(s Sample) (*CommandTransition, error) {
	if c.lastSample != nil && s.Timestamp.Before(c.lastSample.Timestamp) {
		return nil, fmt.Errorf("%w: %s precedes last accepted sample at %s",
			ErrOutOfOrderSample,
			s.Timestamp.Format(time.RFC3339Nano),
			c.lastSample.Timestamp.Format(time.RFC3339Nano))
	}
	sample := s
	c.lastSample = &sample
	now := s.Timestamp

	switch c.cfg.Mode {
	case ModeOff:
		return c.forceIdle(now), nil
	case ModeHeat, ModeCool, ModeAuto, ModeFanOnly:
		desired := c.desiredKind(s.Temperature)
		if forced := c.safetyDemand(s.Temperature); forced != KindIdle {
			desired = forced
		}
		if desired == c.state.Kind {
			if desired == KindHeating || desired == KindCooling {
				return c.maybeEscalate(s.Temperature, now), nil
			}
			return nil, nil
		}
		return c.stepToward(desired, now), nil
	default:
		return nil, nil
	}
}

// safetyDemand returns the equipment kind forced by the absolute safety
// limits, or KindIdle when the measurement is inside them. It overrides
// whatever the mode's setpoints ask for, in every mode except Off; the
// usual one-transition-per-sample stepping and channel interlocks still
// apply on the way there.
func (c *Controller) safetyDemand(temp float64) EquipmentKind {
	if !c.cfg.safetyEnabled() {
		return KindIdle
	}
	switch {
	case temp < c.cfg.MinSafeTemp:
		return KindHeating
	case temp > c.cfg.MaxSafeTemp:
		return KindCooling
	default:
		return KindIdle
	}
}

// UpdateConfiguration atomically replaces mode, setpoints and deadband.
// On validation failure the prior configuration stays in effect.
//
// The update itself never starts equipment; the next sample re-evaluates
// under the new configuration. The one exception is switching to Off,
// which synchronously forces Idle, bypassing interlocks; the forced
// transition (if any) is returned so the caller can act on it.
func (c *Controller) UpdateConfiguration(mode OperatingMode, setpoints Setpoints, deadband float64) (*CommandTransition, error) {
	next := c.cfg
	next.Mode = mode
	next.Setpoints = setpoints
	next.Deadband = deadband
	if err := next.validate(); err != nil {
		return nil, err
	}
	c.cfg = next
	if mode == ModeOff {
		return c.forceIdle(c.lastTimestamp()), nil
	}
	return nil, nil
}

// desiredKind computes the equipment kind the active mode asks for, given
// the measured temperature and the current state (hysteresis makes the
// answer state-dependent).
func (c *Controller) desiredKind(temp float64) EquipmentKind {
	switch c.cfg.Mode {
	case ModeHeat:
		return c.desiredSingle(KindHeating, temp)
	case ModeCool:
		return c.desiredSingle(KindCooling, temp)
	case ModeAuto:
		return c.desiredAuto(temp)
	case ModeFanOnly:
		return KindFanCirculating
	case ModeOff:
		return KindIdle
	default:
		return KindIdle
	}
}

// desiredSingle applies hysteresis for one thermal kind: demand engages at
// the raw setpoint and releases only once the measurement has overshot the
// setpoint by at least the deadband.
func (c *Controller) desiredSingle(kind EquipmentKind, temp float64) EquipmentKind {
	err := demandError(kind, c.cfg.Setpoints, temp)
	if c.state.Kind == kind {
		if err <= -c.cfg.Deadband {
			return KindIdle
		}
		return kind
	}
	if err >= 0 {
		return kind
	}
	return KindIdle
}

// desiredAuto evaluates both setpoints. An already-active side keeps
// running until its own deadband releases it; otherwise whichever setpoint
// is violated wins, with AutoPreference breaking a simultaneous violation.
func (c *Controller) desiredAuto(temp float64) EquipmentKind {
	sp := c.cfg.Setpoints
	if c.state.Kind == KindHeating || c.state.Kind == KindCooling {
		if demandError(c.state.Kind, sp, temp) > -c.cfg.Deadband {
			return c.state.Kind
		}
	}
	return pickAutoDemand(sp.HeatTo-temp >= 0, temp-sp.CoolTo >= 0, c.cfg.AutoPreference)
}

// pickAutoDemand resolves fresh Auto-mode demand, including the tie-break
// when both thresholds are violated at once.
func pickAutoDemand(heat, cool bool, preference EquipmentKind) EquipmentKind {
	switch {
	case heat && cool:
		return preference
	case heat:
		return KindHeating
	case cool:
		return KindCooling
	default:
		return KindIdle
	}
}

// stepToward moves at most one transition closer to the desired kind.
// Switching between two active kinds releases the current channel first;
// the new channel engages on a later sample once its own interlock clears.
// A transition forbidden by an interlock is deferred: state is unchanged
// and nil is returned.
func (c *Controller) stepToward(desired EquipmentKind, now time.Time) *CommandTransition {
	if desired == c.state.Kind {
		return nil
	}
	if c.state.Kind != KindIdle {
		ch := channelFor(c.state.Kind)
		if !c.interlocks.canTurnOff(ch, now) {
			return nil
		}
		return c.commit(EquipmentState{Kind: KindIdle}, ch, now, false)
	}
	ch := channelFor(desired)
	if !c.interlocks.canTurnOn(ch, now) {
		return nil
	}
	to := EquipmentState{Kind: desired}
	if desired == KindHeating || desired == KindCooling {
		to.Stage = 1
	}
	return c.commit(to, ch, now, true)
}

// maybeEscalate raises the stage of active heating/cooling equipment when
// the demand has persisted past StageEscalationAfter without the error
// shrinking, modeling auxiliary-heat or second-stage-compressor
// engagement. Escalation obeys the channel's min-run pacing.
func (c *Controller) maybeEscalate(temp float64, now time.Time) *CommandTransition {
	if c.cfg.StageEscalationAfter <= 0 || c.state.Stage >= c.cfg.MaxStage {
		return nil
	}
	err := demandError(c.state.Kind, c.cfg.Setpoints, temp)
	if err < c.stageStartError {
		// Error is shrinking; restart the observation window.
		c.stageStartedAt = now
		c.stageStartError = err
		return nil
	}
	if now.Sub(c.stageStartedAt) < c.cfg.StageEscalationAfter {
		return nil
	}
	ch := channelFor(c.state.Kind)
	if !c.interlocks.canRestage(ch, now) {
		return nil
	}
	from := c.state
	c.state.Stage++
	c.interlocks.noteOn(ch, now)
	c.stageStartedAt = now
	c.stageStartError = err
	return &CommandTransition{From: from, To: c.state, Channel: ch, Stage: c.state.Stage}
}

// forceIdle shuts the active channel down unconditionally. An explicit
// all-off is always safety-permitted, so interlocks are bypassed.
func (c *Controller) forceIdle(now time.Time) *CommandTransition {
	if c.state.Kind == KindIdle {
		return nil
	}
	return c.commit(EquipmentState{Kind: KindIdle}, channelFor(c.state.Kind), now, false)
}

// commit performs a transition and updates the channel's interlock timer.
func (c *Controller) commit(to EquipmentState, ch Channel, now time.Time, on bool) *CommandTransition {
	from := c.state
	c.state = to
	if on {
		c.interlocks.noteOn(ch, now)
	} else {
		c.interlocks.noteOff(ch, now)
	}
	if to.Kind == KindHeating || to.Kind == KindCooling {
		c.stageStartedAt = now
		if c.lastSample != nil {
			c.stageStartError = demandError(to.Kind, c.cfg.Setpoints, c.lastSample.Temperature)
		}
	}
	return &CommandTransition{From: from, To: to, Channel: ch, Stage: to.Stage}
}

func (c *Controller) lastTimestamp() time.Time {
	if c.lastSample == nil {
		return time.Time{}
	}
	return c.lastSample.Timestamp
}

// demandError is the control error for one thermal kind: positive when the
// equipment is needed, negative once the setpoint is satisfied.
func demandError(kind EquipmentKind, sp Setpoints, temp float64) float64 {
	switch kind {
	case KindHeating:
		return sp.HeatTo - temp
	case KindCooling:
		return temp - sp.CoolTo
	default:
		return 0
	}
}
