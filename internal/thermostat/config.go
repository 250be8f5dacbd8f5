package thermostat

import (
	"fmt"
	"time"
)

// Setpoints are the user's target temperatures. HeatTo applies in Heat and
// Auto, CoolTo in Cool and Auto. Units are whatever the sensor supplies;
// the controller only compares, it never converts.
type Setpoints struct {
	HeatTo float64
	CoolTo float64
}

// InterlockConfig holds the cycle-protection timings for one channel.
// A channel may not switch on again before MinOff has elapsed since it
// last switched off, nor switch off before MinRun has elapsed since it
// last switched on.
type InterlockConfig struct {
	MinRun time.Duration
	MinOff time.Duration
}

// Config is the full controller configuration. Mode, Setpoints and
// Deadband may later be replaced through UpdateConfiguration; the
// remaining fields are fixed at construction.
type Config struct {
	Mode      OperatingMode
	Setpoints Setpoints

	// Deadband is the overshoot past the setpoint required before active
	// equipment is commanded off. Zero disables hysteresis.
	Deadband float64

	// Interlocks is indexed by Channel.
	Interlocks [numChannels]InterlockConfig

	// StageEscalationAfter is how long a demand may persist without the
	// control error shrinking before the stage is raised. Zero disables
	// escalation entirely.
	StageEscalationAfter time.Duration

	// MaxStage caps escalation; it is normalized to at least 1.
	MaxStage uint8

	// AutoPreference breaks the tie when Auto mode finds both setpoints
	// violated at once. Must be KindHeating or KindCooling; defaults to
	// KindHeating (under-heating is the more urgent protection case).
	AutoPreference EquipmentKind

	// MinSafeTemp and MaxSafeTemp are absolute safety limits, fixed at
	// construction like the interlocks. While the mode is anything but
	// Off, a measurement outside them demands heat (below MinSafeTemp)
	// or cool (above MaxSafeTemp) regardless of what the mode's
	// setpoints ask for, and setpoints the mode uses must lie within
	// them. Both zero leaves the limits disabled.
	MinSafeTemp float64
	MaxSafeTemp float64
}

// safetyEnabled reports whether the absolute temperature limits are
// configured.
func (c Config) safetyEnabled() bool {
	return c.MinSafeTemp != 0 || c.MaxSafeTemp != 0
}

// withDefaults fills the zero values that have sensible defaults.
func (c Config) withDefaults() Config {
	if c.MaxStage == 0 {
		c.MaxStage = 1
	}
	if c.AutoPreference == KindIdle {
		c.AutoPreference = KindHeating
	}
	return c
}

func (c Config) validate() error {
	if c.Deadband < 0 {
		return fmt.Errorf("%w: deadband must be >= 0, got %v", ErrInvalidConfiguration, c.Deadband)
	}
	if c.Mode == ModeAuto && c.Setpoints.HeatTo >= c.Setpoints.CoolTo {
		return fmt.Errorf("%w: auto mode requires heat_to (%v) < cool_to (%v)",
			ErrInvalidConfiguration, c.Setpoints.HeatTo, c.Setpoints.CoolTo)
	}
	if c.AutoPreference != KindHeating && c.AutoPreference != KindCooling {
		return fmt.Errorf("%w: auto preference must be heating or cooling", ErrInvalidConfiguration)
	}
	if err := c.validateSafetyLimits(); err != nil {
		return err
	}
	for ch := Channel(0); ch < numChannels; ch++ {
		il := c.Interlocks[ch]
		if il.MinRun < 0 || il.MinOff < 0 {
			return fmt.Errorf("%w: %s interlock durations must be >= 0", ErrInvalidConfiguration, ch)
		}
	}
	return nil
}

// validateSafetyLimits checks the limits themselves and that every
// setpoint the configured mode uses stays within them.
func (c Config) validateSafetyLimits() error {
	if !c.safetyEnabled() {
		return nil
	}
	if c.MinSafeTemp >= c.MaxSafeTemp {
		return fmt.Errorf("%w: min safe temperature (%v) must be < max safe temperature (%v)",
			ErrInvalidConfiguration, c.MinSafeTemp, c.MaxSafeTemp)
	}
	checkHeat := c.Mode == ModeHeat || c.Mode == ModeAuto
	checkCool := c.Mode == ModeCool || c.Mode == ModeAuto
	if checkHeat && (c.Setpoints.HeatTo < c.MinSafeTemp || c.Setpoints.HeatTo > c.MaxSafeTemp) {
		return fmt.Errorf("%w: heat_to (%v) outside safe limits [%v, %v]",
			ErrInvalidConfiguration, c.Setpoints.HeatTo, c.MinSafeTemp, c.MaxSafeTemp)
	}
	if checkCool && (c.Setpoints.CoolTo < c.MinSafeTemp || c.Setpoints.CoolTo > c.MaxSafeTemp) {
		return fmt.Errorf("%w: cool_to (%v) outside safe limits [%v, %v]",
			ErrInvalidConfiguration, c.Setpoints.CoolTo, c.MinSafeTemp, c.MaxSafeTemp)
	}
	return nil
}
