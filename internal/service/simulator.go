package service

import (
	"context"
	"time"
)

// Thermal model constants for the synthetic room. Rates are per second.
const (
	// AmbientTemp is what the room relaxes toward with no equipment running.
	AmbientTemp = 15.0

	HeatRatePerSec  = 0.030 // warming while the heat element runs, stage 1
	CoolRatePerSec  = 0.040 // cooling while the compressor runs, stage 1
	DriftRatePerSec = 0.004 // relaxation toward ambient when idle or fan-only
	StageBoost      = 0.5   // extra fraction of the base rate per stage above 1
)

// SimulatorService synthesizes sensor samples so the controller can be
// exercised without physical hardware. It reads the persisted snapshot to
// know what the equipment is doing, advances a simple thermal model, and
// feeds the result back through the control service.
type SimulatorService struct {
	control    Control
	monitoring Monitoring
}

func NewSimulatorService(control Control, monitoring Monitoring) *SimulatorService {
	return &SimulatorService{control: control, monitoring: monitoring}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			st, err := s.monitoring.GetState(ctx)
			if err != nil {
				continue
			}
			temp := advanceTemperature(st.Equipment, st.Stage, st.CurrentTemp, tick.Seconds())
			// An out-of-order rejection here only means a real sensor got a
			// sample in first; drop ours and try again next tick.
			_, _ = s.control.ApplySample(ctx, SampleParams{At: now.UTC(), Temperature: temp})
		}
	}
}

// advanceTemperature advances the room model by elapsed seconds given what
// the equipment was commanded to do. Higher stages move the temperature
// proportionally faster.
func advanceTemperature(equipment string, stage uint8, temp, elapsed float64) float64 {
	switch equipment {
	case "HEATING":
		return temp + HeatRatePerSec*stageFactor(stage)*elapsed
	case "COOLING":
		return temp - CoolRatePerSec*stageFactor(stage)*elapsed
	default:
		// Idle and fan-only both relax toward ambient.
		return driftToward(temp, AmbientTemp, DriftRatePerSec*elapsed)
	}
}

func stageFactor(stage uint8) float64 {
	if stage <= 1 {
		return 1
	}
	return 1 + StageBoost*float64(stage-1)
}

// driftToward moves temp by at most step in the direction of target,
// clamping at the target.
func driftToward(temp, target, step float64) float64 {
	switch {
	case temp > target:
		if temp-step < target {
			return target
		}
		return temp - step
	case temp < target:
		if temp+step > target {
			return target
		}
		return temp + step
	default:
		return temp
	}
}
