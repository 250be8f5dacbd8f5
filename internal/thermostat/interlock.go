package thermostat

import "time"

// interlockTimer tracks when one channel last switched, so the table can
// enforce min-run/min-off uniformly across channels.
type interlockTimer struct {
	active    bool
	lastOnAt  time.Time
	lastOffAt time.Time
}

// interlockTable keys the per-channel timers by Channel. A zero lastOffAt
// means the channel has never run, so a first activation is always allowed.
type interlockTable struct {
	cfg    [numChannels]InterlockConfig
	timers [numChannels]interlockTimer
}

func newInterlockTable(cfg [numChannels]InterlockConfig) interlockTable {
	return interlockTable{cfg: cfg}
}

// canTurnOn reports whether the channel has been off long enough to
// switch on again.
func (t *interlockTable) canTurnOn(ch Channel, now time.Time) bool {
	tm := t.timers[ch]
	if tm.active {
		return true
	}
	if tm.lastOffAt.IsZero() {
		return true
	}
	return now.Sub(tm.lastOffAt) >= t.cfg[ch].MinOff
}

// canTurnOff reports whether the channel has run long enough to switch off.
// Safety shutdowns bypass this check entirely; see Controller.forceIdle.
func (t *interlockTable) canTurnOff(ch Channel, now time.Time) bool {
	tm := t.timers[ch]
	if !tm.active {
		return true
	}
	return now.Sub(tm.lastOnAt) >= t.cfg[ch].MinRun
}

// canRestage reports whether a stage change on an active channel is
// permitted. Stage changes obey the same min-run pacing as on/off
// transitions so multi-stage equipment cannot be stepped faster than a
// full cycle would be.
func (t *interlockTable) canRestage(ch Channel, now time.Time) bool {
	tm := t.timers[ch]
	if !tm.active {
		return false
	}
	return now.Sub(tm.lastOnAt) >= t.cfg[ch].MinRun
}

func (t *interlockTable) noteOn(ch Channel, now time.Time) {
	t.timers[ch].active = true
	t.timers[ch].lastOnAt = now
}

func (t *interlockTable) noteOff(ch Channel, now time.Time) {
	t.timers[ch].active = false
	t.timers[ch].lastOffAt = now
}
