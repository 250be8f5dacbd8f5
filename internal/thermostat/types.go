package thermostat

import (
	"fmt"
	"strings"
	"time"
)

// OperatingMode selects which setpoints the controller enforces.
// It is configuration, set externally, and persists until changed.
type OperatingMode uint8

const (
	ModeOff OperatingMode = iota
	ModeHeat
	ModeCool
	ModeAuto
	ModeFanOnly
)

func (m OperatingMode) String() string {
	switch m {
	case ModeOff:
		return "OFF"
	case ModeHeat:
		return "HEAT"
	case ModeCool:
		return "COOL"
	case ModeAuto:
		return "AUTO"
	case ModeFanOnly:
		return "FAN_ONLY"
	default:
		return fmt.Sprintf("OperatingMode(%d)", uint8(m))
	}
}

// ParseOperatingMode maps a textual mode (case-insensitive) to its enum value.
func ParseOperatingMode(s string) (OperatingMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OFF":
		return ModeOff, nil
	case "HEAT":
		return ModeHeat, nil
	case "COOL":
		return ModeCool, nil
	case "AUTO":
		return ModeAuto, nil
	case "FAN_ONLY", "FAN":
		return ModeFanOnly, nil
	default:
		return ModeOff, fmt.Errorf("unknown operating mode %q", s)
	}
}

// EquipmentKind is what the apparatus is physically commanded to do.
type EquipmentKind uint8

const (
	KindIdle EquipmentKind = iota
	KindHeating
	KindCooling
	KindFanCirculating
)

func (k EquipmentKind) String() string {
	switch k {
	case KindIdle:
		return "IDLE"
	case KindHeating:
		return "HEATING"
	case KindCooling:
		return "COOLING"
	case KindFanCirculating:
		return "FAN"
	default:
		return fmt.Sprintf("EquipmentKind(%d)", uint8(k))
	}
}

// EquipmentState is the FSM's runtime state. Stage is meaningful only for
// Heating and Cooling; it is 0 for Idle and FanCirculating.
type EquipmentState struct {
	Kind  EquipmentKind
	Stage uint8
}

func (s EquipmentState) String() string {
	if s.Stage > 0 {
		return fmt.Sprintf("%s(stage %d)", s.Kind, s.Stage)
	}
	return s.Kind.String()
}

// Channel identifies an equipment channel with its own interlock timers.
type Channel uint8

const (
	ChannelCompressor Channel = iota
	ChannelHeatElement
	ChannelFan

	numChannels = 3
)

func (c Channel) String() string {
	switch c {
	case ChannelCompressor:
		return "compressor"
	case ChannelHeatElement:
		return "heat_element"
	case ChannelFan:
		return "fan"
	default:
		return fmt.Sprintf("Channel(%d)", uint8(c))
	}
}

// channelFor maps an active equipment kind to the channel that drives it.
// Heating runs the heat element, Cooling the compressor; the dedicated fan
// channel is only commanded for FanCirculating (heating/cooling equipment
// is assumed to run its own blower).
func channelFor(k EquipmentKind) Channel {
	switch k {
	case KindHeating:
		return ChannelHeatElement
	case KindCooling:
		return ChannelCompressor
	default:
		return ChannelFan
	}
}

// Sample is one sensor reading. Humidity is optional and currently
// informational only; control decisions use temperature alone.
type Sample struct {
	Timestamp   time.Time
	Temperature float64
	Humidity    *float64
}

// CommandTransition is emitted when, and only when, the equipment state
// actually changes. It is the controller's sole output.
type CommandTransition struct {
	From    EquipmentState
	To      EquipmentState
	Channel Channel
	Stage   uint8
}

func (t CommandTransition) String() string {
	return fmt.Sprintf("%s -> %s via %s", t.From, t.To, t.Channel)
}
