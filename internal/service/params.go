package service

import "time"

// SampleParams carries one sensor reading into the control service. At is
// the sensor's timestamp, not the server clock; the FSM's monotonicity
// check applies to it.
type SampleParams struct {
	At          time.Time
	Temperature float64
	Humidity    *float64
}

// ConfigParams is a full replacement of the user-adjustable configuration.
type ConfigParams struct {
	Mode     string // "OFF" | "HEAT" | "COOL" | "AUTO" | "FAN_ONLY"
	HeatTo   float64
	CoolTo   float64
	Deadband float64
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "TRANSITION", "CONFIG_CHANGE", "ERROR"
}
