package models

import "time"

// ThermostatState is the persisted snapshot of the controller: active
// configuration, commanded equipment, and the latest sensor reading.
type ThermostatState struct {
	ID          int       `json:"id"`
	Mode        string    `json:"mode"`            // OFF | HEAT | COOL | AUTO | FAN_ONLY
	Equipment   string    `json:"equipment"`       // IDLE | HEATING | COOLING | FAN
	Stage       uint8     `json:"stage,omitempty"` // 0 unless multi-stage heat/cool is engaged
	CurrentTemp float64   `json:"current_temp"`
	Humidity    *float64  `json:"humidity,omitempty"` // percent relative humidity, when the sensor reports it
	HeatTo      float64   `json:"heat_to,omitempty"`
	CoolTo      float64   `json:"cool_to,omitempty"`
	Deadband    float64   `json:"deadband"`
	UpdatedAt   time.Time `json:"updated_at"`
}
