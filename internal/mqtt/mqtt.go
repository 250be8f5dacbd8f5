// Package mqtt delivers equipment commands to the relay driver over an
// MQTT broker, with a recording fake for tests.
package mqtt

import (
	"encoding/json"
	"time"

	"thermostat_control/internal/thermostat"
)

// DefaultTopic is the topic the relay driver subscribes to.
const DefaultTopic = "home/thermostat/equipment"

// Payload is the wire format of one equipment command.
type Payload struct {
	Equipment EquipmentPayload `json:"equipment"`
}

// EquipmentPayload describes a single commanded transition.
type EquipmentPayload struct {
	Timestamp string `json:"timestamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	Channel   string `json:"channel"`
	Stage     uint8  `json:"stage,omitempty"`
}

// FormatPayload creates the JSON payload for an equipment transition.
func FormatPayload(at time.Time, tr thermostat.CommandTransition) ([]byte, error) {
	payload := Payload{
		Equipment: EquipmentPayload{
			Timestamp: at.UTC().Format(time.RFC3339),
			From:      tr.From.String(),
			To:        tr.To.String(),
			Channel:   tr.Channel.String(),
			Stage:     tr.Stage,
		},
	}
	return json.Marshal(payload)
}
