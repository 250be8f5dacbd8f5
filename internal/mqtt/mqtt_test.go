package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"thermostat_control/internal/thermostat"
)

func TestFormatPayload(t *testing.T) {
	at := time.Date(2025, 8, 27, 15, 4, 5, 0, time.FixedZone("JST", 9*3600))
	tr := thermostat.CommandTransition{
		From:    thermostat.EquipmentState{Kind: thermostat.KindIdle},
		To:      thermostat.EquipmentState{Kind: thermostat.KindHeating, Stage: 2},
		Channel: thermostat.ChannelHeatElement,
		Stage:   2,
	}

	raw, err := FormatPayload(at, tr)
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}

	var got Payload
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Equipment.Timestamp != "2025-08-27T06:04:05Z" {
		t.Errorf("timestamp not UTC RFC3339: %q", got.Equipment.Timestamp)
	}
	if got.Equipment.From != "IDLE" {
		t.Errorf("from: %q", got.Equipment.From)
	}
	if got.Equipment.To != "HEATING(stage 2)" {
		t.Errorf("to: %q", got.Equipment.To)
	}
	if got.Equipment.Channel != "heat_element" || got.Equipment.Stage != 2 {
		t.Errorf("channel/stage: %q/%d", got.Equipment.Channel, got.Equipment.Stage)
	}
}

func TestFormatPayload_OmitsZeroStage(t *testing.T) {
	tr := thermostat.CommandTransition{
		From:    thermostat.EquipmentState{Kind: thermostat.KindFanCirculating},
		To:      thermostat.EquipmentState{Kind: thermostat.KindIdle},
		Channel: thermostat.ChannelFan,
	}
	raw, err := FormatPayload(time.Now(), tr)
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}
	var m map[string]map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, present := m["equipment"]["stage"]; present {
		t.Errorf("expected stage omitted for idle command, got %s", raw)
	}
}

func TestFakeActuatorRecordsAndFails(t *testing.T) {
	fake := NewFakeActuator()
	tr := thermostat.CommandTransition{
		From:    thermostat.EquipmentState{Kind: thermostat.KindIdle},
		To:      thermostat.EquipmentState{Kind: thermostat.KindCooling, Stage: 1},
		Channel: thermostat.ChannelCompressor,
		Stage:   1,
	}

	if err := fake.PublishTransition(context.Background(), time.Now(), tr); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(fake.Transitions) != 1 || len(fake.Payloads) != 1 {
		t.Fatalf("recorded %d transitions, %d payloads", len(fake.Transitions), len(fake.Payloads))
	}

	fake.PublishError = errors.New("broker down")
	if err := fake.PublishTransition(context.Background(), time.Now(), tr); err == nil {
		t.Fatalf("expected injected error")
	}
	if len(fake.Transitions) != 1 {
		t.Fatalf("failed publish must not record")
	}

	if err := fake.Close(); err != nil || !fake.Closed {
		t.Fatalf("close: err=%v closed=%v", err, fake.Closed)
	}
}
