package mqtt

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"thermostat_control/internal/thermostat"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Actuator publishes equipment commands to an actual MQTT broker.
type Actuator struct {
	client paho.Client
	topic  string
}

// NewActuator creates an actuator connected to the given broker. An empty
// topic falls back to DefaultTopic.
func NewActuator(broker, clientID, topic string) (*Actuator, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &Actuator{client: client, topic: topic}, nil
}

// PublishTransition sends one equipment command to the broker.
// QoS 1 (at-least-once): a lost relay command leaves equipment in the
// wrong physical state, so delivery matters more than duplicates.
func (a *Actuator) PublishTransition(ctx context.Context, at time.Time, tr thermostat.CommandTransition) error {
	payload, err := FormatPayload(at, tr)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	token := a.client.Publish(a.topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}

// Close disconnects from the broker.
func (a *Actuator) Close() error {
	a.client.Disconnect(1000) // milliseconds to flush in-flight messages
	return nil
}
