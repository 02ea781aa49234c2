package backend

import (
	"fmt"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/loopin/signage-agent/pkg/mqtt"
)

// MQTTNotifier delivers push change notifications over the shared MQTT
// connection. The console publishes an event whenever a playlist,
// assignment, or screen row relevant to a device changes; payloads are
// ignored and every event triggers a full re-sync.
type MQTTNotifier struct {
	topicPrefix string
	qos         int
	mqttClient  mqtt.MQTTClient
	logger      zerolog.Logger
}

// NewMQTTNotifier creates a notifier rooted at the given topic prefix.
func NewMQTTNotifier(topicPrefix string, qos int, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		topicPrefix: topicPrefix,
		qos:         qos,
		mqttClient:  mqttClient,
		logger:      logger,
	}
}

// deviceTopic matches events addressed to one device and, via the trailing
// wildcard, the per-table broadcast events beneath it.
func (n *MQTTNotifier) deviceTopic(deviceID string) string {
	return fmt.Sprintf("%s/%s/#", n.topicPrefix, deviceID)
}

// SubscribeChanges invokes callback on every change event for the device.
func (n *MQTTNotifier) SubscribeChanges(deviceID string, callback func()) error {
	handler := func(client MQTT.Client, msg MQTT.Message) {
		n.logger.Debug().Str("topic", msg.Topic()).Msg("Change notification received")
		callback()
	}

	token := n.mqttClient.Subscribe(n.deviceTopic(deviceID), byte(n.qos), handler)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to change notifications: %w", err)
	}

	n.logger.Info().Str("topic", n.deviceTopic(deviceID)).Msg("Subscribed to change notifications")
	return nil
}

// UnsubscribeChanges stops change delivery for the device.
func (n *MQTTNotifier) UnsubscribeChanges(deviceID string) error {
	token := n.mqttClient.Unsubscribe(n.deviceTopic(deviceID))
	token.Wait()
	return token.Error()
}
