package backend

import (
	"errors"
	"testing"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/loopin/signage-agent/tests/mocks"
)

func TestMQTTNotifier_SubscribeChanges(t *testing.T) {
	mockClient := new(mocks.MockMQTTClient)
	token := new(mocks.MockToken)
	token.On("Wait").Return(true)
	token.On("Error").Return(nil)

	var captured MQTT.MessageHandler
	mockClient.On("Subscribe", "screens/changes/SCRN-AB12CD/#", byte(1), mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(MQTT.MessageHandler)
		}).Return(token)

	n := NewMQTTNotifier("screens/changes", 1, mockClient, zerolog.Nop())

	calls := 0
	err := n.SubscribeChanges("SCRN-AB12CD", func() { calls++ })
	assert.NoError(t, err)
	assert.NotNil(t, captured)

	// Payload content is irrelevant; every event triggers the callback.
	captured(nil, mocks.NewMockMessage("screens/changes/SCRN-AB12CD/playlists", []byte(`{}`)))
	captured(nil, mocks.NewMockMessage("screens/changes/SCRN-AB12CD/screens", nil))
	assert.Equal(t, 2, calls)
}

func TestMQTTNotifier_SubscribeFailure(t *testing.T) {
	mockClient := new(mocks.MockMQTTClient)
	token := new(mocks.MockToken)
	token.On("Wait").Return(true)
	token.On("Error").Return(errors.New("broker unavailable"))

	mockClient.On("Subscribe", mock.Anything, mock.Anything, mock.Anything).Return(token)

	n := NewMQTTNotifier("screens/changes", 1, mockClient, zerolog.Nop())

	err := n.SubscribeChanges("SCRN-AB12CD", func() {})
	assert.Error(t, err)
}

func TestMQTTNotifier_UnsubscribeChanges(t *testing.T) {
	mockClient := new(mocks.MockMQTTClient)
	token := new(mocks.MockToken)
	token.On("Wait").Return(true)
	token.On("Error").Return(nil)

	mockClient.On("Unsubscribe", []string{"screens/changes/SCRN-AB12CD/#"}).Return(token)

	n := NewMQTTNotifier("screens/changes", 1, mockClient, zerolog.Nop())

	assert.NoError(t, n.UnsubscribeChanges("SCRN-AB12CD"))
	mockClient.AssertExpectations(t)
}
