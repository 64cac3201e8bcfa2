package network

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscribeToCloudMessages(t *testing.T) {
	amqpMock := NewAmqpMock()
	msgChan := make(chan InMsg)
	keys := []string{"BACTO910107.property", "BACTO910107.command", "BACTO910107.command.enqueued"}
	amqpMock.On("OnMessage", msgChan, "device-BACTO910107-inbound", exchangeDevice, exchangeTypeDirect, keys).Return(nil)
	subscriber := NewMsgSubscriber(amqpMock)
	err := subscriber.SubscribeToCloudMessages(testDeviceID, msgChan)
	assert.NoError(t, err)
	amqpMock.AssertExpectations(t)
}

func TestSubscribeToCloudMessagesWhenBindFailsReturnError(t *testing.T) {
	amqpMock := NewAmqpMock()
	msgChan := make(chan InMsg)
	amqpMock.On("OnMessage", msgChan, QueueName(testDeviceID), exchangeDevice, exchangeTypeDirect, []string{
		BindingKeyPropertyUpdate(testDeviceID),
		BindingKeyCommand(testDeviceID),
		BindingKeyEnqueuedCommand(testDeviceID),
	}).Return(errors.New("access refused"))
	subscriber := NewMsgSubscriber(amqpMock)
	err := subscriber.SubscribeToCloudMessages(testDeviceID, msgChan)
	assert.Error(t, err)
}
