package network

import "fmt"

const (
	suffixPropertyUpdate  = ".property"
	suffixCommand         = ".command"
	suffixEnqueuedCommand = ".command.enqueued"
)

type Subscriber interface {
	SubscribeToCloudMessages(deviceID string, msgChan chan InMsg) error
}

type msgSubscriber struct {
	amqp Messaging
}

func NewMsgSubscriber(amqp Messaging) Subscriber {
	return &msgSubscriber{amqp}
}

func QueueName(deviceID string) string {
	return fmt.Sprintf("device-%s-inbound", deviceID)
}

func BindingKeyPropertyUpdate(deviceID string) string {
	return deviceID + suffixPropertyUpdate
}

func BindingKeyCommand(deviceID string) string {
	return deviceID + suffixCommand
}

func BindingKeyEnqueuedCommand(deviceID string) string {
	return deviceID + suffixEnqueuedCommand
}

func (ms *msgSubscriber) SubscribeToCloudMessages(deviceID string, msgChan chan InMsg) error {
	return ms.amqp.OnMessage(msgChan, QueueName(deviceID), exchangeDevice, exchangeTypeDirect,
		BindingKeyPropertyUpdate(deviceID),
		BindingKeyCommand(deviceID),
		BindingKeyEnqueuedCommand(deviceID),
	)
}
