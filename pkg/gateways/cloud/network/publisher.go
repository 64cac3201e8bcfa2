package network

const (
	routingKeyPropertyAck = "property.ack"
	defaultExpirationTime = "60000"
	headerDeviceID        = "device-id"
)

type Publisher interface {
	PublishTelemetry(deviceID string, telemetry map[string]interface{}, metadata map[string]string) error
	PublishProperties(deviceID string, properties map[string]interface{}) error
	PublishPropertyAck(ack PropertyAck) error
	PublishCommandReply(replyTo, correlationID string, reply CommandReply) error
}

type msgPublisher struct {
	amqp Messaging
}

func NewMsgPublisher(amqp Messaging) Publisher {
	return &msgPublisher{amqp}
}

// PublishTelemetry sends the snapshot as the message body. Metadata travels in the headers.
func (mp *msgPublisher) PublishTelemetry(deviceID string, telemetry map[string]interface{}, metadata map[string]string) error {
	headers := map[string]interface{}{headerDeviceID: deviceID}
	for name, value := range metadata {
		headers[name] = value
	}
	options := MessageOptions{
		Headers: headers,
	}

	return mp.amqp.PublishPersistentMessage(exchangeTelemetry, exchangeTypeFanout, deviceID, telemetry, &options)
}

func (mp *msgPublisher) PublishProperties(deviceID string, properties map[string]interface{}) error {
	options := MessageOptions{
		Headers: map[string]interface{}{headerDeviceID: deviceID},
	}

	message := PropertiesSent{
		ID:         deviceID,
		Properties: properties,
	}

	return mp.amqp.PublishPersistentMessage(exchangeProperties, exchangeTypeFanout, deviceID, message, &options)
}

func (mp *msgPublisher) PublishPropertyAck(ack PropertyAck) error {
	options := MessageOptions{
		Expiration: defaultExpirationTime,
	}

	return mp.amqp.PublishPersistentMessage(exchangeDevice, exchangeTypeDirect, routingKeyPropertyAck, ack, &options)
}

// PublishCommandReply answers a command on its reply queue through the default exchange.
func (mp *msgPublisher) PublishCommandReply(replyTo, correlationID string, reply CommandReply) error {
	options := MessageOptions{
		CorrelationID: correlationID,
		Expiration:    defaultExpirationTime,
	}

	return mp.amqp.PublishPersistentMessage(defaultExchange, exchangeTypeDirect, replyTo, reply, &options)
}
