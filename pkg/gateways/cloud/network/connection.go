package network

import (
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// connection is the slice of the AMQP client a device session uses.
type connection interface {
	open() error
	declareExchange(name, kind string) error
	bindQueue(queue, exchange string, keys []string) error
	consume(queue string) (<-chan amqp.Delivery, error)
	publish(exchange, key string, data interface{}, options *MessageOptions) error
	notifyClose(receiver chan *amqp.Error) chan *amqp.Error
	close() error
}

type AmqpConnection struct {
	url     string
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewAmqpConnection(url string) *AmqpConnection {
	return &AmqpConnection{url: url}
}

// open dials the broker and opens the single channel used for everything.
func (a *AmqpConnection) open() error {
	conn, err := amqp.Dial(a.url)
	if err != nil {
		return err
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}
	a.conn, a.channel = conn, channel
	return nil
}

func (a *AmqpConnection) declareExchange(name, kind string) error {
	return a.channel.ExchangeDeclare(name, kind, durable, deleteWhenUnused, internal, noWait, nil)
}

// bindQueue declares a durable queue and binds every key of exchange to it.
func (a *AmqpConnection) bindQueue(queue, exchange string, keys []string) error {
	if _, err := a.channel.QueueDeclare(queue, durable, deleteWhenUnused, exclusive, noWait, nil); err != nil {
		return err
	}
	for _, key := range keys {
		if err := a.channel.QueueBind(queue, key, exchange, noWait, nil); err != nil {
			return fmt.Errorf("bind %s to %s: %w", queue, key, err)
		}
	}
	return nil
}

func (a *AmqpConnection) consume(queue string) (<-chan amqp.Delivery, error) {
	return a.channel.Consume(queue, consumerTag, noAck, exclusive, noLocal, noWait, nil)
}

func (a *AmqpConnection) publish(exchange, key string, data interface{}, options *MessageOptions) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("error enconding JSON message: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}
	if options != nil {
		msg.Headers = amqp.Table{}
		for name, value := range options.Headers {
			msg.Headers[name] = value
		}
		if options.Authorization != "" {
			msg.Headers["Authorization"] = options.Authorization
		}
		msg.CorrelationId = options.CorrelationID
		msg.MessageId = options.MessageID
		msg.Expiration = options.Expiration
	}
	return a.channel.Publish(exchange, key, false, false, msg)
}

func (a *AmqpConnection) notifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	return a.conn.NotifyClose(receiver)
}

// close is a no-op when the connection is already gone.
func (a *AmqpConnection) close() error {
	if a.conn == nil || a.conn.IsClosed() {
		return nil
	}
	if a.channel != nil {
		_ = a.channel.Close()
	}
	return a.conn.Close()
}
