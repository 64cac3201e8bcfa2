package network

import (
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	exchangeTypeDirect = "direct"
	exchangeTypeFanout = "fanout"

	exchangeDevice     = "device"
	exchangeTelemetry  = "telemetry"
	exchangeProperties = "properties"
	defaultExchange    = ""
	durable            = true
	deleteWhenUnused   = false
	exclusive          = false
	noWait             = false
	internal           = false
	noAck              = true
	noLocal            = false
	consumerTag        = ""
)

// Messaging is a single AMQP connection owned by one device session.
type Messaging interface {
	Start() error
	Stop() error
	OnMessage(msgChan chan InMsg, queueName, exchangeName, exchangeType string, keys ...string) error
	PublishPersistentMessage(exchange, exchangeType, key string, data interface{}, options *MessageOptions) error
	Closed() <-chan struct{}
}

type InMsg struct {
	Exchange      string
	RoutingKey    string
	ReplyTo       string
	CorrelationID string
	MessageID     string
	Headers       map[string]interface{}
	Body          []byte
}

// MessageOptions represents the message publishing options
type MessageOptions struct {
	Authorization string
	CorrelationID string
	MessageID     string
	Expiration    string
	Headers       map[string]interface{}
}

type AMQPHandler struct {
	connection        connection
	declaredExchanges map[string]struct{}
	exchangeLock      sync.Mutex
	closed            chan struct{}
	closeOnce         sync.Once
}

func NewAMQPHandler(connection connection) *AMQPHandler {
	return &AMQPHandler{
		connection:        connection,
		declaredExchanges: make(map[string]struct{}),
		closed:            make(chan struct{}),
	}
}

// Start makes a single connection attempt. Retrying is left to the caller.
func (a *AMQPHandler) Start() error {
	if err := a.connection.open(); err != nil {
		return err
	}
	go a.notifyWhenClosed(a.connection.notifyClose(make(chan *amqp.Error, 1)))
	return nil
}

func (a *AMQPHandler) Stop() error {
	defer a.markClosed()
	return a.connection.close()
}

// Closed is closed once the broker connection is gone, whatever the reason.
func (a *AMQPHandler) Closed() <-chan struct{} {
	return a.closed
}

func (a *AMQPHandler) OnMessage(msgChan chan InMsg, queueName, exchangeName, exchangeType string, keys ...string) error {
	err := a.declareExchange(exchangeName, exchangeType)
	if err != nil {
		return err
	}

	if err := a.connection.bindQueue(queueName, exchangeName, keys); err != nil {
		return err
	}

	deliveries, err := a.connection.consume(queueName)
	if err != nil {
		return err
	}

	go convertDeliveryToInMsg(deliveries, msgChan, a.closed)

	return nil
}

func (a *AMQPHandler) PublishPersistentMessage(exchange, exchangeType, key string, data interface{}, options *MessageOptions) error {
	//Reduces communication with the AMQP server by avoiding redeclaring an exchage of the same type.
	if exchange != defaultExchange && !a.exchangeAlreadyDeclared(exchange) {
		err := a.declareExchange(exchange, exchangeType)
		if err != nil {
			return fmt.Errorf("error declaring exchange: %w", err)
		}
	}

	err := a.connection.publish(exchange, key, data, options)
	if err != nil {
		return fmt.Errorf("error publishing message in channel: %w", err)
	}

	return nil
}

func (a *AMQPHandler) declareExchange(name, exchangeType string) error {
	if err := a.connection.declareExchange(name, exchangeType); err != nil {
		return err
	}
	a.exchangeLock.Lock()
	a.declaredExchanges[name] = struct{}{}
	a.exchangeLock.Unlock()
	return nil
}

func (a *AMQPHandler) exchangeAlreadyDeclared(exchangeName string) bool {
	a.exchangeLock.Lock()
	_, ok := a.declaredExchanges[exchangeName]
	a.exchangeLock.Unlock()
	return ok
}

// notifyWhenClosed does not reconnect: a lost connection terminates the session.
func (a *AMQPHandler) notifyWhenClosed(notify chan *amqp.Error) {
	<-notify
	a.markClosed()
}

func (a *AMQPHandler) markClosed() {
	a.closeOnce.Do(func() { close(a.closed) })
}

func convertDeliveryToInMsg(deliveries <-chan amqp.Delivery, outMsg chan InMsg, closed <-chan struct{}) {
	for d := range deliveries {
		msg := InMsg{d.Exchange, d.RoutingKey, d.ReplyTo, d.CorrelationId, d.MessageId, d.Headers, d.Body}
		select {
		case outMsg <- msg:
		case <-closed:
			return
		}
	}
}
