package network

import (
	"sync"

	"github.com/stretchr/testify/mock"
)

type AmqpMock struct {
	mock.Mock
	closed chan struct{}
	once   sync.Once
}

func NewAmqpMock() *AmqpMock {
	return &AmqpMock{closed: make(chan struct{})}
}

func (m *AmqpMock) Start() error {
	args := m.Called()
	return args.Error(0)
}

func (m *AmqpMock) Stop() error {
	args := m.Called()
	m.CloseConnection()
	return args.Error(0)
}

func (m *AmqpMock) OnMessage(msgChan chan InMsg, queueName, exchangeName, exchangeType string, keys ...string) error {
	args := m.Called(msgChan, queueName, exchangeName, exchangeType, keys)
	return args.Error(0)
}

func (m *AmqpMock) PublishPersistentMessage(exchange, exchangeType, key string, data interface{}, options *MessageOptions) error {
	args := m.Called(exchange, exchangeType, key, data, options)
	return args.Error(0)
}

func (m *AmqpMock) Closed() <-chan struct{} {
	return m.closed
}

// CloseConnection simulates the broker dropping the connection.
func (m *AmqpMock) CloseConnection() {
	m.once.Do(func() { close(m.closed) })
}
