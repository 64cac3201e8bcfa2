package mocks

import (
	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/gateways/cloud/network"
	"github.com/stretchr/testify/mock"
)

type PublisherMock struct {
	mock.Mock
}

func (p *PublisherMock) PublishTelemetry(deviceID string, telemetry map[string]interface{}, metadata map[string]string) error {
	args := p.Called(deviceID, telemetry, metadata)
	return args.Error(0)
}

func (p *PublisherMock) PublishProperties(deviceID string, properties map[string]interface{}) error {
	args := p.Called(deviceID, properties)
	return args.Error(0)
}

func (p *PublisherMock) PublishPropertyAck(ack network.PropertyAck) error {
	args := p.Called(ack)
	return args.Error(0)
}

func (p *PublisherMock) PublishCommandReply(replyTo, correlationID string, reply network.CommandReply) error {
	args := p.Called(replyTo, correlationID, reply)
	return args.Error(0)
}
