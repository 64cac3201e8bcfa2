package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/entities"
	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/gateways/cloud/network"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	CreationTimeProperty = "iothub-creation-time-utc"

	replyStatusSuccess = "success"
	replyStatusFailure = "failure"
)

// Session is the cloud channel of one device. It is never shared across devices.
type Session interface {
	SendTelemetry(telemetry entities.Telemetry, metadata map[string]string) error
	SendProperty(properties entities.Properties) error
	// Terminated does not block.
	Terminated() bool
	State() string
	Close() error
}

// Connector opens sessions. Connect makes a single attempt.
type Connector interface {
	Connect(ctx context.Context, identity entities.Identity, handlers Handlers) (Session, error)
}

type amqpConnector struct {
	baseURL      string
	filterConf   entities.DuplicationFilterConfig
	log          *logrus.Entry
	newMessaging func(url string) network.Messaging
}

func NewConnector(baseURL string, filterConf entities.DuplicationFilterConfig, log *logrus.Entry) Connector {
	return &amqpConnector{
		baseURL:    baseURL,
		filterConf: filterConf,
		log:        log,
		newMessaging: func(url string) network.Messaging {
			return network.NewAMQPHandler(network.NewAmqpConnection(url))
		},
	}
}

// DeviceURL authenticates the device with its symmetric key and selects its scope as vhost.
func DeviceURL(baseURL string, identity entities.Identity) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", errors.Wrap(err, "parse cloud url")
	}
	if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
		return "", errors.Errorf("unsupported cloud url scheme %q", parsed.Scheme)
	}
	parsed.User = url.UserPassword(identity.DeviceID, identity.AuthKey)
	if identity.ScopeID != "" {
		parsed.Path = "/" + identity.ScopeID
	}
	return parsed.String(), nil
}

func (c *amqpConnector) Connect(ctx context.Context, identity entities.Identity, handlers Handlers) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deviceURL, err := DeviceURL(c.baseURL, identity)
	if err != nil {
		return nil, err
	}

	log := c.log.WithField("device", identity.DeviceID)
	s := &session{
		deviceID: identity.DeviceID,
		log:      log,
		handlers: handlers.withDefaults(log),
		filter:   newDuplicationFilter(c.filterConf),
		msgChan:  make(chan network.InMsg),
		state:    entities.SessionConnecting,
	}

	messaging := c.newMessaging(deviceURL)
	if err := messaging.Start(); err != nil {
		return nil, errors.Wrap(err, "dial cloud")
	}
	s.messaging = messaging
	s.publisher = network.NewMsgPublisher(messaging)

	if err := network.NewMsgSubscriber(messaging).SubscribeToCloudMessages(identity.DeviceID, s.msgChan); err != nil {
		_ = messaging.Stop()
		return nil, errors.Wrap(err, "subscribe to cloud messages")
	}

	s.setState(entities.SessionConnected)
	go s.dispatch()
	log.Info("cloud session connected")
	return s, nil
}

type session struct {
	deviceID  string
	messaging network.Messaging
	publisher network.Publisher
	handlers  Handlers
	filter    *duplicationFilter
	log       *logrus.Entry
	msgChan   chan network.InMsg

	mu    sync.Mutex
	state string
}

func (s *session) SendTelemetry(telemetry entities.Telemetry, metadata map[string]string) error {
	if s.Terminated() {
		return &entities.TransportError{DeviceID: s.deviceID, Operation: "send telemetry", Err: errors.New("session terminated")}
	}
	if err := s.publisher.PublishTelemetry(s.deviceID, telemetry, metadata); err != nil {
		return &entities.TransportError{DeviceID: s.deviceID, Operation: "send telemetry", Err: err}
	}
	return nil
}

func (s *session) SendProperty(properties entities.Properties) error {
	if s.Terminated() {
		return &entities.TransportError{DeviceID: s.deviceID, Operation: "send property", Err: errors.New("session terminated")}
	}
	if err := s.publisher.PublishProperties(s.deviceID, properties); err != nil {
		return &entities.TransportError{DeviceID: s.deviceID, Operation: "send property", Err: err}
	}
	return nil
}

func (s *session) Terminated() bool {
	select {
	case <-s.messaging.Closed():
		s.setState(entities.SessionTerminated)
		return true
	default:
		return s.State() == entities.SessionTerminated
	}
}

func (s *session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *session) setState(state string) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *session) Close() error {
	s.setState(entities.SessionTerminated)
	return s.messaging.Stop()
}

func (s *session) dispatch() {
	closed := s.messaging.Closed()
	for {
		select {
		case message := <-s.msgChan:
			s.handleIsolated(message)
		case <-closed:
			return
		}
	}
}

// handleIsolated keeps a panicking handler from ending the dispatch of this
// session or the process.
func (s *session) handleIsolated(message network.InMsg) {
	defer func() {
		if recovered := recover(); recovered != nil {
			handlerErr := &entities.CommandHandlerError{
				DeviceID: s.deviceID,
				Command:  message.RoutingKey,
				Err:      fmt.Errorf("handler panicked: %v", recovered),
			}
			s.log.WithField("operation", "dispatch").Error(handlerErr)
		}
	}()
	s.handleMessage(message)
}

func (s *session) handleMessage(message network.InMsg) {
	switch message.RoutingKey {
	case network.BindingKeyPropertyUpdate(s.deviceID):
		s.handlePropertyUpdate(message)
	case network.BindingKeyCommand(s.deviceID):
		s.handleCommand(message)
	case network.BindingKeyEnqueuedCommand(s.deviceID):
		s.handleEnqueuedCommand(message)
	default:
		s.log.WithField("routingKey", message.RoutingKey).Warn("ignoring message with unknown routing key")
	}
}

func (s *session) handlePropertyUpdate(message network.InMsg) {
	log := s.log.WithField("operation", "property update")
	var update network.PropertyUpdateMessage
	if err := json.Unmarshal(message.Body, &update); err != nil {
		log.WithError(err).Error("malformed property update")
		return
	}

	success := s.handlers.OnProperty(entities.PropertyUpdate{Name: update.Name, Value: update.Value})
	ack := network.PropertyAck{ID: s.deviceID, Name: update.Name, Value: update.Value, Success: success}
	if err := s.publisher.PublishPropertyAck(ack); err != nil {
		log.WithError(err).Errorf("failed to acknowledge property %s", update.Name)
	}
}

func (s *session) handleCommand(message network.InMsg) {
	command, ok := s.decodeCommand(message, "command")
	if !ok {
		return
	}

	value, handlerErr := s.handlers.OnCommand(command)
	reply := network.CommandReply{ID: s.deviceID, Name: command.Name, Status: replyStatusSuccess, Value: value}
	if handlerErr != nil {
		reply.Status = replyStatusFailure
		reply.Error = handlerErr.Error()
		s.logCommandError(command, handlerErr)
	}

	if command.ReplyTo == "" {
		s.logCommandError(command, errors.New("command has no reply address"))
		return
	}
	if err := s.publisher.PublishCommandReply(command.ReplyTo, command.CorrelationID, reply); err != nil {
		s.logCommandError(command, errors.Wrap(err, "reply"))
	}
}

func (s *session) handleEnqueuedCommand(message network.InMsg) {
	command, ok := s.decodeCommand(message, "enqueued command")
	if !ok {
		return
	}
	s.handlers.OnEnqueuedCommand(command)
}

func (s *session) decodeCommand(message network.InMsg, operation string) (entities.Command, bool) {
	log := s.log.WithField("operation", operation)
	if s.filter.seen(message.MessageID) {
		log.WithField("messageId", message.MessageID).Debug("dropping redelivered command")
		return entities.Command{}, false
	}

	var body network.CommandMessage
	if err := json.Unmarshal(message.Body, &body); err != nil {
		log.WithError(err).Error("malformed command")
		return entities.Command{}, false
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		log.Error("command without name")
		return entities.Command{}, false
	}
	return entities.Command{
		ID:            message.MessageID,
		Name:          name,
		Value:         body.Value,
		ReplyTo:       message.ReplyTo,
		CorrelationID: message.CorrelationID,
	}, true
}

func (s *session) logCommandError(command entities.Command, err error) {
	handlerErr := &entities.CommandHandlerError{DeviceID: s.deviceID, Command: command.Name, Err: err}
	s.log.WithField("operation", "command").Error(handlerErr)
}

// CreationTimeMetadata builds the telemetry message properties from the most
// specific timestamp field present in the snapshot.
func CreationTimeMetadata(telemetry entities.Telemetry) map[string]string {
	for _, field := range entities.CreationTimeFields {
		if text := metadataValue(telemetry[field]); text != "" {
			return map[string]string{CreationTimeProperty: text}
		}
	}
	return map[string]string{}
}

func metadataValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
