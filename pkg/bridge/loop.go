package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/entities"
	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/gateways/bactosense"
	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/gateways/cloud"
	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/gateways/state"
	"github.com/sirupsen/logrus"
)

// DeviceContext is everything one device loop works with. Only the log sink
// and the metrics are shared between devices.
type DeviceContext struct {
	Identity       entities.Identity
	Poller         bactosense.Poller
	Store          state.Store
	Connector      cloud.Connector
	Handlers       cloud.Handlers
	Metrics        *Metrics
	Log            *logrus.Entry
	PollInterval   time.Duration
	ConnectRetries int
	// ConnectBackOff paces connect retries; exponential when nil.
	ConnectBackOff backoff.BackOff
}

// Loop synchronizes one device with the cloud.
type Loop struct {
	device        DeviceContext
	log           *logrus.Entry
	session       cloud.Session
	lastForwarded entities.Telemetry

	mu    sync.Mutex
	state string
}

func NewLoop(device DeviceContext) *Loop {
	if device.PollInterval <= 0 {
		device.PollInterval = entities.DefaultPollInterval
	}
	if device.ConnectRetries <= 0 {
		device.ConnectRetries = entities.DefaultConnectRetries
	}
	return &Loop{
		device: device,
		log:    device.Log.WithField("device", device.Identity.DeviceID),
		state:  entities.LoopInitializing,
	}
}

func (l *Loop) State() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loop) setState(state string) {
	l.mu.Lock()
	l.state = state
	l.mu.Unlock()
}

// Run blocks until the session terminates or ctx is done, which both end the
// loop without error. Only a failed connection is returned, as a ConnectError.
func (l *Loop) Run(ctx context.Context) error {
	l.initialize()

	l.setState(entities.LoopConnecting)
	session, err := l.connect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			l.terminate("shutdown requested while connecting")
			return nil
		}
		l.setState(entities.LoopTerminated)
		return err
	}
	l.session = session
	defer func() {
		if err := session.Close(); err != nil {
			l.log.WithError(err).Warn("closing cloud session")
		}
	}()

	for {
		if session.Terminated() {
			l.terminate("cloud session terminated")
			return nil
		}
		if ctx.Err() != nil {
			l.terminate("shutdown requested")
			return nil
		}

		l.cycle(ctx)

		l.setState(entities.LoopIdle)
		l.idle(ctx)
	}
}

func (l *Loop) initialize() {
	l.setState(entities.LoopInitializing)
	snapshot, result, err := l.device.Store.Load(l.device.Identity.DeviceID)
	log := l.log.WithFields(logrus.Fields{"operation": "load state", "result": result.String()})
	switch result {
	case state.Loaded:
		log.Info("restored last forwarded telemetry")
	case state.Missing:
		log.Info("no saved telemetry, starting empty")
	default:
		log.WithError(err).Warn("saved telemetry unreadable, starting empty")
	}
	l.lastForwarded = snapshot
}

func (l *Loop) connect(ctx context.Context) (cloud.Session, error) {
	var session cloud.Session
	attempts := 0
	operation := func() error {
		attempts++
		s, err := l.device.Connector.Connect(ctx, l.device.Identity, l.device.Handlers)
		if err != nil {
			l.device.Metrics.connectError(l.device.Identity.DeviceID)
			l.log.WithFields(logrus.Fields{"operation": "connect", "attempt": attempts}).WithError(err).Warn("cloud connection failed")
			return err
		}
		session = s
		return nil
	}

	policy := l.device.ConnectBackOff
	if policy == nil {
		policy = backoff.NewExponentialBackOff()
	}
	retries := uint64(l.device.ConnectRetries - 1)
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx))
	if err != nil {
		return nil, &entities.ConnectError{DeviceID: l.device.Identity.DeviceID, Attempts: attempts, Err: err}
	}
	return session, nil
}

// cycle polls, forwards and persists once. A failed poll forwards nothing.
func (l *Loop) cycle(ctx context.Context) {
	deviceID := l.device.Identity.DeviceID
	address := l.device.Identity.Address

	l.setState(entities.LoopPolling)
	l.device.Metrics.poll(deviceID)
	telemetry, err := l.device.Poller.PollTelemetry(ctx, address)
	if err != nil {
		l.pollFailed(err)
		return
	}
	properties, err := l.device.Poller.PollProperties(ctx, address)
	if err != nil {
		l.pollFailed(err)
		return
	}

	l.setState(entities.LoopEvaluating)
	changed := bactosense.Changed(l.lastForwarded, telemetry)

	l.setState(entities.LoopForwarding)
	if changed {
		if err := l.session.SendTelemetry(telemetry, cloud.CreationTimeMetadata(telemetry)); err != nil {
			l.device.Metrics.sendError(deviceID, "telemetry")
			l.log.WithField("operation", "send telemetry").WithError(err).Error("telemetry not forwarded, retrying next cycle")
			return
		}
		l.device.Metrics.telemetryForwarded(deviceID)
		l.log.WithField("operation", "send telemetry").Debug("telemetry forwarded")
	} else {
		l.log.WithField("operation", "evaluate").Info("No new data, waiting...")
	}

	if err := l.session.SendProperty(properties); err != nil {
		l.device.Metrics.sendError(deviceID, "property")
		l.log.WithField("operation", "send property").WithError(err).Error("properties not forwarded")
	} else {
		l.device.Metrics.propertiesForwarded(deviceID)
	}

	if !changed {
		return
	}

	l.setState(entities.LoopPersisting)
	l.lastForwarded = telemetry
	if err := l.device.Store.Save(deviceID, telemetry); err != nil {
		l.device.Metrics.persistError(deviceID)
		l.log.WithField("operation", "save state").WithError(err).Error("last forwarded telemetry kept in memory only")
	}
}

func (l *Loop) pollFailed(err error) {
	kind := "transport"
	operation := "poll"
	var decodeErr *entities.DecodeError
	var transportErr *entities.TransportError
	switch {
	case errors.As(err, &decodeErr):
		kind = "decode"
		decodeErr.DeviceID = l.device.Identity.DeviceID
		operation = decodeErr.Operation
	case errors.As(err, &transportErr):
		transportErr.DeviceID = l.device.Identity.DeviceID
		operation = transportErr.Operation
	}
	l.device.Metrics.pollError(l.device.Identity.DeviceID, kind)
	l.log.WithFields(logrus.Fields{"operation": operation, "kind": kind}).WithError(err).Error("poll failed, skipping cycle")
}

// idle sleeps the poll interval, or less if ctx is done.
func (l *Loop) idle(ctx context.Context) {
	timer := time.NewTimer(l.device.PollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (l *Loop) terminate(reason string) {
	l.setState(entities.LoopTerminated)
	l.log.WithField("reason", reason).Info("device loop terminated")
}
