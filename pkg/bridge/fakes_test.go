package bridge

import (
	"context"
	"sync"

	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/entities"
	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/gateways/cloud"
	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/gateways/state"
)

type pollResult struct {
	snapshot entities.Snapshot
	err      error
}

func polled(snapshot entities.Snapshot) pollResult {
	return pollResult{snapshot: snapshot}
}

func pollFailure(err error) pollResult {
	return pollResult{err: err}
}

// fakePoller replays scripted results; the last result repeats.
type fakePoller struct {
	mu             sync.Mutex
	telemetry      []pollResult
	properties     []pollResult
	telemetryCalls int
	propertyCalls  int
	addresses      []string
	onPoll         func()
}

func (p *fakePoller) PollTelemetry(ctx context.Context, address string) (entities.Telemetry, error) {
	p.mu.Lock()
	result := pick(p.telemetry, p.telemetryCalls)
	p.telemetryCalls++
	p.addresses = append(p.addresses, address)
	onPoll := p.onPoll
	p.mu.Unlock()
	if onPoll != nil {
		onPoll()
	}
	return copySnapshot(result.snapshot), result.err
}

func (p *fakePoller) PollProperties(ctx context.Context, address string) (entities.Properties, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := pick(p.properties, p.propertyCalls)
	p.propertyCalls++
	return copySnapshot(result.snapshot), result.err
}

func pick(results []pollResult, call int) pollResult {
	if len(results) == 0 {
		return pollResult{snapshot: entities.Snapshot{}}
	}
	if call >= len(results) {
		return results[len(results)-1]
	}
	return results[call]
}

func copySnapshot(snapshot entities.Snapshot) entities.Snapshot {
	if snapshot == nil {
		return nil
	}
	copied := entities.Snapshot{}
	for key, value := range snapshot {
		copied[key] = value
	}
	return copied
}

// fakeSession reports termination after terminateAfter liveness checks; a
// negative value never terminates.
type fakeSession struct {
	mu             sync.Mutex
	terminateAfter int
	checks         int
	telemetry      []entities.Telemetry
	metadata       []map[string]string
	properties     []entities.Properties
	telemetryErr   error
	propertyErr    error
	closed         bool
}

func newFakeSession(cycles int) *fakeSession {
	return &fakeSession{terminateAfter: cycles}
}

func (s *fakeSession) SendTelemetry(telemetry entities.Telemetry, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetry = append(s.telemetry, telemetry)
	s.metadata = append(s.metadata, metadata)
	return s.telemetryErr
}

func (s *fakeSession) SendProperty(properties entities.Properties) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties = append(s.properties, properties)
	return s.propertyErr
}

func (s *fakeSession) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	s.checks++
	return s.terminateAfter >= 0 && s.checks > s.terminateAfter
}

func (s *fakeSession) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return entities.SessionTerminated
	}
	return entities.SessionConnected
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) sent() (telemetry, properties int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.telemetry), len(s.properties)
}

// fakeConnector fails the first failures attempts of each device.
type fakeConnector struct {
	mu       sync.Mutex
	sessions map[string]*fakeSession
	failures map[string]int
	err      error
	calls    map[string]int
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{
		sessions: make(map[string]*fakeSession),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

func (c *fakeConnector) Connect(ctx context.Context, identity entities.Identity, handlers cloud.Handlers) (cloud.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[identity.DeviceID]++
	if c.calls[identity.DeviceID] <= c.failures[identity.DeviceID] {
		return nil, c.err
	}
	return c.sessions[identity.DeviceID], nil
}

func (c *fakeConnector) callCount(deviceID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[deviceID]
}

// failingStore wraps a store and fails every Save.
type failingStore struct {
	state.Store
	err   error
	saves int
}

func (s *failingStore) Save(deviceID string, snapshot entities.Telemetry) error {
	s.saves++
	return &entities.PersistenceError{DeviceID: deviceID, Path: "memory", Err: s.err}
}
