package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/entities"
	"github.com/sirupsen/logrus"
)

// DeviceContextBuilder resolves the collaborators of one device.
type DeviceContextBuilder func(identity entities.Identity) DeviceContext

// Fleet runs one Loop per device.
type Fleet struct {
	build DeviceContextBuilder
	log   *logrus.Entry

	mu    sync.Mutex
	loops map[string]*Loop
}

func NewFleet(build DeviceContextBuilder, log *logrus.Entry) *Fleet {
	return &Fleet{build: build, log: log, loops: make(map[string]*Loop)}
}

// Run starts every loop concurrently and waits for all of them. The returned
// map holds the devices whose loop ended with an error; the other loops keep
// running regardless of those failures.
func (f *Fleet) Run(ctx context.Context, identities []entities.Identity) map[string]error {
	var wg sync.WaitGroup
	var failuresMu sync.Mutex
	failures := make(map[string]error)

	for _, identity := range identities {
		wg.Add(1)
		go func(identity entities.Identity) {
			defer wg.Done()
			if err := f.runDevice(ctx, identity); err != nil {
				f.log.WithField("device", identity.DeviceID).WithError(err).Error("device loop stopped")
				failuresMu.Lock()
				failures[identity.DeviceID] = err
				failuresMu.Unlock()
			}
		}(identity)
	}

	wg.Wait()
	return failures
}

// Loop returns the loop of a device started by Run.
func (f *Fleet) Loop(deviceID string) (*Loop, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loop, ok := f.loops[deviceID]
	return loop, ok
}

// runDevice builds and runs one loop, turning any panic on the way into an
// error of that device.
func (f *Fleet) runDevice(ctx context.Context, identity entities.Identity) (err error) {
	var loop *Loop
	defer func() {
		if recovered := recover(); recovered != nil {
			if loop != nil {
				loop.setState(entities.LoopTerminated)
			}
			err = fmt.Errorf("device %s: loop panicked: %v", identity.DeviceID, recovered)
		}
	}()

	device := f.build(identity)
	loop = NewLoop(device)
	f.mu.Lock()
	f.loops[identity.DeviceID] = loop
	f.mu.Unlock()

	device.Metrics.loopStarted()
	defer device.Metrics.loopStopped()
	return loop.Run(ctx)
}
