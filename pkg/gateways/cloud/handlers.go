package cloud

import (
	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/entities"
	"github.com/sirupsen/logrus"
)

// Handlers receive the inbound events of a session.
type Handlers struct {
	// OnProperty returns whether the desired property was accepted.
	OnProperty func(update entities.PropertyUpdate) bool
	// OnCommand returns the reply value sent back to the caller.
	OnCommand func(command entities.Command) (interface{}, error)
	// OnEnqueuedCommand handles commands queued while offline. No reply is sent.
	OnEnqueuedCommand func(command entities.Command)
}

// LoggingHandlers relays every inbound event to the log and accepts all property updates.
func LoggingHandlers(log *logrus.Entry) Handlers {
	return Handlers{
		OnProperty: func(update entities.PropertyUpdate) bool {
			log.WithField("operation", "property update").Infof("Received %s:%v", update.Name, update.Value)
			return true
		},
		OnCommand: func(command entities.Command) (interface{}, error) {
			log.WithField("operation", "command").Infof("Received command %s with value %v", command.Name, command.Value)
			return nil, nil
		},
		OnEnqueuedCommand: func(command entities.Command) {
			log.WithField("operation", "enqueued command").Infof("Received offline command %s with value %v", command.Name, command.Value)
		},
	}
}

func (h Handlers) withDefaults(log *logrus.Entry) Handlers {
	defaults := LoggingHandlers(log)
	if h.OnProperty == nil {
		h.OnProperty = defaults.OnProperty
	}
	if h.OnCommand == nil {
		h.OnCommand = defaults.OnCommand
	}
	if h.OnEnqueuedCommand == nil {
		h.OnEnqueuedCommand = defaults.OnEnqueuedCommand
	}
	return h
}
