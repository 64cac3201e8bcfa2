package entities

import "fmt"

// TransportError is a network or HTTP failure talking to an instrument or to the cloud.
type TransportError struct {
	DeviceID  string
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("device %s: %s: transport: %v", e.DeviceID, e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is a malformed response body from an instrument.
type DecodeError struct {
	DeviceID  string
	Operation string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("device %s: %s: decode: %v", e.DeviceID, e.Operation, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PersistenceError is a failure writing the last forwarded telemetry to disk.
type PersistenceError struct {
	DeviceID string
	Path     string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("device %s: persist %s: %v", e.DeviceID, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConnectError is a failure establishing the cloud session. It ends the device loop.
type ConnectError struct {
	DeviceID string
	Attempts int
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("device %s: connect failed after %d attempt(s): %v", e.DeviceID, e.Attempts, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// CommandHandlerError is a failure replying to an inbound command.
type CommandHandlerError struct {
	DeviceID string
	Command  string
	Err      error
}

func (e *CommandHandlerError) Error() string {
	return fmt.Sprintf("device %s: command %s: %v", e.DeviceID, e.Command, e.Err)
}

func (e *CommandHandlerError) Unwrap() error { return e.Err }
