package entities

import "reflect"

const (
	SessionDisconnected string = "disconnected"
	SessionConnecting   string = "connecting"
	SessionConnected    string = "connected"
	SessionTerminated   string = "terminated"
)

const (
	LoopInitializing string = "initializing"
	LoopConnecting   string = "connecting"
	LoopPolling      string = "polling"
	LoopEvaluating   string = "evaluating"
	LoopForwarding   string = "forwarding"
	LoopPersisting   string = "persisting"
	LoopIdle         string = "idle"
	LoopTerminated   string = "terminated"
)

// Identity holds the settings of one instrument. It is loaded once and never mutated.
type Identity struct {
	DeviceID string `yaml:"deviceId"`
	ScopeID  string `yaml:"scopeId"`
	AuthKey  string `yaml:"authKey"`
	Address  string `yaml:"address"`
}

// Snapshot maps field names to the scalar values read from an instrument.
type Snapshot map[string]interface{}

// Telemetry is the time-varying measurement data of an instrument.
type Telemetry = Snapshot

// Properties is the status data of an instrument.
type Properties = Snapshot

// Equal reports whether both snapshots hold the same field/value pairs.
// A nil snapshot equals an empty one.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for key, value := range s {
		otherValue, ok := other[key]
		if !ok || !reflect.DeepEqual(value, otherValue) {
			return false
		}
	}
	return true
}

// Field maps a bridge field name to the name used by the instrument API.
type Field struct {
	Name     string
	Upstream string
}

var TelemetryFields = []Field{
	{"Timestamp", "timestamp"},
	{"ICC", "ICC"},
	{"TCC", "TCC"},
	{"HNAP", "HNAP"},
	{"Date", "date"},
	{"UTCDate", "dateUtc"},
}

var PropertyFields = []Field{
	{"CartridgeLevel", "cartridgeLevel"},
	{"Version", "version"},
	{"CartridgeExpiry", "cartridgeExpiry"},
	{"DiskMeasurementsRemaining", "diskMeasurementsRemaining"},
	{"PumpMotions", "pumpMotions"},
	{"PlungerMotions", "plungerMotions"},
	{"ValveMotions", "valveMotions"},
	{"MixerMotions", "mixerMotions"},
	{"CartridgeSerial", "cartridgeSerial"},
	{"SerialNumber", "serialNumber"},
	{"NextServiceDue", "nextServiceDue"},
	{"Temperature", "temperature"},
}

// Epoch fields are sent by the instrument as Unix seconds.
var EpochPropertyFields = []string{"NextServiceDue", "CartridgeExpiry"}

// Creation time candidates, most specific first.
var CreationTimeFields = []string{"UTCDate", "Date", "Timestamp"}

type Command struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Value         interface{} `json:"value"`
	ReplyTo       string      `json:"-"`
	CorrelationID string      `json:"-"`
}

type PropertyUpdate struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}
