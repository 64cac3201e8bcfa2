package entities

import (
	"fmt"
	"sort"
	"time"
)

const (
	DefaultPollInterval       = 30 * time.Second
	DefaultRequestTimeout     = 10 * time.Second
	DefaultConnectRetries     = 1
	DefaultStateDir           = "."
	DefaultDeviceUser         = "service"
	DefaultDevicePassword     = "0603"
	DefaultFilterCapacity     = 100000
	DefaultFilterProbability  = 0.01
	DefaultFilterResetPercent = 75
	DefaultLogLevel           = "info"
)

type DeviceAPIConfig struct {
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

type CloudConfig struct {
	URL string `yaml:"url"`
}

type DuplicationFilterConfig struct {
	Capacity     uint    `yaml:"capacity"`
	Probability  float64 `yaml:"probability"`
	ResetPercent float32 `yaml:"resetPercent"`
}

// BridgeConfig holds the process wide settings of the bridge.
type BridgeConfig struct {
	LogLevel          string                  `yaml:"logLevel"`
	StateDir          string                  `yaml:"stateDir"`
	PollInterval      time.Duration           `yaml:"pollInterval"`
	ConnectRetries    int                     `yaml:"connectRetries"`
	Cloud             CloudConfig             `yaml:"cloud"`
	DeviceAPI         DeviceAPIConfig         `yaml:"deviceApi"`
	DuplicationFilter DuplicationFilterConfig `yaml:"duplicationFilter"`
}

func (c *BridgeConfig) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.StateDir == "" {
		c.StateDir = DefaultStateDir
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ConnectRetries <= 0 {
		c.ConnectRetries = DefaultConnectRetries
	}
	if c.DeviceAPI.User == "" {
		c.DeviceAPI.User = DefaultDeviceUser
		c.DeviceAPI.Password = DefaultDevicePassword
	}
	if c.DeviceAPI.RequestTimeout <= 0 {
		c.DeviceAPI.RequestTimeout = DefaultRequestTimeout
	}
	if c.DuplicationFilter.Capacity == 0 {
		c.DuplicationFilter.Capacity = DefaultFilterCapacity
	}
	if c.DuplicationFilter.Probability <= 0 {
		c.DuplicationFilter.Probability = DefaultFilterProbability
	}
	if c.DuplicationFilter.ResetPercent <= 0 {
		c.DuplicationFilter.ResetPercent = DefaultFilterResetPercent
	}
}

func (c *BridgeConfig) Validate() error {
	if c.Cloud.URL == "" {
		return fmt.Errorf("cloud url is required")
	}
	return nil
}

// ValidateIdentities checks that every configured device can be polled and
// connected, and that no two entries name the same device.
func ValidateIdentities(identities map[string]Identity) error {
	if len(identities) == 0 {
		return fmt.Errorf("no devices configured")
	}
	names := make([]string, 0, len(identities))
	for name := range identities {
		names = append(names, name)
	}
	sort.Strings(names)

	owners := make(map[string]string, len(identities))
	for _, name := range names {
		identity := identities[name]
		if identity.DeviceID == "" {
			return fmt.Errorf("device %s: deviceId is required", name)
		}
		if identity.Address == "" {
			return fmt.Errorf("device %s: address is required", name)
		}
		if owner, taken := owners[identity.DeviceID]; taken {
			return fmt.Errorf("device %s: deviceId %s is already used by %s", name, identity.DeviceID, owner)
		}
		owners[identity.DeviceID] = name
	}
	return nil
}
