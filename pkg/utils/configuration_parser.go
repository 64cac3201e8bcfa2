package utils

import (
	"os"
	"path/filepath"

	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/entities"
	"gopkg.in/yaml.v2"
)

type config interface {
	map[string]entities.Identity | entities.BridgeConfig
}

func readTextFile(filepathName string) ([]byte, error) {
	fileContent, err := os.ReadFile(filepath.Clean(filepathName))
	return fileContent, err
}

func ConfigurationParser[T config](filepathName string, configEntity T) (T, error) {
	fileContent, err := readTextFile(filepath.Clean(filepathName))
	if err != nil {
		return configEntity, err
	}

	err = yaml.Unmarshal(fileContent, &configEntity)
	return configEntity, err
}

// LoadBridgeConfiguration parses the bridge file, applies environment overrides and defaults.
func LoadBridgeConfiguration(filepathName string) (entities.BridgeConfig, error) {
	conf, err := ConfigurationParser(filepathName, entities.BridgeConfig{})
	if err != nil {
		return conf, err
	}
	conf.LogLevel = GetValueFromEnvironmentVariable("BRIDGE_LOG_LEVEL", conf.LogLevel)
	conf.Cloud.URL = GetValueFromEnvironmentVariable("BRIDGE_CLOUD_URL", conf.Cloud.URL)
	conf.StateDir = GetValueFromEnvironmentVariable("BRIDGE_STATE_DIR", conf.StateDir)
	conf.ApplyDefaults()
	return conf, conf.Validate()
}

// LoadIdentities parses the devices file. Entries without a deviceId take their key.
func LoadIdentities(filepathName string) (map[string]entities.Identity, error) {
	identities, err := ConfigurationParser(filepathName, make(map[string]entities.Identity))
	if err != nil {
		return nil, err
	}
	for name, identity := range identities {
		if identity.DeviceID == "" {
			identity.DeviceID = name
			identities[name] = identity
		}
	}
	return identities, entities.ValidateIdentities(identities)
}

func GetValueFromEnvironmentVariable(variableName, defaultValue string) string {
	value := os.Getenv(variableName)
	if value != "" {
		return value
	}
	return defaultValue
}
