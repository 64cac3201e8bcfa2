package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadIdentities(t *testing.T) {
	path := writeFile(t, "devices.yaml", `
BACTO910107:
  scopeId: 0ne00
  authKey: secret
  address: 10.0.0.7
BACTO910018:
  deviceId: bacto-18
  address: 10.0.0.18
`)
	identities, err := LoadIdentities(path)
	require.NoError(t, err)
	assert.Len(t, identities, 2)
	assert.Equal(t, "BACTO910107", identities["BACTO910107"].DeviceID)
	assert.Equal(t, "secret", identities["BACTO910107"].AuthKey)
	assert.Equal(t, "bacto-18", identities["BACTO910018"].DeviceID)
}

func TestLoadIdentitiesWhenAddressMissingThenReturnError(t *testing.T) {
	path := writeFile(t, "devices.yaml", "BACTO1:\n  scopeId: s\n")
	_, err := LoadIdentities(path)
	assert.Error(t, err)
}

func TestLoadIdentitiesWhenDeviceIDRepeatedThenReturnError(t *testing.T) {
	path := writeFile(t, "devices.yaml", `
lab-a:
  deviceId: BACTO910107
  address: 10.0.0.7
lab-b:
  deviceId: BACTO910107
  address: 10.0.0.8
`)
	_, err := LoadIdentities(path)
	require.Error(t, err)
	assert.Equal(t, "device lab-b: deviceId BACTO910107 is already used by lab-a", err.Error())
}

func TestLoadIdentitiesWhenKeyCollidesWithDeviceIDThenReturnError(t *testing.T) {
	path := writeFile(t, "devices.yaml", `
BACTO910107:
  address: 10.0.0.7
lab:
  deviceId: BACTO910107
  address: 10.0.0.8
`)
	_, err := LoadIdentities(path)
	assert.Error(t, err)
}

func TestLoadIdentitiesWhenFileMissingThenReturnError(t *testing.T) {
	_, err := LoadIdentities(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadBridgeConfigurationAppliesDefaults(t *testing.T) {
	path := writeFile(t, "bridge.yaml", "cloud:\n  url: amqp://broker:5672\npollInterval: 5s\n")
	conf, err := LoadBridgeConfiguration(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, conf.PollInterval)
	assert.Equal(t, entities.DefaultDeviceUser, conf.DeviceAPI.User)
	assert.Equal(t, entities.DefaultConnectRetries, conf.ConnectRetries)
	assert.Equal(t, entities.DefaultStateDir, conf.StateDir)
}

func TestLoadBridgeConfigurationWhenEnvironmentOverridesURL(t *testing.T) {
	path := writeFile(t, "bridge.yaml", "logLevel: debug\n")
	t.Setenv("BRIDGE_CLOUD_URL", "amqp://env:5672")
	conf, err := LoadBridgeConfiguration(path)
	require.NoError(t, err)
	assert.Equal(t, "amqp://env:5672", conf.Cloud.URL)
	assert.Equal(t, "debug", conf.LogLevel)
}

func TestLoadBridgeConfigurationWhenURLMissingThenReturnError(t *testing.T) {
	path := writeFile(t, "bridge.yaml", "logLevel: debug\n")
	_, err := LoadBridgeConfiguration(path)
	assert.Error(t, err)
}

func TestGetValueFromEnvironmentVariableWhenVariableExistsThenReturnValue(t *testing.T) {
	t.Setenv("TEST_VARIABLE", "0")
	assert.Equal(t, "0", GetValueFromEnvironmentVariable("TEST_VARIABLE", "1"))
}

func TestGetValueFromEnvironmentVariableWhenVariableNotExistsThenReturnDefaultValue(t *testing.T) {
	assert.Equal(t, "1", GetValueFromEnvironmentVariable("TEST_VARIABLE_2", "1"))
}
