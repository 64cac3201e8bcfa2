package logging

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestCreateLogger(t *testing.T) {
	level := "info"
	log := NewLogrus(level, os.Stdout)

	assert.Equal(t, log.level, level)
}

func TestGetLogger(t *testing.T) {
	level := "info"
	log := NewLogrus(level, os.Stdout)
	logger := log.Get("Testing")
	assert.Equal(t, logger.Logger.Out, os.Stdout)
	assert.Equal(t, "Testing", logger.Data["Context"])
}

func TestGetLoggerWhenInvalidLevelThenInfo(t *testing.T) {
	logger := NewLogrus("loud", os.Stdout).Get("Testing")
	assert.Equal(t, logrus.InfoLevel, logger.Logger.GetLevel())
}

func TestForDevice(t *testing.T) {
	var output bytes.Buffer
	logger := ForDevice(NewLogrus("debug", &output).Get("Bridge"), "BACTO910107")
	logger.Info("polled")
	assert.Contains(t, output.String(), "device=BACTO910107")
	assert.Contains(t, output.String(), "Context=Bridge")
}
