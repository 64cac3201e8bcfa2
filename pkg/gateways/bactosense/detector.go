package bactosense

import "github.com/janael-pinheiro/iotc-bridge-golang/pkg/entities"

// Changed reports whether current differs from the last forwarded telemetry.
// An empty previous snapshot (first run) is changed by any non-empty current one.
func Changed(previous, current entities.Telemetry) bool {
	return !previous.Equal(current)
}
