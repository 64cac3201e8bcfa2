package bactosense

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/entities"
	"github.com/pkg/errors"
)

const (
	telemetryPath  = "/data/auto/last"
	propertiesPath = "/api/status"
	isoLocalLayout = "2006-01-02T15:04:05"

	operationPollTelemetry  = "poll telemetry"
	operationPollProperties = "poll properties"
)

// Poller reads the status endpoints of an instrument. The address is resolved
// by the caller on every call.
type Poller interface {
	PollTelemetry(ctx context.Context, address string) (entities.Telemetry, error)
	PollProperties(ctx context.Context, address string) (entities.Properties, error)
}

type httpPoller struct {
	client   *http.Client
	user     string
	password string
}

func NewPoller(conf entities.DeviceAPIConfig) Poller {
	return &httpPoller{
		client:   &http.Client{Timeout: conf.RequestTimeout},
		user:     conf.User,
		password: conf.Password,
	}
}

func (p *httpPoller) PollTelemetry(ctx context.Context, address string) (entities.Telemetry, error) {
	response, err := p.get(ctx, address, telemetryPath, operationPollTelemetry)
	if err != nil {
		return nil, err
	}
	return extractFields(response, entities.TelemetryFields), nil
}

func (p *httpPoller) PollProperties(ctx context.Context, address string) (entities.Properties, error) {
	response, err := p.get(ctx, address, propertiesPath, operationPollProperties)
	if err != nil {
		return nil, err
	}
	properties := extractFields(response, entities.PropertyFields)
	for _, field := range entities.EpochPropertyFields {
		convertEpochField(properties, field)
	}
	return properties, nil
}

func (p *httpPoller) get(ctx context.Context, address, path, operation string) (map[string]interface{}, error) {
	url := "http://" + address + path
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &entities.TransportError{Operation: operation, Err: errors.Wrap(err, "build request")}
	}
	request.SetBasicAuth(p.user, p.password)

	response, err := p.client.Do(request)
	if err != nil {
		return nil, &entities.TransportError{Operation: operation, Err: err}
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &entities.TransportError{Operation: operation, Err: fmt.Errorf("GET %s: unexpected status %s", url, response.Status)}
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, &entities.TransportError{Operation: operation, Err: errors.Wrap(err, "read body")}
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &entities.DecodeError{Operation: operation, Err: err}
	}
	if decoded == nil {
		return nil, &entities.DecodeError{Operation: operation, Err: fmt.Errorf("GET %s: body is not a JSON object", url)}
	}
	return decoded, nil
}

// extractFields copies the allow-listed fields. Absent fields stay absent.
func extractFields(response map[string]interface{}, fields []entities.Field) entities.Snapshot {
	snapshot := entities.Snapshot{}
	for _, field := range fields {
		if value, ok := response[field.Upstream]; ok {
			snapshot[field.Name] = value
		}
	}
	return snapshot
}

// convertEpochField rewrites a Unix seconds field as a local ISO-8601 string,
// dropping the field when its value is not an integer in range.
func convertEpochField(snapshot entities.Snapshot, field string) {
	value, ok := snapshot[field]
	if !ok {
		return
	}
	seconds, ok := epochSeconds(value)
	if !ok {
		delete(snapshot, field)
		return
	}
	snapshot[field] = time.Unix(seconds, 0).Local().Format(isoLocalLayout)
}

// Epochs outside years 1 to 9999 have no ISO-8601 rendering.
const (
	minEpochSeconds = -62135596800
	maxEpochSeconds = 253402300799
)

func epochSeconds(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case float64:
		if !(v >= minEpochSeconds && v <= maxEpochSeconds) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		seconds, err := v.Int64()
		return seconds, err == nil && inEpochRange(seconds)
	case string:
		seconds, err := strconv.ParseInt(v, 10, 64)
		return seconds, err == nil && inEpochRange(seconds)
	default:
		return 0, false
	}
}

func inEpochRange(seconds int64) bool {
	return seconds >= minEpochSeconds && seconds <= maxEpochSeconds
}
