package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/entities"
	"github.com/pkg/errors"
)

// LoadResult tells how the starting snapshot of a device was obtained.
type LoadResult int

const (
	Loaded LoadResult = iota
	Missing
	Corrupt
)

func (r LoadResult) String() string {
	switch r {
	case Loaded:
		return "loaded"
	case Missing:
		return "missing"
	case Corrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("LoadResult(%d)", int(r))
	}
}

// Store keeps the last forwarded telemetry of each device.
type Store interface {
	Load(deviceID string) (entities.Telemetry, LoadResult, error)
	Save(deviceID string, snapshot entities.Telemetry) error
}

type fileStore struct {
	dir            string
	fileManagement filesystemManagement
}

// NewFileStore keeps one JSON document per device under dir.
func NewFileStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create state directory")
	}
	return &fileStore{dir: dir, fileManagement: new(fileManagement)}, nil
}

func (s *fileStore) path(deviceID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("last_data_%s.json", deviceID))
}

// Load never fails startup: a missing or unreadable record yields an empty
// snapshot. The returned error carries the cause for Missing and Corrupt results.
func (s *fileStore) Load(deviceID string) (entities.Telemetry, LoadResult, error) {
	path := s.path(deviceID)
	data, err := s.fileManagement.readStateFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entities.Telemetry{}, Missing, nil
		}
		return entities.Telemetry{}, Corrupt, errors.Wrapf(err, "read %s", path)
	}

	var snapshot entities.Telemetry
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return entities.Telemetry{}, Corrupt, errors.Wrapf(err, "decode %s", path)
	}
	if snapshot == nil {
		return entities.Telemetry{}, Corrupt, fmt.Errorf("decode %s: not a JSON object", path)
	}
	return snapshot, Loaded, nil
}

func (s *fileStore) Save(deviceID string, snapshot entities.Telemetry) error {
	path := s.path(deviceID)
	if snapshot == nil {
		snapshot = entities.Telemetry{}
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return &entities.PersistenceError{DeviceID: deviceID, Path: path, Err: errors.Wrap(err, "encode")}
	}
	if err := s.fileManagement.writeStateFile(path, data); err != nil {
		return &entities.PersistenceError{DeviceID: deviceID, Path: path, Err: err}
	}
	return nil
}
