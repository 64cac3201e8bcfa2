package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const deviceID = "BACTO910107"

func newTestStore(t *testing.T) (Store, string) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestSaveThenLoadReturnsSameSnapshot(t *testing.T) {
	store, _ := newTestStore(t)
	snapshot := entities.Telemetry{"Timestamp": "T1", "ICC": 5.0, "UTCDate": "2023-08-25T08:00:00Z"}

	require.NoError(t, store.Save(deviceID, snapshot))
	loaded, result, err := store.Load(deviceID)

	assert.NoError(t, err)
	assert.Equal(t, Loaded, result)
	assert.True(t, snapshot.Equal(loaded))
}

func TestSaveOverwritesPreviousRecord(t *testing.T) {
	store, dir := newTestStore(t)
	require.NoError(t, store.Save(deviceID, entities.Telemetry{"Timestamp": "T1"}))
	require.NoError(t, store.Save(deviceID, entities.Telemetry{"Timestamp": "T2"}))

	loaded, _, _ := store.Load(deviceID)
	assert.Equal(t, entities.Telemetry{"Timestamp": "T2"}, loaded)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "last_data_BACTO910107.json", entries[0].Name())
}

func TestRecordsAreKeptPerDevice(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Save("a", entities.Telemetry{"ICC": 1.0}))
	require.NoError(t, store.Save("b", entities.Telemetry{"ICC": 2.0}))

	a, _, _ := store.Load("a")
	b, _, _ := store.Load("b")
	assert.Equal(t, 1.0, a["ICC"])
	assert.Equal(t, 2.0, b["ICC"])
}

func TestLoadWhenNoRecordThenEmptyAndMissing(t *testing.T) {
	store, _ := newTestStore(t)
	loaded, result, err := store.Load(deviceID)
	assert.NoError(t, err)
	assert.Equal(t, Missing, result)
	assert.Empty(t, loaded)
}

func TestLoadWhenCorruptRecordThenEmptyAndCorrupt(t *testing.T) {
	store, dir := newTestStore(t)
	path := filepath.Join(dir, "last_data_"+deviceID+".json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	loaded, result, err := store.Load(deviceID)
	assert.Error(t, err)
	assert.Equal(t, Corrupt, result)
	assert.NotNil(t, loaded)
	assert.Empty(t, loaded)
}

func TestLoadWhenRecordIsNotObjectThenCorrupt(t *testing.T) {
	store, dir := newTestStore(t)
	path := filepath.Join(dir, "last_data_"+deviceID+".json")
	require.NoError(t, os.WriteFile(path, []byte("null"), 0600))

	_, result, err := store.Load(deviceID)
	assert.Error(t, err)
	assert.Equal(t, Corrupt, result)
}

func TestLoadWhenReadFailsThenCorrupt(t *testing.T) {
	fsMock := new(fileManagementMock)
	fsMock.On("readStateFile", mock.Anything).Return(nil, errors.New("permission denied"))
	store := &fileStore{dir: "/state", fileManagement: fsMock}

	loaded, result, err := store.Load(deviceID)
	assert.Error(t, err)
	assert.Equal(t, Corrupt, result)
	assert.Empty(t, loaded)
	fsMock.AssertExpectations(t)
}

func TestSaveWhenWriteFailsThenPersistenceError(t *testing.T) {
	fsMock := new(fileManagementMock)
	fsMock.On("writeStateFile", "/state/last_data_"+deviceID+".json", mock.Anything).Return(errors.New("disk full"))
	store := &fileStore{dir: "/state", fileManagement: fsMock}

	err := store.Save(deviceID, entities.Telemetry{"ICC": 5.0})
	var persistenceErr *entities.PersistenceError
	require.True(t, errors.As(err, &persistenceErr))
	assert.Equal(t, deviceID, persistenceErr.DeviceID)
	fsMock.AssertExpectations(t)
}

func TestLoadResultString(t *testing.T) {
	assert.Equal(t, "loaded", Loaded.String())
	assert.Equal(t, "missing", Missing.String())
	assert.Equal(t, "corrupt", Corrupt.String())
}
