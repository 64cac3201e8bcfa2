package state

import (
	"os"
	"path/filepath"
)

type filesystemManagement interface {
	readStateFile(filepath string) ([]byte, error)
	writeStateFile(filepath string, data []byte) error
}

type fileManagement struct{}

func (fs *fileManagement) readStateFile(path string) ([]byte, error) {
	return os.ReadFile(filepath.Clean(path))
}

// writeStateFile replaces path through a temporary file in the same directory.
func (fs *fileManagement) writeStateFile(path string, data []byte) error {
	temp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tempName := temp.Name()
	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(tempName)
		return err
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempName)
		return err
	}
	if err := os.Rename(tempName, path); err != nil {
		os.Remove(tempName)
		return err
	}
	return nil
}
