package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"LPSentinel/internal/model"
)

// Store loads and saves the monitor state.
type Store interface {
	Load() (*model.MonitorState, error)
	Save(state *model.MonitorState) error
}

// FileStore keeps the state in a JSON file. Writes go to a temp file in the
// same directory which is then renamed over the target, so a crash never
// leaves a torn file behind.
type FileStore struct {
	Path string
}

// NewFileStore returns a store for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the state. Returns a zero state if the file doesn't exist.
func (f *FileStore) Load() (*model.MonitorState, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.MonitorState{}, nil
		}
		return nil, err
	}
	return decode(data)
}

// Save writes the state atomically.
func (f *FileStore) Save(state *model.MonitorState) error {
	data, err := encode(state)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		cleanup()
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func encode(state *model.MonitorState) ([]byte, error) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*model.MonitorState, error) {
	var state model.MonitorState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &state, nil
}
