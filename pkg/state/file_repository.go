package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
)

// OffsetSuffix is appended to a followed file's path to name its
// default checkpoint file.
const OffsetSuffix = ".qoncrete-offset"

// FileRepository implements Repository using a JSON file.
type FileRepository struct {
	path string
}

// NewFileRepository creates a repository storing state at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// DefaultPath returns the checkpoint path used for input when none is given.
func DefaultPath(input string) string {
	return input + OffsetSuffix
}

// Load retrieves the last saved state from disk.
// Returns an empty state and nil error if no state file exists.
func (r *FileRepository) Load(ctx context.Context) (State, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, err
	}

	return state, nil
}

// Save persists the current state atomically.
// Uses atomic write (write to temp file, then rename) to prevent corruption.
func (r *FileRepository) Save(ctx context.Context, state State) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return err
	}

	tmp := r.path + ".tmp"

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}

	return os.Rename(tmp, r.path)
}

// Path returns the full path to the state file.
func (r *FileRepository) Path() string {
	return r.path
}
