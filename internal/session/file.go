package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// FileStorage persists the session as a single JSON file. Saves write to a
// temp file in the same directory and rename over the target, so a crashed
// write never leaves a torn record.
type FileStorage struct {
	path string
}

// NewFileStorage creates a file-backed storage adapter at path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Load reads the persisted session. A missing or unreadable file yields an
// empty session with a nil error; only a present-but-malformed file errors.
func (f *FileStorage) Load() (Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return Session{}, nil
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Save writes the session to disk, creating parent directories as needed.
func (f *FileStorage) Save(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// Clear removes the persisted session. A file that is already gone is not
// an error.
func (f *FileStorage) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
