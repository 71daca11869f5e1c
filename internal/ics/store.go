package ics

import (
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Store persists the most recently downloaded feed blob at a fixed path.
//
// There is exactly one writer (the Fetcher) and any number of concurrent
// readers. Replace goes through a temp file + rename so a reader always
// sees either the previous blob or the new one, never a partial write.
type Store struct {
	path string
}

// NewStore returns a Store bound to the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the blob location.
func (s *Store) Path() string {
	return s.path
}

// Replace atomically swaps the stored blob for body.
func (s *Store) Replace(body []byte) error {
	if s.path == "" {
		return errors.New("store path is empty")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".feed-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, s.path)
}

// Load returns the current blob. A missing file is reported as-is; callers
// map it to their own unavailable condition.
func (s *Store) Load() ([]byte, error) {
	return os.ReadFile(s.path)
}

// LastUpdate returns the blob's modification time, or false when no blob
// has been stored yet.
func (s *Store) LastUpdate() (time.Time, bool) {
	fi, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, false
	}
	return fi.ModTime(), true
}
