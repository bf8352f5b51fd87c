// Package blobstore is a string-keyed JSON blob store: get-whole-blob,
// set-whole-blob, no partial updates. Writes go through a temp file and
// rename so a crash never leaves a half-written blob.
package blobstore

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Store persists JSON blobs under a base directory, one file per key.
type Store struct {
	dir string
}

func New(dir string) *Store { return &Store{dir: dir} }

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get unmarshals the blob for key into v. A missing blob returns (false, nil).
func (s *Store) Get(key string, v interface{}) (bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

// Set marshals v and replaces the blob for key.
func (s *Store) Set(key string, v interface{}) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
