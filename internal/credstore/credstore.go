// Package credstore persists per-account configuration and session material in
// a JSON file (user.json).
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"banana_bot/internal/model"
)

var (
	ErrConfigUnreadable  = errors.New("config unreadable")
	ErrConfigWriteFailed = errors.New("config write failed")
)

// DefaultFileName is looked up in the working directory.
const DefaultFileName = "user.json"

type Store struct {
	path string
	mu   sync.Mutex
}

func Open(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load() (model.Accounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigUnreadable, err)
	}
	var out model.Accounts
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrConfigUnreadable, filepath.Base(s.path), err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: %s is not a JSON object", ErrConfigUnreadable, filepath.Base(s.path))
	}
	return out, nil
}

// Save rewrites the whole mapping. The data goes to a temp file in the same
// directory first and is renamed over the target, so readers see either the
// old or the new file.
func (s *Store) Save(accounts model.Accounts) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if accounts == nil {
		accounts = model.Accounts{}
	}
	b, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigWriteFailed, err)
	}
	b = append(b, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigWriteFailed, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: %v", ErrConfigWriteFailed, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: %v", ErrConfigWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrConfigWriteFailed, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrConfigWriteFailed, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrConfigWriteFailed, err)
	}
	return nil
}
