// Package persist is swarm's durable key/value storage for the fleet list
// and user preferences.
package persist

import (
	"encoding/json"
	"strconv"

	"github.com/rileyhilliard/swarm/internal/errors"
)

// Keys under which swarm state is stored.
const (
	KeyFleet           = "SWARM_DATA"
	KeyRefreshInterval = "SWARM_REFRESH_TIME"
	KeySorting         = "SWARM_SORTING"
	KeyGridView        = "SWARM_GRID_VIEW"
)

// Backend stores raw values by key.
type Backend interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Close() error
}

// Store layers typed accessors over a Backend.
type Store struct {
	backend Backend
}

// New wraps a backend.
func New(b Backend) *Store {
	return &Store{backend: b}
}

// GetObject decodes the JSON value at key into v.
// Returns false with no error when the key was never written.
func (s *Store) GetObject(key string, v interface{}) (bool, error) {
	raw, ok, err := s.backend.Get(key)
	if err != nil {
		return false, readFailure(key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, errors.WrapWithCode(err, errors.ErrPersistence,
			"Stored value for "+key+" is corrupt",
			"Delete the swarm database to start fresh")
	}
	return true, nil
}

// SetObject stores v as JSON.
func (s *Store) SetObject(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrPersistence,
			"Couldn't encode "+key, "")
	}
	return s.set(key, raw)
}

// GetBool returns the boolean at key, false when absent or unparsable.
func (s *Store) GetBool(key string) (bool, error) {
	raw, ok, err := s.backend.Get(key)
	if err != nil {
		return false, readFailure(key, err)
	}
	if !ok {
		return false, nil
	}
	b, err := strconv.ParseBool(string(raw))
	if err != nil {
		return false, nil
	}
	return b, nil
}

// SetBool stores a boolean.
func (s *Store) SetBool(key string, v bool) error {
	return s.set(key, []byte(strconv.FormatBool(v)))
}

// GetNumber returns the number at key and whether one was stored.
func (s *Store) GetNumber(key string) (float64, bool, error) {
	raw, ok, err := s.backend.Get(key)
	if err != nil {
		return 0, false, readFailure(key, err)
	}
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

// SetNumber stores a number.
func (s *Store) SetNumber(key string, v float64) error {
	return s.set(key, []byte(strconv.FormatFloat(v, 'f', -1, 64)))
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) set(key string, raw []byte) error {
	if err := s.backend.Set(key, raw); err != nil {
		return errors.WrapWithCode(err, errors.ErrPersistence,
			"Couldn't save "+key,
			"Check that the swarm database is writable")
	}
	return nil
}

func readFailure(key string, err error) error {
	return errors.WrapWithCode(err, errors.ErrPersistence,
		"Couldn't read "+key,
		"Check that the swarm database exists and is readable")
}
