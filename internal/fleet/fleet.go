// Package fleet owns the canonical device list. Every mutation is written
// through to persistence; a failed write is reported but the in-memory list
// keeps the change.
package fleet

import (
	"fmt"
	"sync"

	"github.com/rileyhilliard/swarm/internal/device"
	"github.com/rileyhilliard/swarm/internal/errors"
	"github.com/rileyhilliard/swarm/internal/logger"
	"github.com/rileyhilliard/swarm/internal/persist"
)

// Store is the fleet list, unique by IP. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	devices []device.Device
	index   map[string]int

	db  *persist.Store
	log logger.Logger
}

// New creates an empty store writing through to db.
func New(db *persist.Store, log logger.Logger) *Store {
	if log == nil {
		log = logger.Noop()
	}
	return &Store{db: db, log: log, index: make(map[string]int)}
}

// Load reads the persisted list. Reports whether one existed. Duplicate
// addresses in stored data collapse to the first.
func (s *Store) Load() (bool, error) {
	var stored []device.Device
	ok, err := s.db.GetObject(persist.KeyFleet, &stored)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(dedupe(stored))
	s.log.Debug("loaded %d devices from storage", len(s.devices))
	return ok, nil
}

// Snapshot returns a deep copy of the list.
func (s *Store) Snapshot() []device.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]device.Device, len(s.devices))
	for i, d := range s.devices {
		out[i] = d.Clone()
	}
	return out
}

// Get returns a copy of the record for ip.
func (s *Store) Get(ip string) (device.Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[ip]
	if !ok {
		return device.Device{}, false
	}
	return s.devices[i].Clone(), true
}

// Contains reports whether ip is in the fleet.
func (s *Store) Contains(ip string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[ip]
	return ok
}

// IPs lists the known addresses in list order.
func (s *Store) IPs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.devices))
	for i, d := range s.devices {
		out[i] = d.IP
	}
	return out
}

// Len returns the number of devices.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.devices)
}

// Merge appends records whose IP is not already known. Existing records
// are never touched. Returns how many were added.
func (s *Store) Merge(records []device.Device) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, r := range records {
		if _, ok := s.index[r.IP]; ok {
			continue
		}
		s.index[r.IP] = len(s.devices)
		s.devices = append(s.devices, r.Clone())
		added++
	}
	return added, s.persist()
}

// Replace makes records the whole fleet.
func (s *Store) Replace(records []device.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(dedupe(records))
	return s.persist()
}

// Insert adds one record. Fails with DuplicateDevice when the IP is known.
func (s *Store) Insert(d device.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[d.IP]; ok {
		return Duplicate(d.IP)
	}
	s.index[d.IP] = len(s.devices)
	s.devices = append(s.devices, d.Clone())
	return s.persist()
}

// Remove deletes the record for ip. Removing an unknown address is a no-op
// and still persists.
func (s *Store) Remove(ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[ip]; ok {
		s.devices = append(s.devices[:i], s.devices[i+1:]...)
		s.reindex()
	}
	return s.persist()
}

// Duplicate is the error for adding a known address.
func Duplicate(ip string) error {
	return errors.New(errors.ErrDuplicateDevice,
		fmt.Sprintf("%s is already in the swarm", ip),
		"Run 'swarm refresh' to update it instead")
}

// persist writes the full list. Caller holds s.mu.
func (s *Store) persist() error {
	if err := s.db.SetObject(persist.KeyFleet, s.devices); err != nil {
		s.log.Error("saving fleet: %v", err)
		return err
	}
	return nil
}

func (s *Store) reset(records []device.Device) {
	s.devices = records
	s.reindex()
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.devices))
	for i, d := range s.devices {
		s.index[d.IP] = i
	}
}

func dedupe(records []device.Device) []device.Device {
	seen := make(map[string]bool, len(records))
	out := make([]device.Device, 0, len(records))
	for _, r := range records {
		if seen[r.IP] {
			continue
		}
		seen[r.IP] = true
		out = append(out, r.Clone())
	}
	return out
}
