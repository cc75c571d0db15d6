package swarm

import (
	"sync"

	"github.com/rileyhilliard/swarm/internal/aggregate"
	"github.com/rileyhilliard/swarm/internal/device"
	"github.com/rileyhilliard/swarm/internal/fleet"
	"github.com/rileyhilliard/swarm/internal/logger"
	"github.com/rileyhilliard/swarm/internal/persist"
	"github.com/rileyhilliard/swarm/internal/probe"
	"github.com/rileyhilliard/swarm/internal/schedule"
	"github.com/rileyhilliard/swarm/internal/view"
)

// Swarm is the engine: the fleet, its orchestrator and the stored
// presentation preferences.
type Swarm struct {
	*Orchestrator

	store  *fleet.Store
	db     *persist.Store
	policy *schedule.Policy
	log    logger.Logger

	mu     sync.Mutex
	sorter *view.Sorter
	grid   bool
	loaded bool
}

// Config holds everything Open needs beyond storage and the prober.
type Config struct {
	Options
	// RefreshInterval seeds the refresh policy when none is stored.
	RefreshInterval int
}

// Open loads the fleet and preferences from db.
func Open(db *persist.Store, fetcher probe.Fetcher, cfg Config) (*Swarm, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Noop()
		cfg.Logger = log
	}

	store := fleet.New(db, log)
	loaded, err := store.Load()
	if err != nil {
		return nil, err
	}

	spec := view.DefaultSpec
	if _, err := db.GetObject(persist.KeySorting, &spec); err != nil {
		log.Warn("ignoring stored sort order: %v", err)
		spec = view.DefaultSpec
	}

	interval := cfg.RefreshInterval
	if n, ok, err := db.GetNumber(persist.KeyRefreshInterval); err != nil {
		log.Warn("ignoring stored refresh interval: %v", err)
	} else if ok && n >= 1 {
		interval = int(n)
	}

	grid, err := db.GetBool(persist.KeyGridView)
	if err != nil {
		log.Warn("ignoring stored view mode: %v", err)
	}

	return &Swarm{
		Orchestrator: NewOrchestrator(store, fetcher, cfg.Options),
		store:        store,
		db:           db,
		policy:       schedule.New(interval),
		log:          log,
		sorter:       view.NewSorter(spec),
		grid:         grid,
		loaded:       loaded,
	}, nil
}

// Loaded reports whether a fleet list was found in storage at open.
func (s *Swarm) Loaded() bool {
	return s.loaded
}

// Len returns the fleet size.
func (s *Swarm) Len() int {
	return s.store.Len()
}

// Get returns the device at ip.
func (s *Swarm) Get(ip string) (device.Device, bool) {
	return s.store.Get(ip)
}

// View returns the fleet sorted by the active sort spec and filtered by
// text.
func (s *Swarm) View(filter string) []device.Device {
	s.mu.Lock()
	spec := s.sorter.Spec()
	s.mu.Unlock()
	return view.Filter(view.Sort(s.store.Snapshot(), spec), filter)
}

// Totals aggregates the whole fleet.
func (s *Swarm) Totals() aggregate.Totals {
	return aggregate.Compute(s.store.Snapshot())
}

// Families lists the hardware families among the filtered view.
func (s *Swarm) Families(filter string) []aggregate.Family {
	return aggregate.Families(s.View(filter))
}

// SortSpec returns the active sort selection.
func (s *Swarm) SortSpec() view.Spec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorter.Spec()
}

// SortBy changes the sort selection and stores it. A storage failure is
// returned but the new order stays in effect.
func (s *Swarm) SortBy(field string, dir view.Direction) (view.Spec, error) {
	s.mu.Lock()
	spec, err := s.sorter.SortBy(field, dir)
	s.mu.Unlock()
	if err != nil {
		return spec, err
	}
	return spec, s.db.SetObject(persist.KeySorting, spec)
}

// Policy is the refresh countdown the host drives.
func (s *Swarm) Policy() *schedule.Policy {
	return s.policy
}

// SetRefreshInterval changes and stores the refresh period in seconds.
func (s *Swarm) SetRefreshInterval(seconds int) error {
	if err := s.policy.SetInterval(seconds); err != nil {
		return err
	}
	return s.db.SetNumber(persist.KeyRefreshInterval, float64(seconds))
}

// GridView reports the stored view mode.
func (s *Swarm) GridView() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid
}

// SetGridView changes and stores the view mode.
func (s *Swarm) SetGridView(grid bool) error {
	s.mu.Lock()
	s.grid = grid
	s.mu.Unlock()
	return s.db.SetBool(persist.KeyGridView, grid)
}

// Close releases storage.
func (s *Swarm) Close() error {
	return s.db.Close()
}
