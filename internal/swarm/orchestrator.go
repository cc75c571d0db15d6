// Package swarm runs discovery and refresh batches over the fleet and
// exposes the engine's entry points to the presentation layer.
package swarm

import (
	"cmp"
	"context"
	stderrors "errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rileyhilliard/swarm/internal/device"
	"github.com/rileyhilliard/swarm/internal/errors"
	"github.com/rileyhilliard/swarm/internal/fleet"
	"github.com/rileyhilliard/swarm/internal/logger"
	"github.com/rileyhilliard/swarm/internal/netrange"
	"github.com/rileyhilliard/swarm/internal/probe"
)

// DefaultConcurrency caps in-flight probes per batch.
const DefaultConcurrency = 128

// Options configures an Orchestrator.
type Options struct {
	// Concurrency caps simultaneous probes; zero means DefaultConcurrency.
	Concurrency int
	// Address is the local address the scan range is derived from. Empty
	// means detect it from the network interfaces.
	Address string
	// Netmask defaults to netrange.DefaultNetmask.
	Netmask string
	Logger  logger.Logger
}

// Summary describes a completed batch.
type Summary struct {
	Probed int
	// Found counts successful probes.
	Found int
	// Added counts devices new to the fleet (scans only).
	Added int
	// Degraded counts placeholders substituted for failed refreshes.
	Degraded int
	Elapsed  time.Duration
}

// Orchestrator fans probes out over candidates and writes each batch back
// to the fleet exactly once.
type Orchestrator struct {
	store   *fleet.Store
	fetcher probe.Fetcher
	opts    Options
	log     logger.Logger

	inFlight   atomic.Bool
	scanning   atomic.Bool
	refreshing atomic.Bool

	// writeMu serializes batch write-back with manual add and remove.
	writeMu sync.Mutex

	events broker
	detect func() (string, string, error)
}

// NewOrchestrator wires an orchestrator over store and fetcher.
func NewOrchestrator(store *fleet.Store, fetcher probe.Fetcher, opts Options) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Netmask == "" {
		opts.Netmask = netrange.DefaultNetmask
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	return &Orchestrator{
		store:   store,
		fetcher: fetcher,
		opts:    opts,
		log:     opts.Logger,
		detect:  netrange.DetectLocal,
	}
}

// Scanning reports whether a discovery batch is running.
func (o *Orchestrator) Scanning() bool { return o.scanning.Load() }

// Refreshing reports whether a refresh batch is running.
func (o *Orchestrator) Refreshing() bool { return o.refreshing.Load() }

// Busy reports whether any batch is running.
func (o *Orchestrator) Busy() bool { return o.inFlight.Load() }

// Subscribe returns a channel receiving one Event per completed batch and
// per add or remove, and a func that cancels the subscription.
func (o *Orchestrator) Subscribe() (<-chan Event, func()) {
	return o.events.subscribe()
}

// Range returns the candidate range a scan would cover.
func (o *Orchestrator) Range() (netrange.Range, error) {
	addr, mask := o.opts.Address, o.opts.Netmask
	if addr == "" {
		detected, _, err := o.detect()
		if err != nil {
			return netrange.Range{}, err
		}
		addr = detected
	}
	r, err := netrange.Calculate(addr, mask)
	if err != nil {
		return netrange.Range{}, err
	}
	if err := r.CheckScannable(); err != nil {
		return netrange.Range{}, err
	}
	return r, nil
}

func (o *Orchestrator) begin(kind *atomic.Bool, what string) error {
	if !o.inFlight.CompareAndSwap(false, true) {
		running := "refresh"
		if o.scanning.Load() {
			running = "scan"
		}
		return errors.New(errors.ErrBusy,
			fmt.Sprintf("Can't start a %s while a %s is running", what, running),
			"Wait for the current batch to finish")
	}
	kind.Store(true)
	return nil
}

func (o *Orchestrator) end(kind *atomic.Bool) {
	kind.Store(false)
	o.inFlight.Store(false)
}

// Discover probes every host in the local range with a full probe and
// merges responders into the fleet. Known devices are never overwritten.
func (o *Orchestrator) Discover(ctx context.Context) (Summary, error) {
	if err := o.begin(&o.scanning, "scan"); err != nil {
		return Summary{}, err
	}
	defer o.end(&o.scanning)

	r, err := o.Range()
	if err != nil {
		return Summary{}, err
	}

	start := time.Now()
	o.log.Info("scanning %s (%d hosts)", r, r.Size())

	known := o.knownByIP()
	candidates := func(yield func(candidate) bool) {
		for ip := range r.All() {
			if !yield(candidate{ip: ip, known: known[ip]}) {
				return
			}
		}
	}
	probed, found := o.fanOut(ctx, candidates, true, func(ip string, _ *device.Device, _ error) *device.Device {
		o.log.Debug("scan %s: no device", ip)
		return nil
	})
	sum := Summary{Probed: probed, Found: len(found)}

	o.writeMu.Lock()
	added, err := o.store.Merge(found)
	total := o.store.Len()
	o.writeMu.Unlock()

	sum.Added = added
	sum.Elapsed = time.Since(start)
	o.log.Info("scan finished: %d found, %d new, %s", sum.Found, sum.Added, sum.Elapsed.Round(time.Millisecond))
	o.events.publish(Event{Kind: EventScan, Added: added, Total: total, At: time.Now()})
	return sum, err
}

// RefreshAll re-probes every known device. A device that fails keeps its
// identity with live telemetry zeroed. The result replaces the fleet.
func (o *Orchestrator) RefreshAll(ctx context.Context, fetchCapabilities bool) (Summary, error) {
	if err := o.begin(&o.refreshing, "refresh"); err != nil {
		return Summary{}, err
	}
	defer o.end(&o.refreshing)

	start := time.Now()
	snapshot := o.store.Snapshot()
	var degraded int
	candidates := func(yield func(candidate) bool) {
		for i := range snapshot {
			if !yield(candidate{ip: snapshot[i].IP, known: &snapshot[i]}) {
				return
			}
		}
	}
	probed, results := o.fanOut(ctx, candidates, fetchCapabilities, func(ip string, known *device.Device, err error) *device.Device {
		o.log.Warn("failed to get info from %s: %v", ip, reason(err))
		degraded++
		placeholder := known.Placeholder()
		return &placeholder
	})

	sum := Summary{
		Probed:   probed,
		Degraded: degraded,
	}
	sum.Found = sum.Probed - sum.Degraded

	o.writeMu.Lock()
	err := o.store.Replace(o.reconcile(results))
	total := o.store.Len()
	o.writeMu.Unlock()

	sum.Elapsed = time.Since(start)
	o.log.Info("refresh finished: %d ok, %d degraded, %s", sum.Found, sum.Degraded, sum.Elapsed.Round(time.Millisecond))
	o.events.publish(Event{Kind: EventRefresh, Total: total, At: time.Now()})
	return sum, err
}

// candidate is one address a batch probes, with the fleet's record of it
// when there is one.
type candidate struct {
	ip    string
	known *device.Device
}

// fanOut probes candidates with at most Concurrency in flight and returns
// how many were dispatched plus the surviving devices in candidate order.
// A failed probe is passed to onFail, which may substitute a device or
// return nil to drop it. onFail calls are serialized. Dispatch stops once
// ctx is done.
func (o *Orchestrator) fanOut(ctx context.Context, candidates iter.Seq[candidate], full bool,
	onFail func(ip string, known *device.Device, err error) *device.Device) (int, []device.Device) {
	type outcome struct {
		seq int
		dev device.Device
	}
	var (
		mu  sync.Mutex
		out []outcome
	)

	g := new(errgroup.Group)
	g.SetLimit(o.opts.Concurrency)
	n := 0
	for c := range candidates {
		if ctx.Err() != nil {
			break
		}
		seq := n
		n++
		g.Go(func() error {
			d, err := probe.Probe(ctx, o.fetcher, c.ip, c.known, full)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				sub := onFail(c.ip, c.known, err)
				if sub == nil {
					return nil
				}
				d = *sub
			}
			out = append(out, outcome{seq: seq, dev: d})
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(out, func(a, b outcome) int { return cmp.Compare(a.seq, b.seq) })
	devices := make([]device.Device, len(out))
	for i, oc := range out {
		devices[i] = oc.dev
	}
	return n, devices
}

// reconcile drops results for devices removed while the batch ran and
// keeps devices added meanwhile. Caller holds writeMu.
func (o *Orchestrator) reconcile(results []device.Device) []device.Device {
	current := o.store.Snapshot()
	present := make(map[string]bool, len(current))
	for _, d := range current {
		present[d.IP] = true
	}

	out := make([]device.Device, 0, len(current))
	refreshed := make(map[string]bool, len(results))
	for _, d := range results {
		if !present[d.IP] {
			continue
		}
		refreshed[d.IP] = true
		out = append(out, d)
	}
	for _, d := range current {
		if !refreshed[d.IP] {
			out = append(out, d)
		}
	}
	return out
}

// Add validates and probes ip, then inserts it. The host must answer both
// the info and capabilities calls with an ASIC model.
func (o *Orchestrator) Add(ctx context.Context, ip string) (device.Device, error) {
	if _, err := netrange.ParseIPv4(ip); err != nil {
		return device.Device{}, err
	}
	if o.store.Contains(ip) {
		return device.Device{}, fleet.Duplicate(ip)
	}

	res, err := o.fetcher.Fetch(ctx, ip, true)
	if err != nil {
		return device.Device{}, errors.WrapWithCode(err, errors.ErrInvalidDevice,
			fmt.Sprintf("No device answered at %s", ip),
			"Check the address and that the device is powered on")
	}
	if res.Info.String(device.FieldASICModel) == "" || res.Capabilities.String(device.FieldASICModel) == "" {
		return device.Device{}, errors.New(errors.ErrInvalidDevice,
			fmt.Sprintf("%s doesn't look like a miner", ip),
			"Only devices that report an ASIC model can join the swarm")
	}

	d := device.Build(ip, nil, res.Capabilities, res.Info)

	o.writeMu.Lock()
	err = o.store.Insert(d)
	total := o.store.Len()
	o.writeMu.Unlock()

	if errors.IsCode(err, errors.ErrDuplicateDevice) {
		return device.Device{}, err
	}
	o.log.Info("added %s (%s)", ip, d.Label())
	o.events.publish(Event{Kind: EventAdd, Added: 1, Total: total, At: time.Now()})
	return d, err
}

// Remove drops ip from the fleet. Unknown addresses are not an error.
func (o *Orchestrator) Remove(ip string) error {
	o.writeMu.Lock()
	err := o.store.Remove(ip)
	total := o.store.Len()
	o.writeMu.Unlock()

	o.events.publish(Event{Kind: EventRemove, Total: total, At: time.Now()})
	return err
}

// Restart asks the device at ip to reboot.
func (o *Orchestrator) Restart(ctx context.Context, ip string) error {
	if _, err := netrange.ParseIPv4(ip); err != nil {
		return err
	}
	err := o.fetcher.Restart(ctx, ip)
	if err != nil && errors.CodeOf(err) == "" {
		return errors.WrapWithCode(err, errors.ErrProbe,
			fmt.Sprintf("Failed to restart device at %s", ip),
			"Check that the device is powered on and reachable")
	}
	if err == nil {
		o.log.Info("restart sent to %s", ip)
	}
	return err
}

func (o *Orchestrator) knownByIP() map[string]*device.Device {
	snapshot := o.store.Snapshot()
	known := make(map[string]*device.Device, len(snapshot))
	for i := range snapshot {
		known[snapshot[i].IP] = &snapshot[i]
	}
	return known
}

// reason pulls the categorized failure out of a probe error for logging.
func reason(err error) string {
	var perr *probe.ProbeError
	if stderrors.As(err, &perr) {
		return perr.Reason.String()
	}
	return err.Error()
}
