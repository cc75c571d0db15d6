package swarm

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rileyhilliard/swarm/internal/device"
	"github.com/rileyhilliard/swarm/internal/errors"
	"github.com/rileyhilliard/swarm/internal/logger"
	"github.com/rileyhilliard/swarm/internal/persist"
	"github.com/rileyhilliard/swarm/internal/probe"
	probetesting "github.com/rileyhilliard/swarm/internal/probe/testing"
	"github.com/rileyhilliard/swarm/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallNet covers 10.0.0.1 - 10.0.0.6.
var smallNet = Options{Address: "10.0.0.1", Netmask: "255.255.255.248"}

func open(t *testing.T, fake *probetesting.FakeProber, opts Options) (*Swarm, *persist.Memory) {
	t.Helper()
	mem := persist.NewMemory()
	return openWith(t, mem, fake, opts), mem
}

func openWith(t *testing.T, mem *persist.Memory, fake *probetesting.FakeProber, opts Options) *Swarm {
	t.Helper()
	s, err := Open(persist.New(mem), fake, Config{Options: opts, RefreshInterval: 30})
	require.NoError(t, err)
	return s
}

func ipsOf(devices []device.Device) []string {
	out := make([]string, len(devices))
	for i, d := range devices {
		out[i] = d.IP
	}
	return out
}

func TestDiscover_CollectsRespondersAndIsolatesFailures(t *testing.T) {
	fake := probetesting.NewFakeProber().
		AddMiner("10.0.0.2", "gamma-1", "BM1370", 1100, 17).
		AddMiner("10.0.0.5", "supra-1", "BM1368", 700, 15).
		AddDevice("10.0.0.3", probetesting.FakeDevice{Fail: true, Reason: probe.ProbeFailTimeout}).
		AddDevice("10.0.0.4", probetesting.FakeDevice{Fail: true, Reason: probe.ProbeFailRefused})
	s, mem := open(t, fake, smallNet)

	sum, err := s.Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, sum.Probed)
	assert.Equal(t, 2, sum.Found)
	assert.Equal(t, 2, sum.Added)
	assert.Equal(t, []string{"10.0.0.2", "10.0.0.5"}, s.store.IPs())
	assert.Len(t, fake.Calls(), 6)
	for _, c := range fake.Calls() {
		assert.True(t, c.Full, "scans fetch capabilities")
	}

	d, _ := s.Get("10.0.0.2")
	assert.Equal(t, device.ModelGamma, d.DeviceModel)
	assert.Equal(t, device.ColorGreen, d.SwarmColor)
	assert.Equal(t, 1, mem.WriteCount(persist.KeyFleet), "one write per batch")
}

func TestDiscover_MergeKeepsKnownDevices(t *testing.T) {
	fake := probetesting.NewFakeProber().
		AddMiner("10.0.0.2", "renamed", "BM1370", 1100, 17).
		AddMiner("10.0.0.6", "new", "BM1370", 900, 14)
	s, _ := open(t, fake, smallNet)
	require.NoError(t, s.store.Insert(device.Device{IP: "10.0.0.2", Hostname: "confirmed", HashRate: 5}))

	sum, err := s.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Added)

	d, _ := s.Get("10.0.0.2")
	assert.Equal(t, "confirmed", d.Hostname)
	assert.Equal(t, 5.0, d.HashRate)
	assert.Equal(t, 2, s.Len())

	sum, err = s.Discover(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Added, "rescan adds nothing twice")
	assert.Equal(t, 2, s.Len())
}

func TestDiscover_RespectsConcurrencyCap(t *testing.T) {
	fake := probetesting.NewFakeProber()
	for i := 1; i <= 62; i++ {
		fake.AddDevice(fmt.Sprintf("10.1.0.%d", i), probetesting.FakeDevice{
			Info:  device.Payload{device.FieldASICModel: probetesting.Raw("BM1370")},
			Delay: 5 * time.Millisecond,
		})
	}
	s, _ := open(t, fake, Options{Address: "10.1.0.9", Netmask: "255.255.255.192", Concurrency: 4})

	sum, err := s.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 62, sum.Found)
	assert.LessOrEqual(t, fake.MaxInFlight(), 4)
	assert.GreaterOrEqual(t, fake.MaxInFlight(), 1)
}

func TestDiscover_BadAddress(t *testing.T) {
	s, _ := open(t, probetesting.NewFakeProber(), Options{Address: "10.0.0", Netmask: "255.255.255.0"})

	_, err := s.Discover(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidAddress))
	assert.False(t, s.Busy(), "flag cleared after failure")
}

func TestDiscover_DetectsLocalAddress(t *testing.T) {
	fake := probetesting.NewFakeProber().AddMiner("192.168.7.20", "a", "BM1370", 1, 1)
	s, _ := open(t, fake, Options{})
	s.detect = func() (string, string, error) { return "192.168.7.3", "255.255.255.0", nil }

	r, err := s.Range()
	require.NoError(t, err)
	assert.Equal(t, "192.168.7.1 - 192.168.7.254", r.String())

	sum, err := s.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 254, sum.Probed)
	assert.Equal(t, 1, sum.Added)
}

func TestDiscover_RefusesRangeWiderThanSlash16(t *testing.T) {
	for _, mask := range []string{"0.0.0.0", "128.0.0.0", "255.0.0.0", "255.254.0.0"} {
		t.Run(mask, func(t *testing.T) {
			fake := probetesting.NewFakeProber()
			s, mem := open(t, fake, Options{Address: "10.1.2.3", Netmask: mask})

			_, err := s.Range()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrInvalidAddress))

			_, err = s.Discover(context.Background())
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrInvalidAddress))
			assert.Empty(t, fake.Calls(), "nothing dispatched")
			assert.Zero(t, mem.WriteCount(persist.KeyFleet))
			assert.False(t, s.Busy())
		})
	}
}

func TestDiscover_RefusesWideDetectedRange(t *testing.T) {
	fake := probetesting.NewFakeProber()
	s, _ := open(t, fake, Options{Netmask: "255.0.0.0"})
	s.detect = func() (string, string, error) { return "10.4.0.9", "255.255.255.0", nil }

	_, err := s.Discover(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidAddress))
	assert.Empty(t, fake.Calls())
}

func TestDiscover_CancelledBeforeDispatch(t *testing.T) {
	fake := probetesting.NewFakeProber().AddMiner("10.0.0.2", "gamma-1", "BM1370", 1100, 17)
	s, _ := open(t, fake, smallNet)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := s.Discover(ctx)
	require.NoError(t, err)
	assert.Zero(t, sum.Probed)
	assert.Empty(t, fake.Calls())
	assert.Zero(t, s.store.Len())
}

func TestFanOut_KeepsCandidateOrder(t *testing.T) {
	fake := probetesting.NewFakeProber().
		AddMiner("10.0.0.1", "a", "BM1370", 1, 1).
		AddMiner("10.0.0.3", "c", "BM1370", 1, 1).
		AddMiner("10.0.0.6", "f", "BM1370", 1, 1)
	o := NewOrchestrator(nil, fake, Options{Concurrency: 3})

	ips := []string{"10.0.0.6", "10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"}
	candidates := func(yield func(candidate) bool) {
		for _, ip := range ips {
			if !yield(candidate{ip: ip}) {
				return
			}
		}
	}

	var failed []string
	n, out := o.fanOut(context.Background(), candidates, true, func(ip string, known *device.Device, err error) *device.Device {
		assert.Nil(t, known)
		assert.Error(t, err)
		failed = append(failed, ip)
		if ip == "10.0.0.4" {
			return &device.Device{IP: ip}
		}
		return nil
	})

	assert.Equal(t, 5, n)
	assert.Equal(t, []string{"10.0.0.6", "10.0.0.1", "10.0.0.3", "10.0.0.4"}, ipsOf(out))
	assert.ElementsMatch(t, []string{"10.0.0.2", "10.0.0.4"}, failed)
	assert.LessOrEqual(t, fake.MaxInFlight(), 3)
}

func TestRefreshAll_DegradesFailuresAndReplaces(t *testing.T) {
	fake := probetesting.NewFakeProber().
		AddMiner("10.0.0.2", "gamma-1", "BM1370", 1100, 17).
		AddMiner("10.0.0.3", "gamma-2", "BM1370", 1000, 16)
	s, mem := open(t, fake, smallNet)
	_, err := s.Discover(context.Background())
	require.NoError(t, err)

	fake.SetFailing("10.0.0.3", true, probe.ProbeFailTimeout)
	log := logger.NewBufferLogger()
	s.log = log
	s.Orchestrator.log = log

	sum, err := s.RefreshAll(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Probed)
	assert.Equal(t, 1, sum.Degraded)
	assert.Equal(t, 2, s.Len(), "failed device survives")
	assert.True(t, log.HasLevel("warn"))

	down, _ := s.Get("10.0.0.3")
	assert.True(t, down.Degraded)
	assert.Zero(t, down.HashRate)
	assert.Equal(t, "0", down.BestDiff)
	assert.Equal(t, "gamma-2", down.Hostname, "identity kept")
	assert.Equal(t, device.ModelGamma, down.DeviceModel)

	up, _ := s.Get("10.0.0.2")
	assert.False(t, up.Degraded)
	assert.Equal(t, 1100.0, up.HashRate)

	calls := fake.Calls()
	assert.False(t, calls[len(calls)-1].Full, "telemetry-only refresh")
	assert.Equal(t, 2, mem.WriteCount(persist.KeyFleet))

	fake.SetFailing("10.0.0.3", false, probe.ProbeFailUnknown)
	_, err = s.RefreshAll(context.Background(), true)
	require.NoError(t, err)
	back, _ := s.Get("10.0.0.3")
	assert.False(t, back.Degraded, "next success clears degraded")
	assert.Equal(t, 1000.0, back.HashRate)
}

func TestRefreshAll_EmptyFleet(t *testing.T) {
	s, _ := open(t, probetesting.NewFakeProber(), smallNet)
	sum, err := s.RefreshAll(context.Background(), true)
	require.NoError(t, err)
	assert.Zero(t, sum.Probed)
	assert.Zero(t, s.Len())
}

func TestBatch_RefusedWhileInFlight(t *testing.T) {
	gate := make(chan struct{})
	fake := probetesting.NewFakeProber().
		AddDevice("10.0.0.2", probetesting.FakeDevice{
			Info: device.Payload{device.FieldASICModel: probetesting.Raw("BM1370")},
			Gate: gate,
		})
	s, _ := open(t, fake, smallNet)
	require.NoError(t, s.store.Insert(device.Device{IP: "10.0.0.2"}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.RefreshAll(context.Background(), false)
		assert.NoError(t, err)
	}()
	require.Eventually(t, s.Refreshing, time.Second, time.Millisecond)
	assert.True(t, s.Busy())
	assert.False(t, s.Scanning())

	_, err := s.Discover(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrBusy))

	_, err = s.RefreshAll(context.Background(), true)
	assert.True(t, errors.IsCode(err, errors.ErrBusy))

	close(gate)
	wg.Wait()
	assert.False(t, s.Busy())
}

func TestRefreshAll_DoesNotResurrectRemovedDevice(t *testing.T) {
	gate := make(chan struct{})
	fake := probetesting.NewFakeProber().
		AddDevice("10.0.0.2", probetesting.FakeDevice{
			Info: device.Payload{device.FieldHashRate: probetesting.Raw(1)},
			Gate: gate,
		}).
		AddMiner("10.0.0.3", "b", "BM1370", 1, 1).
		AddMiner("10.0.0.4", "c", "BM1370", 1, 1)
	s, _ := open(t, fake, smallNet)
	_, err := s.store.Merge([]device.Device{{IP: "10.0.0.2"}, {IP: "10.0.0.3"}})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.RefreshAll(context.Background(), false)
	}()
	require.Eventually(t, s.Busy, time.Second, time.Millisecond)

	require.NoError(t, s.Remove("10.0.0.3"))
	_, err = s.Add(context.Background(), "10.0.0.4")
	require.NoError(t, err)

	close(gate)
	<-done

	assert.ElementsMatch(t, []string{"10.0.0.2", "10.0.0.4"}, s.store.IPs())
}

func TestAdd(t *testing.T) {
	fake := probetesting.NewFakeProber().
		AddMiner("10.0.0.2", "gamma", "BM1370", 1100, 17).
		AddDevice("10.0.0.3", probetesting.FakeDevice{
			Info:             device.Payload{device.FieldASICModel: probetesting.Raw("BM1370")},
			CapabilitiesFail: true,
		}).
		AddDevice("10.0.0.4", probetesting.FakeDevice{
			Info:         device.Payload{device.FieldHostname: probetesting.Raw("printer")},
			Capabilities: device.Payload{device.FieldASICModel: probetesting.Raw("BM1370")},
		}).
		AddDevice("10.0.0.5", probetesting.FakeDevice{
			Info: device.Payload{
				device.FieldASICModel:    probetesting.Raw("BM1370"),
				device.FieldBoardVersion: probetesting.Raw("402"),
				device.FieldHashRate:     probetesting.Raw(2500),
			},
			Capabilities: device.Payload{
				device.FieldASICModel: probetesting.Raw("BM1368"),
				device.FieldASICCount: probetesting.Raw(4),
				device.FieldHashRate:  probetesting.Raw(1),
			},
		})

	t.Run("success", func(t *testing.T) {
		s, _ := open(t, fake, smallNet)
		d, err := s.Add(context.Background(), "10.0.0.5")
		require.NoError(t, err)
		assert.Equal(t, "BM1370", d.ASICModel, "info is authoritative")
		assert.Equal(t, 2500.0, d.HashRate)
		assert.Equal(t, 4, d.ASICCount, "capabilities fill in")
		assert.Equal(t, device.ModelSupra, d.DeviceModel)
		assert.True(t, s.store.Contains("10.0.0.5"))
	})

	t.Run("duplicate leaves fleet unchanged", func(t *testing.T) {
		s, mem := open(t, fake, smallNet)
		_, err := s.Add(context.Background(), "10.0.0.2")
		require.NoError(t, err)
		before := s.store.Snapshot()
		writes := mem.WriteCount(persist.KeyFleet)

		_, err = s.Add(context.Background(), "10.0.0.2")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrDuplicateDevice))
		assert.Equal(t, before, s.store.Snapshot())
		assert.Equal(t, writes, mem.WriteCount(persist.KeyFleet))
	})

	tests := []struct {
		name string
		ip   string
		code string
	}{
		{"unreachable", "10.0.0.6", errors.ErrInvalidDevice},
		{"capabilities missing", "10.0.0.3", errors.ErrInvalidDevice},
		{"info lacks ASIC model", "10.0.0.4", errors.ErrInvalidDevice},
		{"malformed address", "10.0.0.256", errors.ErrInvalidAddress},
		{"hostname", "bitaxe.local", errors.ErrInvalidAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := open(t, fake, smallNet)
			_, err := s.Add(context.Background(), tt.ip)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
			assert.Zero(t, s.Len(), "nothing stored")
		})
	}
}

func TestRestart(t *testing.T) {
	fake := probetesting.NewFakeProber().
		AddMiner("10.0.0.2", "a", "BM1370", 1, 1).
		AddDevice("10.0.0.3", probetesting.FakeDevice{RestartErr: fmt.Errorf("status 500")})
	s, _ := open(t, fake, smallNet)

	require.NoError(t, s.Restart(context.Background(), "10.0.0.2"))

	err := s.Restart(context.Background(), "10.0.0.3")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrProbe))

	err = s.Restart(context.Background(), "nope")
	assert.True(t, errors.IsCode(err, errors.ErrInvalidAddress))

	assert.Equal(t, []string{"10.0.0.2", "10.0.0.3"}, fake.RestartCalls)
}

func TestEvents_OnePerBatchAndChange(t *testing.T) {
	fake := probetesting.NewFakeProber().
		AddMiner("10.0.0.2", "a", "BM1370", 1, 1).
		AddMiner("10.0.0.3", "b", "BM1370", 1, 1).
		AddMiner("10.0.0.4", "c", "BM1370", 1, 1)
	s, _ := open(t, fake, Options{Address: "10.0.0.1", Netmask: "255.255.255.252"})
	events, cancel := s.Subscribe()
	defer cancel()

	_, err := s.Discover(context.Background())
	require.NoError(t, err)
	_, err = s.RefreshAll(context.Background(), false)
	require.NoError(t, err)
	_, err = s.Add(context.Background(), "10.0.0.4")
	require.NoError(t, err)
	require.NoError(t, s.Remove("10.0.0.2"))

	var kinds []EventKind
	for len(events) > 0 {
		e := <-events
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []EventKind{EventScan, EventRefresh, EventAdd, EventRemove}, kinds)
}

func TestEvents_SlowSubscriberDoesNotBlock(t *testing.T) {
	s, _ := open(t, probetesting.NewFakeProber(), smallNet)
	_, cancel := s.Subscribe()

	for i := 0; i < eventBuffer*3; i++ {
		require.NoError(t, s.Remove("10.0.0.9"))
	}
	cancel()
	cancel()
}

func TestPersistenceFailureKeepsBatch(t *testing.T) {
	fake := probetesting.NewFakeProber().AddMiner("10.0.0.2", "a", "BM1370", 1, 1)
	s, mem := open(t, fake, smallNet)
	mem.SetFailWrites(fmt.Errorf("disk full"))

	sum, err := s.Discover(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrPersistence))
	assert.Equal(t, 1, sum.Added)
	assert.Equal(t, 1, s.Len())
}

func TestSwarm_TotalsEndToEnd(t *testing.T) {
	fake := probetesting.NewFakeProber().
		AddMiner("192.168.1.10", "a", "BM1370", 500, 10).
		AddMiner("192.168.1.11", "b", "BM1370", 700, 15)
	s, _ := open(t, fake, Options{Address: "192.168.1.1", Netmask: "255.255.255.240"})

	empty := s.Totals()
	assert.Equal(t, 0.0, empty.HashRate)
	assert.Equal(t, "0", empty.BestDiff)

	_, err := s.Discover(context.Background())
	require.NoError(t, err)

	totals := s.Totals()
	assert.Equal(t, 1200.0, totals.HashRate)
	assert.Equal(t, 25.0, totals.Power)
}

func TestSwarm_PreferencesPersist(t *testing.T) {
	mem := persist.NewMemory()
	s := openWith(t, mem, probetesting.NewFakeProber(), smallNet)
	assert.False(t, s.Loaded())
	assert.Equal(t, view.DefaultSpec, s.SortSpec())
	assert.Equal(t, 30, s.Policy().Interval())

	spec, err := s.SortBy(device.FieldPower, "")
	require.NoError(t, err)
	assert.Equal(t, view.Asc, spec.Direction)
	spec, err = s.SortBy(device.FieldPower, "")
	require.NoError(t, err)
	assert.Equal(t, view.Desc, spec.Direction)

	_, err = s.SortBy("bogus", "")
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	require.NoError(t, s.SetRefreshInterval(45))
	assert.Error(t, s.SetRefreshInterval(0))
	require.NoError(t, s.SetGridView(true))
	require.NoError(t, s.store.Insert(device.Device{IP: "10.0.0.2"}))

	reopened := openWith(t, mem, probetesting.NewFakeProber(), smallNet)
	assert.True(t, reopened.Loaded())
	assert.Equal(t, view.Spec{Field: device.FieldPower, Direction: view.Desc}, reopened.SortSpec())
	assert.Equal(t, 45, reopened.Policy().Interval())
	assert.True(t, reopened.GridView())
	assert.Equal(t, 1, reopened.Len())
}

func TestSwarm_ViewSortsAndFilters(t *testing.T) {
	s, _ := open(t, probetesting.NewFakeProber(), smallNet)
	_, err := s.store.Merge([]device.Device{
		{IP: "10.0.0.10", Hostname: "garage", DeviceModel: "Gamma", ASICModel: "BM1370", ASICCount: 1, Power: 17},
		{IP: "9.0.0.5", Hostname: "office", DeviceModel: "Supra", ASICModel: "BM1368", ASICCount: 4, Power: 15},
		{IP: "10.0.0.2", Hostname: "garage-2", DeviceModel: "Gamma", ASICModel: "BM1370", ASICCount: 1, Power: 20},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"9.0.0.5", "10.0.0.2", "10.0.0.10"}, ipsOf(s.View("")))
	assert.Equal(t, []string{"10.0.0.2", "10.0.0.10"}, ipsOf(s.View("GARAGE")))

	_, err = s.SortBy(device.FieldPower, view.Desc)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.2", "10.0.0.10", "9.0.0.5"}, ipsOf(s.View("")))

	fams := s.Families("")
	require.Len(t, fams, 2)
	assert.Equal(t, 2, fams[0].Count)
	assert.Len(t, s.Families("office"), 1)
}
