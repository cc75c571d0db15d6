// Package testing provides test doubles for the probe package.
package testing

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/swarm/internal/device"
	"github.com/rileyhilliard/swarm/internal/probe"
)

// FakeDevice configures how one address answers.
type FakeDevice struct {
	Info         device.Payload
	Capabilities device.Payload
	// CapabilitiesFail makes only the capabilities call fail.
	CapabilitiesFail bool
	// Fail makes the whole probe fail with Reason.
	Fail   bool
	Reason probe.ProbeFailReason
	// Delay holds the probe before answering; a context deadline cuts it short.
	Delay time.Duration
	// RestartErr is returned by Restart.
	RestartErr error
	// Gate, when set, blocks the probe until it is closed.
	Gate chan struct{}
}

// FakeProber simulates a subnet of devices without network I/O.
// Addresses with no configured device fail as unreachable.
type FakeProber struct {
	mu      sync.Mutex
	devices map[string]*FakeDevice

	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	// Tracking for assertions
	FetchCalls   []FetchCall
	RestartCalls []string
}

// FetchCall records one Fetch.
type FetchCall struct {
	IP   string
	Full bool
}

// NewFakeProber creates an empty fake.
func NewFakeProber() *FakeProber {
	return &FakeProber{devices: make(map[string]*FakeDevice)}
}

// AddDevice registers a responsive device at ip.
func (f *FakeProber) AddDevice(ip string, d FakeDevice) *FakeProber {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices[ip] = &d
	return f
}

// AddMiner registers a device with typical info and capability payloads.
func (f *FakeProber) AddMiner(ip, hostname, asicModel string, hashRate, power float64) *FakeProber {
	return f.AddDevice(ip, FakeDevice{
		Info: device.Payload{
			device.FieldHostname:     raw(hostname),
			device.FieldASICModel:    raw(asicModel),
			device.FieldBoardVersion: raw("601"),
			device.FieldHashRate:     raw(hashRate),
			device.FieldPower:        raw(power),
			device.FieldBestDiff:     raw("1.2M"),
			device.FieldStratumDiff:  raw(1000),
			device.FieldVersion:      raw("v2.5.0"),
		},
		Capabilities: device.Payload{
			device.FieldASICModel: raw(asicModel),
			device.FieldASICCount: raw(1),
		},
	})
}

// SetFailing toggles failure for an already registered device.
func (f *FakeProber) SetFailing(ip string, fail bool, reason probe.ProbeFailReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.devices[ip]; ok {
		d.Fail = fail
		d.Reason = reason
	}
}

// MaxInFlight returns the highest number of concurrent Fetch calls seen.
func (f *FakeProber) MaxInFlight() int {
	return int(f.maxInFlight.Load())
}

// Calls returns a copy of the recorded Fetch calls.
func (f *FakeProber) Calls() []FetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FetchCall(nil), f.FetchCalls...)
}

// Fetch implements probe.Fetcher.
func (f *FakeProber) Fetch(ctx context.Context, ip string, full bool) (probe.Result, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	f.mu.Lock()
	f.FetchCalls = append(f.FetchCalls, FetchCall{IP: ip, Full: full})
	d, ok := f.devices[ip]
	var snapshot FakeDevice
	if ok {
		snapshot = *d
	}
	f.mu.Unlock()

	if !ok {
		return probe.Result{}, &probe.ProbeError{IP: ip, Reason: probe.ProbeFailUnreachable}
	}

	if snapshot.Gate != nil {
		select {
		case <-snapshot.Gate:
		case <-ctx.Done():
			return probe.Result{}, &probe.ProbeError{IP: ip, Reason: probe.ProbeFailTimeout, Cause: ctx.Err()}
		}
	}
	if snapshot.Delay > 0 {
		select {
		case <-time.After(snapshot.Delay):
		case <-ctx.Done():
			return probe.Result{}, &probe.ProbeError{IP: ip, Reason: probe.ProbeFailTimeout, Cause: ctx.Err()}
		}
	}
	if snapshot.Fail {
		return probe.Result{}, &probe.ProbeError{IP: ip, Reason: snapshot.Reason}
	}

	res := probe.Result{Info: clonePayload(snapshot.Info), Capabilities: device.Payload{}}
	if full {
		if snapshot.CapabilitiesFail {
			res.CapabilitiesErr = &probe.ProbeError{IP: ip, Reason: probe.ProbeFailBadResponse}
		} else {
			res.Capabilities = clonePayload(snapshot.Capabilities)
		}
	}
	return res, nil
}

// Restart implements probe.Fetcher.
func (f *FakeProber) Restart(ctx context.Context, ip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RestartCalls = append(f.RestartCalls, ip)
	if d, ok := f.devices[ip]; ok {
		return d.RestartErr
	}
	return &probe.ProbeError{IP: ip, Reason: probe.ProbeFailUnreachable}
}

func clonePayload(p device.Payload) device.Payload {
	out := make(device.Payload, len(p))
	for k, v := range p {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

func raw(v interface{}) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// Raw encodes v for use in a Payload.
func Raw(v interface{}) json.RawMessage {
	return raw(v)
}
