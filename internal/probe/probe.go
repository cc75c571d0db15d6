// Package probe performs the per-device handshake: live info plus, on a
// full probe, static capabilities, under a single deadline.
package probe

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rileyhilliard/swarm/internal/device"
	"github.com/rileyhilliard/swarm/internal/errors"
	"github.com/rileyhilliard/swarm/internal/logger"
)

// DefaultTimeout bounds one probe from dispatch to combined completion.
const DefaultTimeout = 5 * time.Second

// ProbeError represents a failed probe with categorized failure reason.
type ProbeError struct {
	IP     string
	Reason ProbeFailReason
	Cause  error
}

// ProbeFailReason categorizes why a probe failed.
type ProbeFailReason int

const (
	ProbeFailUnknown ProbeFailReason = iota
	ProbeFailTimeout
	ProbeFailRefused
	ProbeFailUnreachable
	ProbeFailBadResponse
)

// String returns a human-readable description of the failure reason.
func (r ProbeFailReason) String() string {
	switch r {
	case ProbeFailTimeout:
		return "timed out"
	case ProbeFailRefused:
		return "connection refused"
	case ProbeFailUnreachable:
		return "host unreachable"
	case ProbeFailBadResponse:
		return "bad response"
	default:
		return "unknown error"
	}
}

func (e *ProbeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("probe %s failed: %s (%v)", e.IP, e.Reason, e.Cause)
	}
	return fmt.Sprintf("probe %s failed: %s", e.IP, e.Reason)
}

func (e *ProbeError) Unwrap() error {
	return e.Cause
}

// Result holds the raw payloads of one probe.
type Result struct {
	Info         device.Payload
	Capabilities device.Payload
	// CapabilitiesErr is set when only the capabilities call failed.
	CapabilitiesErr error
}

// Fetcher is the device-facing side the orchestrator depends on.
type Fetcher interface {
	// Fetch retrieves info, and capabilities when full is set. A failed
	// info call fails the probe; a failed capabilities call yields an
	// empty capability payload.
	Fetch(ctx context.Context, ip string, full bool) (Result, error)
	Restart(ctx context.Context, ip string) error
}

// Prober is the HTTP Fetcher.
type Prober struct {
	client  *Client
	timeout time.Duration
	log     logger.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger used for per-probe diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(p *Prober) { p.log = l }
}

// New creates a Prober around client.
func New(client *Client, opts ...Option) *Prober {
	p := &Prober{client: client, timeout: DefaultTimeout, log: logger.Noop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Timeout returns the per-probe deadline.
func (p *Prober) Timeout() time.Duration {
	return p.timeout
}

// Fetch implements Fetcher.
func (p *Prober) Fetch(ctx context.Context, ip string, full bool) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var res Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info, err := p.client.FetchInfo(gctx, ip)
		if err != nil {
			return err
		}
		res.Info = info
		return nil
	})
	if full {
		g.Go(func() error {
			caps, err := p.client.FetchCapabilities(gctx, ip)
			if err != nil {
				res.CapabilitiesErr = err
				return nil
			}
			res.Capabilities = caps
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		perr := asProbeError(ip, err)
		p.log.Debug("probe %s: %s", ip, perr.Reason)
		return Result{}, perr
	}
	if res.CapabilitiesErr != nil {
		p.log.Debug("probe %s: capabilities unavailable: %v", ip, res.CapabilitiesErr)
	}
	if res.Capabilities == nil {
		res.Capabilities = device.Payload{}
	}
	return res, nil
}

// Restart implements Fetcher.
func (p *Prober) Restart(ctx context.Context, ip string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.client.Restart(ctx, ip)
}

// Probe fetches ip through f and merges the payloads over known, which may
// be nil. Info values win over capabilities; known static fields survive
// unless a payload replaces them.
func Probe(ctx context.Context, f Fetcher, ip string, known *device.Device, full bool) (device.Device, error) {
	res, err := f.Fetch(ctx, ip, full)
	if err != nil {
		return device.Device{}, errors.WrapWithCode(err, errors.ErrProbe,
			fmt.Sprintf("Couldn't reach device at %s", ip),
			"Check that the device is powered on and on the same network")
	}
	return device.Build(ip, known, res.Capabilities, res.Info), nil
}

func asProbeError(ip string, err error) *ProbeError {
	var perr *ProbeError
	if stderrors.As(err, &perr) {
		return perr
	}
	return categorizeProbeError(ip, err)
}

// categorizeProbeError converts a generic error into a ProbeError with
// a categorized failure reason.
func categorizeProbeError(ip string, err error) *ProbeError {
	if err == nil {
		return nil
	}

	probeErr := &ProbeError{
		IP:     ip,
		Reason: ProbeFailUnknown,
		Cause:  err,
	}

	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) ||
		(stderrors.As(err, &netErr) && netErr.Timeout()) {
		probeErr.Reason = ProbeFailTimeout
		return probeErr
	}
	if stderrors.Is(err, syscall.ECONNREFUSED) {
		probeErr.Reason = ProbeFailRefused
		return probeErr
	}
	if stderrors.Is(err, syscall.EHOSTUNREACH) || stderrors.Is(err, syscall.ENETUNREACH) {
		probeErr.Reason = ProbeFailUnreachable
		return probeErr
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		probeErr.Reason = ProbeFailTimeout
		return probeErr
	}

	if strings.Contains(errStr, "connection refused") {
		probeErr.Reason = ProbeFailRefused
		return probeErr
	}

	if strings.Contains(errStr, "no route to host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "host is down") {
		probeErr.Reason = ProbeFailUnreachable
		return probeErr
	}

	return probeErr
}
