package probe

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rileyhilliard/swarm/internal/device"
	"github.com/rileyhilliard/swarm/internal/errors"
)

// Device API paths.
const (
	PathInfo         = "/api/system/info"
	PathCapabilities = "/api/system/asic"
	PathRestart      = "/api/system/restart"
)

// maxBody caps how much of a device response is read.
const maxBody = 1 << 20

// Client talks to the HTTP API of a single device at a time.
type Client struct {
	http   *http.Client
	scheme string
	port   int
}

// NewClient creates a client. A zero port means the scheme default.
func NewClient(scheme string, port int) *Client {
	if scheme == "" {
		scheme = "http"
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// A scan opens one connection per candidate; keep the idle pool small.
	transport.MaxIdleConnsPerHost = 1
	transport.IdleConnTimeout = 30 * time.Second
	return &Client{
		http:   &http.Client{Transport: transport},
		scheme: scheme,
		port:   port,
	}
}

func (c *Client) url(ip, path string) string {
	host := ip
	if c.port > 0 {
		host = net.JoinHostPort(ip, strconv.Itoa(c.port))
	}
	u := url.URL{Scheme: c.scheme, Host: host, Path: path}
	return u.String()
}

// FetchInfo returns the live telemetry payload of the device at ip.
func (c *Client) FetchInfo(ctx context.Context, ip string) (device.Payload, error) {
	return c.get(ctx, ip, PathInfo)
}

// FetchCapabilities returns the static identity payload of the device at ip.
func (c *Client) FetchCapabilities(ctx context.Context, ip string) (device.Payload, error) {
	return c.get(ctx, ip, PathCapabilities)
}

func (c *Client) get(ctx context.Context, ip, path string) (device.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(ip, path), nil)
	if err != nil {
		return nil, categorizeProbeError(ip, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, categorizeProbeError(ip, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, categorizeProbeError(ip, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProbeError{
			IP:     ip,
			Reason: ProbeFailBadResponse,
			Cause:  fmt.Errorf("GET %s: status %d", path, resp.StatusCode),
		}
	}

	payload, err := device.ParsePayload(body)
	if err != nil {
		return nil, &ProbeError{IP: ip, Reason: ProbeFailBadResponse, Cause: err}
	}
	return payload, nil
}

// Restart asks the device at ip to reboot. A device that drops the
// connection mid-response is restarting, so disconnects count as success.
func (c *Client) Restart(ctx context.Context, ip string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(ip, PathRestart), bytes.NewReader([]byte("{}")))
	if err != nil {
		return restartFailed(ip, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if expectedDisconnect(err) {
			return nil
		}
		return restartFailed(ip, categorizeProbeError(ip, err))
	}
	defer resp.Body.Close()
	// The body is irrelevant and may be cut short by the reboot.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	return restartFailed(ip, &ProbeError{
		IP:     ip,
		Reason: ProbeFailBadResponse,
		Cause:  fmt.Errorf("status %d", resp.StatusCode),
	})
}

func restartFailed(ip string, err error) error {
	return errors.WrapWithCode(err, errors.ErrProbe,
		fmt.Sprintf("Failed to restart device at %s", ip),
		"Check that the device is powered on and reachable")
}

// expectedDisconnect reports whether err is the connection dropping while
// the device reboots.
func expectedDisconnect(err error) bool {
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) ||
		stderrors.Is(err, syscall.ECONNRESET) || stderrors.Is(err, syscall.EPIPE) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "empty reply") ||
		strings.Contains(msg, "server closed")
}
