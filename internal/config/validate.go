package config

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/rileyhilliard/swarm/internal/errors"
	"github.com/rileyhilliard/swarm/internal/netrange"
)

// MaxConcurrency bounds probe.concurrency.
const MaxConcurrency = 1024

// ValidSchemes are the device API schemes swarm can speak.
var ValidSchemes = map[string]bool{
	"http":  true,
	"https": true,
}

// ValidColorModes are the accepted output.color values.
var ValidColorModes = map[string]bool{
	"auto":   true,
	"always": true,
	"never":  true,
}

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but swarm only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Grab the latest swarm release")
	}

	if err := validateNetwork(cfg.Network); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, firstLine(err), "Check the 'network' section in your .swarm.yaml.")
	}

	if err := validateProbe(cfg.Probe); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, firstLine(err), "Check the 'probe' section in your .swarm.yaml.")
	}

	if cfg.Refresh.Interval < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh.interval must be at least 1 second, got %d", cfg.Refresh.Interval),
			"Something like 30 works well.")
	}

	if strings.TrimSpace(cfg.Store.Path) == "" {
		return errors.New(errors.ErrConfig,
			"store.path is empty",
			"Point it at a writable file, e.g. ~/.local/share/swarm/swarm.db")
	}

	if cfg.Output.Color != "" && !ValidColorModes[cfg.Output.Color] {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("output.color '%s' isn't recognized", cfg.Output.Color),
			"Use auto, always, or never.")
	}

	return nil
}

func validateNetwork(n NetworkConfig) error {
	if n.Address != "" {
		if _, err := netrange.ParseIPv4(n.Address); err != nil {
			return fmt.Errorf("network.address '%s' isn't a valid IPv4 address", n.Address)
		}
	}
	mask, err := netrange.ParseIPv4(n.Netmask)
	if err != nil {
		return fmt.Errorf("network.netmask '%s' isn't a valid netmask", n.Netmask)
	}
	if !contiguous(mask) {
		return fmt.Errorf("network.netmask '%s' has gaps; use a contiguous mask like 255.255.255.0", n.Netmask)
	}
	if netrange.PrefixLen(mask) < netrange.MinPrefixLen {
		return fmt.Errorf("network.netmask '%s' is wider than /%d; scans are limited to %s or narrower",
			n.Netmask, netrange.MinPrefixLen, "255.255.0.0")
	}
	return nil
}

// contiguous reports whether mask is a run of ones followed by zeros.
func contiguous(mask uint32) bool {
	ones := bits.LeadingZeros32(^mask)
	return bits.TrailingZeros32(mask) == 32-ones
}

func validateProbe(p ProbeConfig) error {
	if p.Timeout <= 0 {
		return fmt.Errorf("probe.timeout must be positive, got %s", p.Timeout)
	}
	if p.Concurrency < 1 || p.Concurrency > MaxConcurrency {
		return fmt.Errorf("probe.concurrency must be between 1 and %d, got %d", MaxConcurrency, p.Concurrency)
	}
	if !ValidSchemes[p.Scheme] {
		return fmt.Errorf("probe.scheme '%s' isn't supported; use http or https", p.Scheme)
	}
	if p.Port < 0 || p.Port > 65535 {
		return fmt.Errorf("probe.port %d is out of range", p.Port)
	}
	return nil
}

func firstLine(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}
	return msg
}
