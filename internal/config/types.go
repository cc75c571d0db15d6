package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .swarm.yaml configuration file.
type Config struct {
	Version int           `yaml:"version" mapstructure:"version"`
	Network NetworkConfig `yaml:"network" mapstructure:"network"`
	Probe   ProbeConfig   `yaml:"probe" mapstructure:"probe"`
	Refresh RefreshConfig `yaml:"refresh" mapstructure:"refresh"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
}

// NetworkConfig selects the subnet a scan covers.
type NetworkConfig struct {
	// Address is a local IPv4 address inside the subnet.
	// Empty means detect it from the network interfaces.
	Address string `yaml:"address" mapstructure:"address"`

	// Netmask of the subnet, dotted quad.
	Netmask string `yaml:"netmask" mapstructure:"netmask"`
}

// ProbeConfig controls how devices are contacted.
type ProbeConfig struct {
	// Timeout bounds one probe, info and capabilities together.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Concurrency caps simultaneous probes per batch.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`

	// Scheme is "http" or "https".
	Scheme string `yaml:"scheme" mapstructure:"scheme"`

	// Port of the device API. 0 uses the scheme default.
	Port int `yaml:"port" mapstructure:"port"`
}

// RefreshConfig controls the automatic refresh in watch mode.
type RefreshConfig struct {
	// Interval in seconds. Only used until an interval is saved with
	// 'swarm interval'.
	Interval int `yaml:"interval" mapstructure:"interval"`
}

// StoreConfig locates the fleet database.
type StoreConfig struct {
	// Path to the SQLite file. Supports ~ and ${HOME}.
	Path string `yaml:"path" mapstructure:"path"`
}

// OutputConfig controls terminal output formatting.
type OutputConfig struct {
	// Color mode: "auto", "always", or "never".
	// "auto" disables color when output is piped.
	Color string `yaml:"color" mapstructure:"color"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Network: NetworkConfig{
			Netmask: "255.255.255.0",
		},
		Probe: ProbeConfig{
			Timeout:     5 * time.Second,
			Concurrency: 128,
			Scheme:      "http",
		},
		Refresh: RefreshConfig{
			Interval: 30,
		},
		Store: StoreConfig{
			Path: "~/.local/share/swarm/swarm.db",
		},
		Output: OutputConfig{
			Color: "auto",
		},
	}
}

// MarshalYAML writes the timeout as a duration string ("5s") rather than
// nanoseconds.
func (p ProbeConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Timeout     string `yaml:"timeout"`
		Concurrency int    `yaml:"concurrency"`
		Scheme      string `yaml:"scheme"`
		Port        int    `yaml:"port"`
	}{
		Timeout:     p.Timeout.String(),
		Concurrency: p.Concurrency,
		Scheme:      p.Scheme,
		Port:        p.Port,
	}, nil
}
