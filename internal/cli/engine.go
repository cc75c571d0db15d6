package cli

import (
	"os"

	"golang.org/x/term"

	"github.com/rileyhilliard/swarm/internal/config"
	"github.com/rileyhilliard/swarm/internal/logger"
	"github.com/rileyhilliard/swarm/internal/persist"
	"github.com/rileyhilliard/swarm/internal/probe"
	"github.com/rileyhilliard/swarm/internal/swarm"
	"github.com/rileyhilliard/swarm/internal/ui"
)

// app is what a command works with once config and storage are open.
type app struct {
	cfg     *config.Config
	cfgPath string
	swarm   *swarm.Swarm
}

func (a *app) Close() error {
	return a.swarm.Close()
}

// newFetcher builds the device client; tests swap it for a fake.
var newFetcher = func(cfg *config.Config) probe.Fetcher {
	return probe.New(
		probe.NewClient(cfg.Probe.Scheme, cfg.Probe.Port),
		probe.WithTimeout(cfg.Probe.Timeout),
		probe.WithLogger(logger.NewEnvLogger("[probe]")),
	)
}

// openBackend opens fleet storage; tests swap it for memory.
var openBackend = func(cfg *config.Config) (persist.Backend, error) {
	return persist.OpenSQLite(cfg.Store.Path)
}

// loadConfig finds, loads and validates config. Overrides are applied
// before validation.
func loadConfig(overrides ...func(*config.Config)) (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, "", err
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	if !noColor {
		ui.SetColorMode(cfg.Output.Color, isTerminal(os.Stdout))
	}
	return cfg, path, nil
}

// openApp loads config and opens the engine over stored state.
func openApp(overrides ...func(*config.Config)) (*app, error) {
	cfg, path, err := loadConfig(overrides...)
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}

	sw, err := swarm.Open(persist.New(backend), newFetcher(cfg), swarm.Config{
		Options: swarm.Options{
			Concurrency: cfg.Probe.Concurrency,
			Address:     cfg.Network.Address,
			Netmask:     cfg.Network.Netmask,
			Logger:      logger.NewEnvLogger("[swarm]"),
		},
		RefreshInterval: cfg.Refresh.Interval,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &app{cfg: cfg, cfgPath: path, swarm: sw}, nil
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of stdout, or fallback when it isn't a
// terminal.
func terminalWidth(fallback int) int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return fallback
}

// interactive gates pickers and confirmations.
var interactive = func() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}
