package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/swarm/internal/config"
	"github.com/rileyhilliard/swarm/internal/errors"
	"github.com/rileyhilliard/swarm/internal/netrange"
	"github.com/rileyhilliard/swarm/internal/ui"
)

// InitOptions holds the values init writes.
type InitOptions struct {
	Address        string
	Netmask        string
	Overwrite      bool
	NonInteractive bool
}

var initOpts InitOptions

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a .swarm.yaml for this directory",
	Long: `Create a .swarm.yaml with the subnet to scan.

In a terminal you are asked for the address and netmask, prefilled from
the first private interface. Otherwise the flags (or the detected values)
are used as given.

Examples:
  swarm init
  swarm init --address 192.168.1.10 --netmask 255.255.255.0
  swarm init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := initOpts
		if !interactive() {
			opts.NonInteractive = true
		}
		cwd, err := os.Getwd()
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, "Couldn't read the working directory", "")
		}
		return runInit(cmd.OutOrStdout(), filepath.Join(cwd, config.ConfigFileName), opts)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initOpts.Address, "address", "", "local address inside the subnet to scan")
	initCmd.Flags().StringVar(&initOpts.Netmask, "netmask", "", "subnet mask")
	initCmd.Flags().BoolVarP(&initOpts.Overwrite, "force", "f", false, "overwrite an existing config")
	initCmd.Flags().BoolVar(&initOpts.NonInteractive, "non-interactive", false, "don't prompt, use flags and detected values")
}

func runInit(w io.Writer, configPath string, opts InitOptions) error {
	if _, err := os.Stat(configPath); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", configPath),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", config.ConfigFileName)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
	}

	address, netmask := initDefaults(opts)

	if !opts.NonInteractive {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Local address").
					Description("Any address inside the subnet to scan; leave empty to detect at scan time").
					Placeholder("192.168.1.10").
					Value(&address).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return nil
						}
						_, err := netrange.ParseIPv4(strings.TrimSpace(s))
						return err
					}),
				huh.NewInput().
					Title("Netmask").
					Placeholder(netrange.DefaultNetmask).
					Value(&netmask).
					Validate(func(s string) error {
						_, err := netrange.ParseIPv4(strings.TrimSpace(s))
						return err
					}),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Pass --address and --netmask with --non-interactive")
		}
	}

	cfg := config.DefaultConfig()
	cfg.Network.Address = strings.TrimSpace(address)
	cfg.Network.Netmask = strings.TrimSpace(netmask)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.Save(cfg, configPath); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't write config",
			"Check that the directory is writable")
	}

	fmt.Fprintf(w, "%s Wrote %s\n", ui.SymbolSuccess, configPath)
	fmt.Fprintln(w, "  Next: swarm scan")
	return nil
}

// initDefaults fills empty fields from the local interface.
func initDefaults(opts InitOptions) (string, string) {
	address, netmask := opts.Address, opts.Netmask
	if address == "" || netmask == "" {
		if addr, mask, err := netrange.DetectLocal(); err == nil {
			if address == "" {
				address = addr
			}
			if netmask == "" {
				netmask = mask
			}
		}
	}
	if netmask == "" {
		netmask = netrange.DefaultNetmask
	}
	return address, netmask
}
