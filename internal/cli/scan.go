package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/swarm/internal/config"
	"github.com/rileyhilliard/swarm/internal/swarm"
	"github.com/rileyhilliard/swarm/internal/ui"
)

var (
	scanAddress string
	scanNetmask string
	refreshFull bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Probe every address in the local subnet",
	Long: `Probe every host address in the subnet and add the devices that answer.

Devices already in the list keep their place and are updated in place.
The subnet comes from network.address and network.netmask in your config;
with no address configured the first private interface is used.

Examples:
  swarm scan
  swarm scan --address 192.168.1.10 --netmask 255.255.254.0`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(func(c *config.Config) {
			if scanAddress != "" {
				c.Network.Address = scanAddress
			}
			if scanNetmask != "" {
				c.Network.Netmask = scanNetmask
			}
		})
		if err != nil {
			return err
		}
		defer a.Close()
		return runScan(cmd.Context(), cmd.OutOrStdout(), a.swarm)
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-probe every known device",
	Long: `Fetch fresh telemetry from every device in the list.

Devices that don't answer stay in the list, zeroed out and marked offline,
until the next successful refresh. --full also re-reads chip capabilities.

Examples:
  swarm refresh
  swarm refresh --full`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return runRefresh(cmd.Context(), cmd.OutOrStdout(), a.swarm, refreshFull)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd, refreshCmd)
	scanCmd.Flags().StringVar(&scanAddress, "address", "", "local address inside the subnet to scan")
	scanCmd.Flags().StringVar(&scanNetmask, "netmask", "", "subnet mask (default from config)")
	refreshCmd.Flags().BoolVar(&refreshFull, "full", false, "also re-read chip capabilities")
}

func runScan(ctx context.Context, w io.Writer, sw *swarm.Swarm) error {
	r, err := sw.Range()
	if err != nil {
		return err
	}
	progress(fmt.Sprintf("Scanning %s (%d addresses)", r, r.Size()))

	sum, err := sw.Discover(orBackground(ctx))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Found %d devices, %d new, in %s\n",
		ui.SymbolSuccess, sum.Found, sum.Added, sum.Elapsed.Round(10*time.Millisecond))
	return nil
}

func runRefresh(ctx context.Context, w io.Writer, sw *swarm.Swarm, full bool) error {
	if sw.Len() == 0 {
		fmt.Fprintln(w, "No devices yet. Run 'swarm scan' or 'swarm add <ip>'.")
		return nil
	}
	progress(fmt.Sprintf("Refreshing %d devices", sw.Len()))

	sum, err := sw.RefreshAll(orBackground(ctx), full)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Refreshed %d devices in %s", ui.SymbolSuccess, sum.Probed, sum.Elapsed.Round(10*time.Millisecond))
	if sum.Degraded > 0 {
		fmt.Fprintf(w, ", %d offline", sum.Degraded)
	}
	fmt.Fprintln(w)
	return nil
}

// progress notes a long-running step on stderr when a person is watching.
func progress(msg string) {
	if isTerminal(os.Stderr) && !jsonOutput {
		fmt.Fprintln(os.Stderr, ui.SymbolPending+" "+msg+"...")
	}
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
