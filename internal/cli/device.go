package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/swarm/internal/errors"
	"github.com/rileyhilliard/swarm/internal/swarm"
	"github.com/rileyhilliard/swarm/internal/ui"
)

var assumeYes bool

var addCmd = &cobra.Command{
	Use:   "add <ip>",
	Short: "Add one device by address",
	Long: `Probe a single address and add it to the device list.

The device has to answer with an ASIC model; anything else is rejected.

Examples:
  swarm add 192.168.1.42`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return runAdd(cmd.Context(), cmd.OutOrStdout(), a.swarm, args[0])
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove [ip]",
	Aliases: []string{"rm"},
	Short:   "Remove a device from the list",
	Long: `Remove a device from the list. Without an address you pick one
interactively.

Examples:
  swarm remove 192.168.1.42
  swarm remove --yes 192.168.1.42
  swarm remove`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ip, err := targetIP(a.swarm, args, "Remove which device?")
		if err != nil || ip == "" {
			return err
		}
		ok, err := confirm(fmt.Sprintf("Remove %s from the swarm?", ip))
		if err != nil || !ok {
			return err
		}
		return runRemove(cmd.OutOrStdout(), a.swarm, ip)
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart [ip]",
	Short: "Reboot a device",
	Long: `Ask a device to reboot. It drops off until it comes back up, so the
next refresh may show it offline.

Examples:
  swarm restart 192.168.1.42
  swarm restart`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ip, err := targetIP(a.swarm, args, "Restart which device?")
		if err != nil || ip == "" {
			return err
		}
		ok, err := confirm(fmt.Sprintf("Restart %s?", ip))
		if err != nil || !ok {
			return err
		}
		return runRestart(cmd.Context(), cmd.OutOrStdout(), a.swarm, ip)
	},
}

func init() {
	rootCmd.AddCommand(addCmd, removeCmd, restartCmd)
	addCmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	removeCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "don't ask for confirmation")
	restartCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "don't ask for confirmation")
}

func runAdd(ctx context.Context, w io.Writer, sw *swarm.Swarm, ip string) error {
	progress("Probing " + ip)
	d, err := sw.Add(orBackground(ctx), ip)
	if err != nil {
		return err
	}
	if jsonOutput {
		return WriteJSONSuccess(w, d)
	}
	fmt.Fprintf(w, "%s Added %s (%s, %s)\n", ui.SymbolSuccess, ui.DisplayName(d), d.IP, d.Label())
	return nil
}

func runRemove(w io.Writer, sw *swarm.Swarm, ip string) error {
	if _, ok := sw.Get(ip); !ok {
		fmt.Fprintf(w, "%s %s isn't in the list\n", ui.SymbolPending, ip)
		return nil
	}
	if err := sw.Remove(ip); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Removed %s\n", ui.SymbolSuccess, ip)
	return nil
}

func runRestart(ctx context.Context, w io.Writer, sw *swarm.Swarm, ip string) error {
	if err := sw.Restart(orBackground(ctx), ip); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Restart sent to %s\n", ui.SymbolSuccess, ip)
	return nil
}

// targetIP returns the address from args, or lets the user pick one.
// Empty with no error means the picker was cancelled.
func targetIP(sw *swarm.Swarm, args []string, title string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if !interactive() {
		return "", errors.New(errors.ErrConfig,
			"No device address given",
			"Pass the address, e.g. 'swarm remove 192.168.1.42'")
	}
	d, err := pickDevice(title, sw.View(""))
	if err != nil || d == nil {
		return "", err
	}
	return d.IP, nil
}

// pickDevice is swapped in tests.
var pickDevice = ui.PickDevice

// confirm asks a yes/no question. --yes and non-interactive sessions
// skip the prompt.
var confirm = func(title string) (bool, error) {
	if assumeYes || !interactive() {
		return true, nil
	}
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return false, nil
	}
	if !ok {
		fmt.Println("Cancelled.")
	}
	return ok, nil
}
