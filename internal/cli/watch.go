package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/swarm/internal/dashboard"
	"github.com/rileyhilliard/swarm/internal/errors"
	"github.com/rileyhilliard/swarm/internal/swarm"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"dash"},
	Short:   "Live dashboard that refreshes the fleet on a timer",
	Long: `Open a full-screen dashboard of the fleet with running totals.

The fleet refreshes every interval (see 'swarm interval') unless a scan or
refresh is already running or the list is empty. A stored fleet starts
with a full refresh; otherwise the dashboard starts by scanning.

Keys: r refresh, s scan, g grid/list, o sort, O reverse, / filter, ? help, q quit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		model := dashboard.NewModel(a.swarm, startupFor(a.swarm))
		defer model.Close()

		if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Dashboard failed",
				"Use 'swarm list' when no terminal is available")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// startupFor picks the dashboard's first batch.
func startupFor(sw *swarm.Swarm) dashboard.Startup {
	if !sw.Loaded() {
		return dashboard.StartScan
	}
	return dashboard.StartFullRefresh
}
