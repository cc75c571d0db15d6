package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/swarm/internal/aggregate"
	"github.com/rileyhilliard/swarm/internal/device"
	"github.com/rileyhilliard/swarm/internal/swarm"
	"github.com/rileyhilliard/swarm/internal/ui"
	"github.com/rileyhilliard/swarm/internal/view"
)

var (
	listFilter string
	listSort   string
	listAsc    bool
	listDesc   bool
	listGrid   bool
	listWidth  int
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show the device list with fleet totals",
	Long: `Print every known device, sorted and filtered, above the fleet totals.

--sort changes the stored sort order, the same as 'swarm sort'. The filter
matches hostname, model, ASIC and IP, case-insensitively. When nothing has
been stored yet, a scan runs first.

Examples:
  swarm list
  swarm list --filter gamma
  swarm list --sort hashRate --desc
  swarm list --grid
  swarm list --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		opts := listOptions{
			Filter:    listFilter,
			Sort:      listSort,
			Direction: directionFlag(listAsc, listDesc),
			Grid:      a.swarm.GridView(),
			Width:     listWidth,
		}
		if cmd.Flags().Changed("grid") {
			opts.Grid = listGrid
		}
		if opts.Width <= 0 {
			opts.Width = terminalWidth(120)
		}
		return runList(cmd.Context(), cmd.OutOrStdout(), a.swarm, opts)
	},
}

var totalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Show combined hashrate, power and best difficulty",
	Long: `Show the fleet totals. Offline devices count for nothing; the best
difficulty is the largest any device has reported.

Examples:
  swarm totals
  swarm totals --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return runTotals(cmd.OutOrStdout(), a.swarm)
	},
}

var familiesFilter string

var familiesCmd = &cobra.Command{
	Use:   "families",
	Short: "Count devices by model and chip",
	Long: `List each hardware family in the fleet with how many devices it has.

Examples:
  swarm families
  swarm families --filter supra`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return runFamilies(cmd.OutOrStdout(), a.swarm, familiesFilter)
	},
}

func init() {
	rootCmd.AddCommand(listCmd, totalsCmd, familiesCmd)

	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "only show devices matching this text")
	listCmd.Flags().StringVarP(&listSort, "sort", "s", "", "sort by field (e.g. hostname, hashRate, bestDiff)")
	listCmd.Flags().BoolVar(&listAsc, "asc", false, "sort ascending")
	listCmd.Flags().BoolVar(&listDesc, "desc", false, "sort descending")
	listCmd.Flags().BoolVar(&listGrid, "grid", false, "show cards instead of a table")
	listCmd.Flags().IntVar(&listWidth, "width", 0, "layout width for --grid (default: terminal width)")
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	listCmd.MarkFlagsMutuallyExclusive("asc", "desc")

	totalsCmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	familiesCmd.Flags().StringVarP(&familiesFilter, "filter", "f", "", "only count devices matching this text")
	familiesCmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
}

type listOptions struct {
	Filter    string
	Sort      string
	Direction view.Direction
	Grid      bool
	Width     int
}

// directionFlag maps --asc/--desc to a direction; empty when neither is set.
func directionFlag(asc, desc bool) view.Direction {
	switch {
	case asc:
		return view.Asc
	case desc:
		return view.Desc
	}
	return ""
}

// listResult is the --json payload of list.
type listResult struct {
	Devices []device.Device  `json:"devices"`
	Totals  aggregate.Totals `json:"totals"`
	Sort    view.Spec        `json:"sort"`
	Count   int              `json:"count"`
}

func runList(ctx context.Context, w io.Writer, sw *swarm.Swarm, opts listOptions) error {
	if !sw.Loaded() && sw.Len() == 0 {
		if err := runScan(ctx, io.Discard, sw); err != nil {
			return err
		}
	}

	if opts.Sort != "" || opts.Direction != "" {
		field := opts.Sort
		if field == "" {
			field = sw.SortSpec().Field
		}
		if _, err := sw.SortBy(field, opts.Direction); err != nil {
			return err
		}
	}

	devices := sw.View(opts.Filter)
	totals := sw.Totals()

	if jsonOutput {
		if devices == nil {
			devices = []device.Device{}
		}
		return WriteJSONSuccess(w, listResult{
			Devices: devices,
			Totals:  totals,
			Sort:    sw.SortSpec(),
			Count:   sw.Len(),
		})
	}

	if opts.Grid {
		fmt.Fprintln(w, ui.RenderGrid(devices, opts.Width))
	} else {
		fmt.Fprintln(w, ui.RenderFleetTable(devices))
	}
	if opts.Filter != "" {
		fmt.Fprintf(w, "%d of %d devices match %q\n", len(devices), sw.Len(), opts.Filter)
	}
	fmt.Fprintln(w, ui.RenderTotals(totals, sw.Len()))
	return nil
}

func runTotals(w io.Writer, sw *swarm.Swarm) error {
	totals := sw.Totals()
	if jsonOutput {
		return WriteJSONSuccess(w, struct {
			aggregate.Totals
			Count int `json:"count"`
		}{totals, sw.Len()})
	}
	fmt.Fprintln(w, ui.RenderTotals(totals, sw.Len()))
	return nil
}

func runFamilies(w io.Writer, sw *swarm.Swarm, filter string) error {
	families := sw.Families(filter)
	if jsonOutput {
		if families == nil {
			families = []aggregate.Family{}
		}
		return WriteJSONSuccess(w, families)
	}
	if len(families) == 0 {
		fmt.Fprintln(w, "No devices yet. Run 'swarm scan' or 'swarm add <ip>'.")
		return nil
	}
	fmt.Fprint(w, ui.RenderFamilies(families))
	return nil
}
