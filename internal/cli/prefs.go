package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/swarm/internal/errors"
	"github.com/rileyhilliard/swarm/internal/swarm"
	"github.com/rileyhilliard/swarm/internal/ui"
	"github.com/rileyhilliard/swarm/internal/view"
)

var sortCmd = &cobra.Command{
	Use:   "sort [field] [asc|desc]",
	Short: "Show or change the stored sort order",
	Long: `Change how 'list' and 'watch' order devices. Without a direction,
picking the current field again flips it.

With no arguments in a terminal you pick from a menu; otherwise the
current order is printed.

Fields: ` + strings.Join(view.Fields(), ", ") + `

Examples:
  swarm sort hashRate desc
  swarm sort bestDiff
  swarm sort`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		w := cmd.OutOrStdout()
		if len(args) == 0 {
			if !interactive() {
				printSort(w, a.swarm.SortSpec())
				return nil
			}
			spec, ok, err := pickSort(a.swarm.SortSpec())
			if err != nil || !ok {
				return err
			}
			args = []string{spec.Field, string(spec.Direction)}
		}

		var dir view.Direction
		if len(args) == 2 {
			dir, err = parseDirection(args[1])
			if err != nil {
				return err
			}
		}
		spec, err := a.swarm.SortBy(args[0], dir)
		if err != nil {
			return err
		}
		printSort(w, spec)
		return nil
	},
}

var intervalCmd = &cobra.Command{
	Use:   "interval [seconds]",
	Short: "Show or change the watch refresh interval",
	Long: `Set how often 'swarm watch' refreshes the fleet. The value is stored
with the fleet and takes precedence over refresh.interval in config.

Examples:
  swarm interval 15
  swarm interval`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return runInterval(cmd.OutOrStdout(), a.swarm, args)
	},
}

var viewCmd = &cobra.Command{
	Use:       "view [grid|list]",
	Short:     "Show or change the stored layout",
	Long:      `Choose whether 'list' and 'watch' show cards (grid) or a table (list).`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"grid", "list"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return runView(cmd.OutOrStdout(), a.swarm, args)
	},
}

func init() {
	rootCmd.AddCommand(sortCmd, intervalCmd, viewCmd)
}

func parseDirection(s string) (view.Direction, error) {
	switch view.Direction(s) {
	case view.Asc, view.Desc:
		return view.Direction(s), nil
	}
	return "", errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown sort direction %q", s),
		"Use 'asc' or 'desc'")
}

func printSort(w io.Writer, spec view.Spec) {
	fmt.Fprintf(w, "Sorted by %s (%s)\n", view.Display(spec.Field), spec.Direction)
}

// pickSort shows the sort menu with the current selection highlighted.
var pickSort = func(current view.Spec) (view.Spec, bool, error) {
	opts := view.SortOptions()
	options := make([]huh.Option[int], len(opts))
	choice := 0
	for i, o := range opts {
		arrow := "↓"
		if o.Spec.Direction == view.Asc {
			arrow = "↑"
		}
		options[i] = huh.NewOption(o.Label+" "+arrow, i)
		if o.Spec == current {
			choice = i
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Sort devices by").
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return view.Spec{}, false, nil
	}
	return opts[choice].Spec, true, nil
}

func runInterval(w io.Writer, sw *swarm.Swarm, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(w, "Refreshing every %s\n", seconds(sw.Policy().Interval()))
		return nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Interval must be a whole number of seconds, got %q", args[0]),
			"Example: swarm interval 30")
	}
	if err := sw.SetRefreshInterval(n); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Refreshing every %s\n", ui.SymbolSuccess, seconds(n))
	return nil
}

func runView(w io.Writer, sw *swarm.Swarm, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(w, "Layout: %s\n", layoutName(sw.GridView()))
		return nil
	}
	var grid bool
	switch args[0] {
	case "grid":
		grid = true
	case "list":
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown layout %q", args[0]),
			"Use 'grid' or 'list'")
	}
	if err := sw.SetGridView(grid); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Layout: %s\n", ui.SymbolSuccess, layoutName(grid))
	return nil
}

func layoutName(grid bool) string {
	if grid {
		return "grid"
	}
	return "list"
}

func seconds(n int) string {
	if n == 1 {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", n)
}
