package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/swarm/internal/errors"
	"github.com/rileyhilliard/swarm/internal/logger"
	"github.com/rileyhilliard/swarm/internal/ui"
)

// Global flags
var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "swarm",
	Short: "Discover, watch and manage a fleet of network miners",
	Long: `swarm finds the miners on your local subnet, keeps a list of them,
and shows their combined hashrate, power and best difficulty.

Run 'swarm scan' once to find devices, then 'swarm list' or 'swarm watch'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.EnableDebug(verbose)
		if noColor {
			ui.DisableColors()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .swarm.yaml, then ~/.config/swarm/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError writes err in the structured ✗ / cause / suggestion form, or
// as a JSON envelope when the command ran with --json.
func printError(w io.Writer, err error) {
	if jsonOutput {
		_ = WriteJSONFromError(os.Stdout, err)
		return
	}

	var swErr *errors.Error
	if stderrors.As(err, &swErr) {
		fmt.Fprint(w, swErr.Error())
		return
	}

	msg := err.Error()
	if isUnknownCommandError(err) {
		fmt.Fprintf(w, "%s %s\n\n  Run 'swarm --help' to see available commands.\n", ui.SymbolFail, msg)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ui.SymbolFail, msg)
}

// isUnknownCommandError reports whether cobra rejected the command line.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}
