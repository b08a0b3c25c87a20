// fluxion reads problem files describing systems of nonlinear
// differential equations, rewrites them into explicit first-order form
// and integrates them.
//
// Usage:
//
//	fluxion [--log-level LEVEL] [--no-color] <command> PROBLEM [flags]
//
// Commands:
//
//	check   Validate a problem file and show its first-order layout
//	reduce  Print the reduced system, optionally with its program
//	solve   Integrate the problem and emit the trajectory
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fluxionlabs/fluxion"
)

// version is set with ldflags at build time.
var version = "dev"

func main() {
	var logLevel string
	var noColor bool

	rootCmd := &cobra.Command{
		Use:           "fluxion",
		Short:         "Reduce differential equations to first-order systems and integrate them",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	optsFn := func() fluxion.Options {
		opts := fluxion.DefaultOptions()
		opts.Logger = fluxion.NewLogger(fluxion.ParseLogLevel(logLevel), os.Stderr)
		return opts
	}
	outFn := func() *output { return newOutput(os.Stdout, !noColor) }

	rootCmd.AddCommand(
		newCheckCmd(optsFn, outFn),
		newReduceCmd(optsFn, outFn),
		newSolveCmd(optsFn, outFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
