package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	runtimehealth "github.com/zero-day-ai/runtimehealth"
)

var rootCmd = &cobra.Command{
	Use:           "runtimehealth",
	Short:         "Report whether the installed runtime version is supported",
	Long:          `runtimehealth checks the installed alternate runtime against known-defective and deprecated versions, alongside a few supporting host checks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath string
	colorMode  string
)

func main() {
	rootCmd.Version = Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("RUNTIMEHEALTH_CONFIG"), "path to a .yaml or .toml config file")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "colorize output (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, runtimehealth.ErrChecksFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
