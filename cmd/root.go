package cmd

import (
	"github.com/spf13/cobra"
)

var (
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "grimoire",
	Short: "GRIMOIRE — a declarative engine for tabletop generation systems",
	Long:  "GRIMOIRE loads a system of sources, models, compendiums, tables and flows from YAML and runs them as an interactive, pausable flow engine.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "o", "table", "display format for list/browse/execute: table or json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
}

func Execute() error {
	return rootCmd.Execute()
}
