// Package commands defines the gantry CLI.
package commands

import (
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:     "gantry",
	Short:   "Gantry - research administration assistant service",
	Long:    `Gantry runs a multi-agent research administration assistant: a coordinator agent routes chat turns to specialized sub-agents over a store of project and person records.`,
	Version: Version,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
}
