// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "configurator-admin",
	Short: "configurator-admin is the back-office API of the 3D product configurator",
	Long: `configurator-admin serves the REST API behind the 3D product configurator:
accounts with role-based permissions, the model catalog, widget visibility,
presets, saved configurations and the activity log.`,
	Args: cobra.OnlyValidArgs,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "Directory holding main.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
