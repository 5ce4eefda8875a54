package main

import (
	"fmt"

	"github.com/bastiangx/pickserve/pkg/config"
	"github.com/spf13/cobra"
)

var resetConfig bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the active config file, or rewrite the default one",
	RunE: func(cmd *cobra.Command, args []string) error {
		if resetConfig {
			if err := config.RebuildConfigFile(); err != nil {
				return fmt.Errorf("rebuild config: %w", err)
			}
			path, err := config.GetDefaultConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote defaults to %s\n", path)
			return nil
		}

		_, activePath, err := config.LoadConfigWithPriority(configPath)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.GetActiveConfigPath(activePath))
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&resetConfig, "reset", false, "Overwrite the default config.toml with default values")
	rootCmd.AddCommand(configCmd)
}
