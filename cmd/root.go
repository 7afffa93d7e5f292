package cmd

import (
	"github.com/spf13/cobra"

	"audio-archive/config"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{}
	rootCmd.AddCommand(server(config))
	rootCmd.AddCommand(reconcile(config))
	return rootCmd
}
