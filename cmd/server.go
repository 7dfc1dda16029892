package cmd

import (
	"github.com/spf13/cobra"

	"mfbox/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the asset streaming server",
	Long:  `Start the HTTP server that streams library assets with range support and exposes the library API.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
