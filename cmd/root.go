package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mfbox/config"
	"mfbox/logger"
	"mfbox/server"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "mfbox",
	Short: "mfbox is a personal media library with backup and sync.",
	Run: func(cmd *cobra.Command, args []string) {
		// Bare invocation runs the streaming server.
		server.Start(cfg)
	},
}

// Execute executes the root command.
func Execute() {
	cobra.OnInitialize(func() {
		cfg = config.Load()
		logger.Init(logger.Config{
			Level:      cfg.LogLevel,
			OutputPath: cfg.LogPath,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     30,
		})
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
