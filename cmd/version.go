package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mfbox/server"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the mfbox version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(server.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
