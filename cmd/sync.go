package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mfbox/core/sync"
)

var syncMessage string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the library blob with the configured remote repository",
}

var syncInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the remote blob fingerprint without downloading it",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newSyncClient()
		info, err := client.GetFileInfo(cmd.Context(), cfg.SyncToken, cfg.SyncRepo, cfg.SyncPath)
		if err != nil {
			return err
		}
		if info == nil {
			fmt.Println("No remote file yet")
			return nil
		}
		fmt.Printf("sha: %s\nsize: %d\n", info.SHA, info.Size)
		if info.LastModified != "" {
			fmt.Printf("last modified: %s\n", info.LastModified)
		}
		return nil
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download the remote library blob to stdout or a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newSyncClient()
		data, err := client.Download(cmd.Context(), cfg.SyncToken, cfg.SyncRepo, cfg.SyncPath)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			fmt.Fprintln(os.Stderr, "Remote is empty, nothing to merge yet")
			return nil
		}
		if len(args) == 1 {
			return os.WriteFile(args[0], data, 0644)
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var syncPushCmd = &cobra.Command{
	Use:   "push <file>",
	Short: "Replace the remote library blob with a local file",
	Long: `Replace the remote blob using SHA-based optimistic concurrency.
If the remote changed since it was last read the push is rejected; pull,
merge and push again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		client := newSyncClient()
		err = client.Update(cmd.Context(), cfg.SyncToken, cfg.SyncRepo, data, cfg.SyncPath, syncMessage)
		if errors.Is(err, sync.ErrConflict) {
			return fmt.Errorf("remote changed since last read, pull and merge first: %w", err)
		}
		if err != nil {
			return err
		}
		fmt.Println("Pushed")
		return nil
	},
}

func newSyncClient() *sync.Client {
	client := sync.NewClient()
	client.SetBranch(cfg.SyncBranch)
	return client
}

func init() {
	syncPushCmd.Flags().StringVarP(&syncMessage, "message", "m", "", "commit message for the remote update")

	syncCmd.AddCommand(syncInfoCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncPushCmd)
	rootCmd.AddCommand(syncCmd)
}
