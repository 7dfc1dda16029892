package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mfbox/core/backup"
	"mfbox/logger"
	"mfbox/repository"
	"mfbox/storage"
)

var (
	backupUpload     bool
	backupFromRemote bool
	backupStrategy   string
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or import a portable backup archive",
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the library and its referenced assets into a zip archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := repository.NewLibraryRepository(cfg.LibraryPath())
		lib, err := repo.Load()
		if err != nil {
			return err
		}

		name, err := backup.Export(cfg.AppDir, cfg.BackupDir, lib)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %s\n", filepath.Join(cfg.BackupDir, name))

		if backupUpload {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			replicator, err := storage.NewReplicator(ctx, cfg)
			if err != nil {
				return err
			}
			if err := replicator.UploadBackup(ctx, filepath.Join(cfg.BackupDir, name)); err != nil {
				return err
			}
			fmt.Println("Replicated to object storage")
		}
		return nil
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the newest backup archive and merge it into the library",
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy := backup.CopyOnMissing
		if backupStrategy == "bulk" {
			strategy = backup.BulkCopy
		}

		backupDir := cfg.BackupDir
		if backupFromRemote {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			replicator, err := storage.NewReplicator(ctx, cfg)
			if err != nil {
				return err
			}
			object, err := replicator.LatestBackup(ctx)
			if err != nil {
				return err
			}
			local, err := replicator.DownloadBackup(ctx, object, cfg.BackupDir)
			if err != nil {
				return err
			}
			logger.Info("fetched remote backup", logger.String("archive", local))
		}

		result, err := backup.Import(cfg.AppDir, backupDir, strategy)
		if err != nil {
			return err
		}

		repo := repository.NewLibraryRepository(cfg.LibraryPath())
		lib, err := repo.Load()
		if err != nil {
			return err
		}
		playlists, audios := repository.Merge(lib, result.Library)
		if err := repo.Save(lib); err != nil {
			return err
		}

		fmt.Printf("Imported %s: %d assets copied, %d playlists and %d audios added\n",
			result.Archive, len(result.Copied), playlists, audios)
		return nil
	},
}

func init() {
	backupExportCmd.Flags().BoolVar(&backupUpload, "upload", false, "replicate the archive to object storage")
	backupImportCmd.Flags().BoolVar(&backupFromRemote, "from-remote", false, "fetch the newest archive from object storage first")
	backupImportCmd.Flags().StringVar(&backupStrategy, "strategy", "missing", "asset copy strategy: missing or bulk")

	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupImportCmd)
	rootCmd.AddCommand(backupCmd)
}
