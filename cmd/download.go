package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mfbox/core/asset"
	"mfbox/core/extractor"
	"mfbox/model"
	"mfbox/repository"
)

var downloadPlaylistID string

var downloadCmd = &cobra.Command{
	Use:   "download <url>",
	Short: "Extract a URL and download its audios into the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := extractor.NewHTTPService(cfg.ExtractorAPIURL)
		store := asset.NewStore(cfg.AppDir, svc)

		playlist, _, err := svc.Extract(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		local := model.LocalPlaylist{
			ID:          playlist.ID,
			DownloadURL: args[0],
			Title:       playlist.Title,
			Cover:       playlist.Cover,
			Platform:    playlist.Platform,
		}
		if downloadPlaylistID != "" {
			local.ID = downloadPlaylistID
		}
		if playlist.Cover != "" {
			if coverPath, status := store.DownloadCover(cmd.Context(), playlist.Cover, playlist.Platform); status == asset.CoverFound {
				local.CoverPath = coverPath
			}
		}

		for _, audio := range playlist.Audios {
			downloaded, err := store.DownloadAudio(cmd.Context(), audio)
			if err != nil {
				return fmt.Errorf("download %q: %w", audio.Title, err)
			}
			local.Audios = append(local.Audios, *downloaded)
			fmt.Printf("Downloaded %s\n", audio.Title)
		}

		repo := repository.NewLibraryRepository(cfg.LibraryPath())
		lib, err := repo.Load()
		if err != nil {
			return err
		}
		imported := &model.Library{Playlists: []model.LocalPlaylist{local}}
		repository.Merge(lib, imported)
		return repo.Save(lib)
	},
}

func init() {
	downloadCmd.Flags().StringVar(&downloadPlaylistID, "playlist", "", "merge into the playlist with this id instead of the extracted one")
	rootCmd.AddCommand(downloadCmd)
}
