package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mfbox/core/cache"
	"mfbox/repository"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or reclaim unreferenced assets",
}

var cacheSizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Report how many bytes the library no longer references",
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := repository.NewLibraryRepository(cfg.LibraryPath()).Load()
		if err != nil {
			return err
		}
		size, err := cache.Size(cfg.AppDir, lib)
		if err != nil {
			return err
		}
		fmt.Printf("%d bytes reclaimable\n", size)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every asset the library no longer references",
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := repository.NewLibraryRepository(cfg.LibraryPath()).Load()
		if err != nil {
			return err
		}
		return cache.Clear(cfg.AppDir, lib)
	},
}

func init() {
	cacheCmd.AddCommand(cacheSizeCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
