package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/clipflow/clipflow/internal/utils"
	"github.com/clipflow/clipflow/internal/youtube"

	"github.com/spf13/cobra"
)

var cacheFilePath string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the video metadata cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Summarize the cached video entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := youtube.OpenCache(cacheFilePath)
		if err != nil {
			return err
		}

		if cache.Len() == 0 {
			fmt.Printf("Cache %s is empty.\n", cacheFilePath)
			return nil
		}

		fmt.Printf("Cache %s holds %d video entries.\n", cacheFilePath, cache.Len())

		ids := cache.IDs()
		sort.Strings(ids)
		for _, id := range ids {
			title := ""
			if video := cache.Get(id); video.Snippet != nil {
				title = video.Snippet.Title
			}
			utils.LogVerbose("%s %s", id, title)
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cache file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.Remove(cacheFilePath); err != nil {
			if os.IsNotExist(err) {
				fmt.Printf("Cache %s does not exist; nothing to clear.\n", cacheFilePath)
				return nil
			}
			return fmt.Errorf("failed to remove cache file: %w", err)
		}

		utils.LogSuccess("Removed cache file %s", cacheFilePath)
		return nil
	},
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheFilePath, "cache", youtube.DefaultCacheFile,
		"Path to the video metadata cache file")

	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
