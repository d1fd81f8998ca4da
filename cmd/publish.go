package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/clipflow/clipflow/internal/clips"
	"github.com/clipflow/clipflow/internal/config"
	"github.com/clipflow/clipflow/internal/publish"
	"github.com/clipflow/clipflow/internal/utils"
	"github.com/clipflow/clipflow/internal/youtube"

	"github.com/spf13/cobra"
)

var (
	publishUploadsPlaylistID string
	publishScanMoreUploads   int
	publishCategoryID        string
	publishSuppressCredit    bool
	publishCredentials       string
	publishCachePath         string
	publishConfigPath        string
)

var publishCmd = &cobra.Command{
	Use:   "publish <csv> [playlist-id]",
	Short: "Rename uploaded clips, set them public, and playlist them",
	Long: `Reconciles the clips in a CSV edit log against YouTube. Uploads whose
auto-assigned title matches a clip's expected title are renamed, set to
Public, and added to the playlist. Videos already carrying their final name
are left alone, so re-running is always safe.

By default only the last n uploads are scanned, where n is the number of
clips in the CSV. Pass --scan-more-uploads to widen the scan, or
--uploads-playlist-id to scan a specific playlist instead.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(publishConfigPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("category-id") {
			cfg.CategoryID = publishCategoryID
		}
		if cmd.Flags().Changed("scan-more-uploads") {
			cfg.ScanMoreUploads = publishScanMoreUploads
		}
		if cmd.Flags().Changed("suppress-credit") {
			cfg.SuppressCredit = publishSuppressCredit
		}
		if publishCredentials != "" {
			cfg.Credentials = publishCredentials
		}
		if publishCachePath != "" {
			cfg.Cache = publishCachePath
		}

		playlistID := cfg.PlaylistID
		if len(args) == 2 {
			playlistID = args[1]
		}
		if playlistID == "" {
			return fmt.Errorf("no playlist ID given: pass it as an argument or set playlistId in %s", config.DefaultFile)
		}

		clipList, err := readClips(args[0])
		if err != nil {
			return err
		}
		if len(clipList) == 0 {
			utils.LogWarning("No clips derived from %s; nothing to publish", args[0])
			return nil
		}

		ctx := cmd.Context()
		client, err := youtube.NewClient(ctx, youtube.Options{
			CredentialsPath: cfg.Credentials,
			CachePath:       cfg.Cache,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Cache().Flush(); err != nil {
				utils.LogWarning("Failed to flush cache: %v", err)
			}
		}()

		publisher := publish.New(publish.NewAPIClient(client), publish.Options{
			PlaylistID:        playlistID,
			CategoryID:        cfg.CategoryID,
			UploadsPlaylistID: publishUploadsPlaylistID,
			ScanMoreUploads:   cfg.ScanMoreUploads,
			SuppressCredit:    cfg.SuppressCredit,
		})
		return publisher.Run(ctx, clipList)
	},
}

// readClips derives clips from an edit-log CSV. A malformed row ends the
// derivation; the rows before it still yield clips, which is reported so the
// operator can fix the log and re-run.
func readClips(path string) ([]clips.Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open edit log: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			utils.LogWarning("Failed to close edit log: %v", err)
		}
	}()

	clipList, err := clips.ReadAll(clips.NewReader(f))
	if err != nil {
		var rowErr *clips.RowError
		if !errors.As(err, &rowErr) {
			return nil, err
		}
		utils.LogError("Stopping at row %d of %s: %s", rowErr.Row, path, rowErr.Reason)
		utils.LogWarning("Continuing with the %d clips before the malformed row", len(clipList))
	}

	return clipList, nil
}

func init() {
	publishCmd.Flags().StringVarP(&publishUploadsPlaylistID, "uploads-playlist-id", "u", "",
		"ID of a playlist to scan instead of your uploaded videos")
	publishCmd.Flags().IntVar(&publishScanMoreUploads, "scan-more-uploads", 0,
		"Number of additional uploads to discover (ignored with --uploads-playlist-id)")
	publishCmd.Flags().StringVar(&publishCategoryID, "category-id", "22",
		"YouTube category ID to assign to videos")
	publishCmd.Flags().BoolVar(&publishSuppressCredit, "suppress-credit", false,
		"Suppress the credit line at the end of the description")
	publishCmd.Flags().StringVar(&publishCredentials, "credentials", "",
		"Path to the OAuth client secrets file (default: $"+youtube.ClientSecretsEnvVar+")")
	publishCmd.Flags().StringVar(&publishCachePath, "cache", "",
		"Path to the video metadata cache file (default: "+youtube.DefaultCacheFile+")")
	publishCmd.Flags().StringVarP(&publishConfigPath, "config", "c", "",
		"Path to a clipflow config file (default: "+config.DefaultFile+")")

	rootCmd.AddCommand(publishCmd)
}
