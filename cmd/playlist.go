package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"google.golang.org/api/iterator"

	"github.com/clipflow/clipflow/internal/config"
	"github.com/clipflow/clipflow/internal/utils"
	"github.com/clipflow/clipflow/internal/youtube"

	"github.com/spf13/cobra"
)

// playlistColumns are the item fields carried through the CSV, as dotted
// paths into the raw playlist item.
var playlistColumns = [][]string{
	{"id"},
	{"snippet", "resourceId", "kind"},
	{"snippet", "resourceId", "videoId"},
	{"snippet", "title"},
	{"contentDetails", "note"},
}

// playlistPause is the delay between playlist item updates on import.
const playlistPause = 10 * time.Millisecond

var (
	playlistCredentials string
	playlistCachePath   string
	playlistConfigPath  string
)

var playlistCmd = &cobra.Command{
	Use:   "playlist",
	Short: "Export a playlist to CSV or reorder it from an edited CSV",
}

var playlistExportCmd = &cobra.Command{
	Use:   "export <playlist-id> <csv>",
	Short: "Dump a playlist's items to a CSV file in playlist order",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		playlistID, csvPath := args[0], args[1]

		ctx := cmd.Context()
		client, flush, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer flush()

		type row struct {
			position int64
			fields   []string
		}
		var rows []row

		items := client.PlaylistItems(ctx, playlistID)
		for {
			item, err := items.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return err
			}

			raw := youtube.AsMap(item)
			fields := make([]string, len(playlistColumns))
			for i, path := range playlistColumns {
				if v := youtube.Walk(raw, path...); v != nil {
					fields[i] = fmt.Sprint(v)
				}
			}

			var position int64
			if item.Snippet != nil {
				position = item.Snippet.Position
			}
			rows = append(rows, row{position: position, fields: fields})
		}

		sort.Slice(rows, func(i, j int) bool { return rows[i].position < rows[j].position })

		f, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("failed to create CSV file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				utils.LogWarning("Failed to close CSV file: %v", err)
			}
		}()

		w := csv.NewWriter(f)
		header := make([]string, len(playlistColumns))
		for i, path := range playlistColumns {
			header[i] = strings.Join(path, ".")
		}
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		for _, r := range rows {
			if err := w.Write(r.fields); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("failed to write CSV file: %w", err)
		}

		utils.LogSuccess("Exported %d playlist items to %s", len(rows), csvPath)
		return nil
	},
}

var playlistImportCmd = &cobra.Command{
	Use:   "import <csv> <playlist-id>",
	Short: "Reorder a playlist to match an edited CSV",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		csvPath, playlistID := args[0], args[1]

		f, err := os.Open(csvPath)
		if err != nil {
			return fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				utils.LogWarning("Failed to close CSV file: %v", err)
			}
		}()

		r := csv.NewReader(f)
		records, err := r.ReadAll()
		if err != nil {
			return fmt.Errorf("failed to read CSV file: %w", err)
		}
		if len(records) == 0 {
			return fmt.Errorf("CSV file %s is empty", csvPath)
		}

		index := make(map[string]int, len(records[0]))
		for i, name := range records[0] {
			index[name] = i
		}
		field := func(record []string, path []string) string {
			i, ok := index[strings.Join(path, ".")]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		ctx := cmd.Context()
		client, flush, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer flush()

		for position, record := range records[1:] {
			title := field(record, playlistColumns[3])
			utils.LogInfo("Moving %s to position %d", title, position)

			_, err := client.UpdatePlaylistItem(ctx, youtube.PlaylistItemUpdate{
				ItemID:       field(record, playlistColumns[0]),
				PlaylistID:   playlistID,
				ResourceKind: field(record, playlistColumns[1]),
				VideoID:      field(record, playlistColumns[2]),
				Position:     int64(position),
				Note:         field(record, playlistColumns[4]),
			})
			if err != nil {
				return err
			}

			// Rate limit to avoid hitting the per-minute API quota.
			time.Sleep(playlistPause)
		}

		utils.LogSuccess("Reordered %d playlist items", len(records)-1)
		return nil
	},
}

// openClient builds an authorized API client from the playlist flags. The
// returned flush must run on every exit path.
func openClient(ctx context.Context) (*youtube.Client, func(), error) {
	cfg, err := config.Load(playlistConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if playlistCredentials != "" {
		cfg.Credentials = playlistCredentials
	}
	if playlistCachePath != "" {
		cfg.Cache = playlistCachePath
	}

	client, err := youtube.NewClient(ctx, youtube.Options{
		CredentialsPath: cfg.Credentials,
		CachePath:       cfg.Cache,
	})
	if err != nil {
		return nil, nil, err
	}

	flush := func() {
		if err := client.Cache().Flush(); err != nil {
			utils.LogWarning("Failed to flush cache: %v", err)
		}
	}
	return client, flush, nil
}

func init() {
	playlistCmd.PersistentFlags().StringVar(&playlistCredentials, "credentials", "",
		"Path to the OAuth client secrets file (default: $"+youtube.ClientSecretsEnvVar+")")
	playlistCmd.PersistentFlags().StringVar(&playlistCachePath, "cache", "",
		"Path to the video metadata cache file (default: "+youtube.DefaultCacheFile+")")
	playlistCmd.PersistentFlags().StringVarP(&playlistConfigPath, "config", "c", "",
		"Path to a clipflow config file (default: "+config.DefaultFile+")")

	playlistCmd.AddCommand(playlistExportCmd)
	playlistCmd.AddCommand(playlistImportCmd)
	rootCmd.AddCommand(playlistCmd)
}
