package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/clipflow/clipflow/internal/clips"
	"github.com/clipflow/clipflow/internal/ffmpeg"
	"github.com/clipflow/clipflow/internal/validator"

	"github.com/spf13/cobra"
)

var clipEncode bool

var clipCmd = &cobra.Command{
	Use:   "clip <csv> <output-dir>",
	Short: "Cut clips out of source videos using a CSV edit log",
	Long: `Cuts each clip named in the CSV edit log out of its source video with
ffmpeg. Source files are resolved relative to the CSV file. Clips whose
output file already exists are skipped, so an interrupted run can be
resumed by re-running.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validator.ValidateExternalTools(); err != nil {
			return fmt.Errorf("dependency validation failed: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		csvPath, outDir := args[0], args[1]

		info, err := os.Stat(outDir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("output directory %s does not exist", outDir)
		}

		clipList, err := readClips(csvPath)
		if err != nil {
			return err
		}

		// Group clips by source file, preserving log order, so each source
		// is probed and cut in a single ffmpeg invocation.
		byFile := make(map[string][]clips.Clip)
		var order []string
		for _, clip := range clipList {
			if _, seen := byFile[clip.File]; !seen {
				order = append(order, clip.File)
			}
			byFile[clip.File] = append(byFile[clip.File], clip)
		}

		csvDir := filepath.Dir(csvPath)
		for _, file := range order {
			source := filepath.Join(csvDir, file)
			if err := ffmpeg.CutClips(cmd.Context(), source, byFile[file], outDir, clipEncode); err != nil {
				return err
			}
		}

		return nil
	},
}

func init() {
	clipCmd.Flags().BoolVarP(&clipEncode, "encode", "e", false,
		"Re-encode video and audio instead of stream copying")

	rootCmd.AddCommand(clipCmd)
}
