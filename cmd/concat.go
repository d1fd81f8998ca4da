package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/clipflow/clipflow/internal/ffmpeg"
	"github.com/clipflow/clipflow/internal/utils"
	"github.com/clipflow/clipflow/internal/validator"

	"github.com/spf13/cobra"
)

var concatCmd = &cobra.Command{
	Use:   "concat <dir-in> [dir-out]",
	Short: "Recombine segmented camera recordings",
	Long: `Takes files from the same recording session on a DJI camera and
recombines them: DJI_1234_001.MP4, DJI_1234_002.MP4, and so on become
DJI_1234.MP4. Unsegmented DJI_1234.MP4 files are copied through unchanged.
The output directory defaults to the input directory.`,
	Args: cobra.RangeArgs(1, 2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validator.ValidateExternalTools(); err != nil {
			return fmt.Errorf("dependency validation failed: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dirIn := args[0]
		dirOut := dirIn
		if len(args) == 2 {
			dirOut = args[1]
		}

		for _, dir := range []string{dirIn, dirOut} {
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				return fmt.Errorf("directory %s does not exist", dir)
			}
		}

		entries, err := os.ReadDir(dirIn)
		if err != nil {
			return fmt.Errorf("failed to read input directory: %w", err)
		}
		var names []string
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				names = append(names, entry.Name())
			}
		}

		families, singles := groupSegments(names)

		for _, name := range singles {
			utils.LogInfo("Copying: %s", name)
			if err := utils.CopyFile(filepath.Join(dirIn, name), filepath.Join(dirOut, name)); err != nil {
				return err
			}
		}

		for _, family := range families {
			outName := fmt.Sprintf("DJI_%s.MP4", family.id)
			utils.LogInfo("Concatenating: %s", outName)

			filesIn := make([]string, len(family.suffixes))
			for i, suffix := range family.suffixes {
				filesIn[i] = filepath.Join(dirIn, fmt.Sprintf("DJI_%s_%s", family.id, suffix))
			}
			if err := ffmpeg.Concat(cmd.Context(), filesIn, filepath.Join(dirOut, outName)); err != nil {
				return err
			}
		}

		return nil
	},
}

// segmentFamily is one recording session's parts: DJI_<id>_<suffix> files
// sharing an id, concatenated in suffix order.
type segmentFamily struct {
	id       string
	suffixes []string
}

// groupSegments sorts file names into segmented recording families and
// unsegmented files to copy through. Non-DJI names are ignored.
func groupSegments(names []string) ([]segmentFamily, []string) {
	byID := make(map[string][]string)
	var order []string
	var singles []string

	for _, name := range names {
		parts := strings.Split(name, "_")
		if parts[0] != "DJI" {
			continue
		}

		switch len(parts) {
		case 3: // DJI_1234_001.MP4
			if _, seen := byID[parts[1]]; !seen {
				order = append(order, parts[1])
			}
			byID[parts[1]] = append(byID[parts[1]], parts[2])
		case 2: // DJI_1234.MP4
			singles = append(singles, name)
		}
	}

	families := make([]segmentFamily, 0, len(order))
	for _, id := range order {
		suffixes := byID[id]
		sort.Strings(suffixes)
		families = append(families, segmentFamily{id: id, suffixes: suffixes})
	}

	return families, singles
}

func init() {
	rootCmd.AddCommand(concatCmd)
}
