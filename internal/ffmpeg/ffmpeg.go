package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/clipflow/clipflow/internal/clips"
	"github.com/clipflow/clipflow/internal/utils"
)

// timestampLayout is the creation_time format cameras write into container
// metadata.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// FormatTimestamp renders a time the way ffmpeg expects creation_time.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// probeOutput is the slice of ffprobe's JSON output this package reads.
type probeOutput struct {
	Format struct {
		Tags map[string]string `json:"tags"`
	} `json:"format"`
}

// CreationTime reads the creation_time tag from a media file's container
// metadata. The second return value is false when the file carries no tag.
func CreationTime(ctx context.Context, file string) (time.Time, bool, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		file,
		"-show_entries", "format_tags",
		"-print_format", "json",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return time.Time{}, false, fmt.Errorf("ffprobe failed for %s: %w (%s)", file, err, strings.TrimSpace(stderr.String()))
	}

	var probe probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &probe); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse ffprobe output for %s: %w", file, err)
	}

	raw := probe.Format.Tags["creation_time"]
	if raw == "" {
		return time.Time{}, false, nil
	}

	t, err := time.Parse(timestampLayout, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse creation_time %q of %s: %w", raw, file, err)
	}

	return t, true, nil
}

// cutJob is one output leg of a cut invocation.
type cutJob struct {
	clip    clips.Clip
	outPath string
}

// CutClips extracts every clip of one source file in a single ffmpeg
// invocation, one output leg per clip. Clips whose output file already
// exists are skipped, so re-running after an interruption only cuts what is
// missing. Each output's creation_time is the source's creation_time shifted
// by the clip's inpoint, when the source carries one.
func CutClips(ctx context.Context, source string, clipList []clips.Clip, outDir string, encode bool) error {
	creation, hasCreation, err := CreationTime(ctx, source)
	if err != nil {
		return err
	}

	var jobs []cutJob
	for _, clip := range clipList {
		outPath := filepath.Join(outDir, clip.Filename())
		if utils.FileExists(outPath) {
			utils.LogInfo("Already exists: %s", outPath)
			continue
		}
		utils.LogInfo("Clipping: %s (%s)", clip.Filename(),
			time.Duration(float64(time.Second)*(clip.Outpoint-clip.Inpoint)).Round(time.Millisecond))
		jobs = append(jobs, cutJob{clip: clip, outPath: outPath})
	}

	if len(jobs) == 0 {
		return nil
	}

	return runFFmpeg(ctx, cutArgs(source, jobs, encode, creation, hasCreation))
}

// cutArgs builds the argument list for one cut invocation.
func cutArgs(source string, jobs []cutJob, encode bool, creation time.Time, hasCreation bool) []string {
	var args []string
	if encode {
		args = append(args, "-hwaccel", "auto")
	}
	args = append(args, "-i", source)

	for _, job := range jobs {
		if encode {
			args = append(args,
				"-c:v", "libx264", "-preset", "slow", "-crf", "18", "-pix_fmt", "yuv420p",
				"-movflags", "+faststart",
				"-c:a", "aac", "-b:a", "192k",
			)
		} else {
			args = append(args, "-c", "copy")
		}

		if hasCreation {
			shifted := creation.Add(time.Duration(float64(time.Second) * job.clip.Inpoint))
			args = append(args, "-metadata", "creation_time="+FormatTimestamp(shifted))
		}

		args = append(args,
			"-ss", formatSeconds(job.clip.Inpoint),
			"-to", formatSeconds(job.clip.Outpoint),
			job.outPath,
		)
	}

	return args
}

// Concat joins the input files in order with the concat demuxer, stream
// copying throughout. The first input's creation_time is preserved on the
// output when present.
func Concat(ctx context.Context, filesIn []string, fileOut string) error {
	if len(filesIn) == 0 {
		return fmt.Errorf("no input files to concatenate")
	}

	creation, hasCreation, err := CreationTime(ctx, filesIn[0])
	if err != nil {
		return err
	}

	listPath, err := writeConcatList(filesIn)
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(listPath); err != nil {
			utils.LogWarning("Failed to remove concat list file: %v", err)
		}
	}()

	return runFFmpeg(ctx, concatArgs(listPath, fileOut, creation, hasCreation))
}

// concatArgs builds the argument list for one concat invocation.
func concatArgs(listPath, fileOut string, creation time.Time, hasCreation bool) []string {
	args := []string{"-f", "concat", "-safe", "0", "-i", listPath}
	if hasCreation {
		args = append(args, "-metadata", "creation_time="+FormatTimestamp(creation))
	}
	return append(args, "-c", "copy", fileOut)
}

// writeConcatList writes the concat demuxer's list file: one quoted absolute
// path per line.
func writeConcatList(files []string) (string, error) {
	f, err := os.CreateTemp("", "clipflow-concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create concat list file: %w", err)
	}

	var list strings.Builder
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
			return "", fmt.Errorf("failed to resolve %s: %w", file, err)
		}
		list.WriteString("file ")
		list.WriteString(quoteConcatPath(abs))
		list.WriteString("\n")
	}

	if _, err := f.WriteString(list.String()); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write concat list file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to close concat list file: %w", err)
	}

	return f.Name(), nil
}

// quoteConcatPath single-quotes a path for the concat demuxer, which uses
// shell-style quoting.
func quoteConcatPath(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}

// formatSeconds renders a seconds value with the fewest digits that
// represent it exactly.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// runFFmpeg executes one ffmpeg invocation, surfacing captured stderr on
// failure.
func runFFmpeg(ctx context.Context, args []string) error {
	utils.LogVerbose("Executing: ffmpeg %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			utils.LogError("FFmpeg error: %s", stderr.String())
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}

	return nil
}
