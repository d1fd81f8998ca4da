package clips

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Clip is a validated time interval on a source media file, destined for
// extraction and publishing. Values are built once during derivation and
// never mutated.
type Clip struct {
	File        string
	Inpoint     float64
	Outpoint    float64
	Name        string
	Description string
}

// unsafeTitleChars are characters a video platform will not carry over from
// an uploaded file's name into the auto-assigned title.
var unsafeTitleChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// Filename returns the deterministic output file name for the clip: the
// source file's stem, the inpoint and outpoint rounded to hundredths, and
// the source file's extension.
func (c Clip) Filename() string {
	base := filepath.Base(c.File)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s-%s-%s%s", stem, formatSeconds(c.Inpoint), formatSeconds(c.Outpoint), ext)
}

// ExpectedUploadTitle returns the title the platform assigns to a fresh
// upload of Filename(): the file name without its extension, with
// filename-unsafe characters replaced by spaces.
func (c Clip) ExpectedUploadTitle() string {
	name := c.Filename()
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return unsafeTitleChars.ReplaceAllString(name, " ")
}

// formatSeconds renders a seconds value rounded to hundredths with the
// fewest digits that represent it exactly.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
