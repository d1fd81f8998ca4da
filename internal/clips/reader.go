package clips

import (
	"encoding/csv"
	"fmt"
	"io"

	"google.golang.org/api/iterator"

	"github.com/clipflow/clipflow/internal/timecode"
)

// RowError reports a malformed edit-log row. Derivation is fail-fast: rows
// after a malformed one are never evaluated because their correctness
// depends on the chronological ordering the bad row breaks.
type RowError struct {
	Row    int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d error: %s", e.Row, e.Reason)
}

// Reader derives clips from an edit-log CSV, one per valid pair of adjacent
// rows that share a File. It is a forward-only pull iterator: Next returns
// iterator.Done once the log is exhausted, and a *RowError when a row is
// malformed. Either result is sticky.
type Reader struct {
	csv     *csv.Reader
	header  []string
	current map[string]string
	rowNum  int
	started bool
	err     error
}

// NewReader builds a Reader over an edit-log CSV. The first record is the
// header; rows are keyed by its column names.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return &Reader{csv: cr}
}

// Next returns the next derived clip.
func (r *Reader) Next() (Clip, error) {
	if r.err != nil {
		return Clip{}, r.err
	}
	if !r.started {
		r.started = true
		header, err := r.csv.Read()
		if err == io.EOF {
			r.err = iterator.Done
			return Clip{}, r.err
		}
		if err != nil {
			r.err = fmt.Errorf("failed to read edit log header: %w", err)
			return Clip{}, r.err
		}
		r.header = header

		current, err := r.readRow()
		if err != nil {
			r.err = err
			return Clip{}, r.err
		}
		r.current = current
		r.rowNum = 2
	}

	for {
		next, err := r.readRow()
		if err != nil {
			// The final row is a pure boundary marker; it forms no pair.
			r.err = err
			return Clip{}, r.err
		}

		clip, emitted, err := r.derive(r.current, next)
		r.current = next
		r.rowNum++
		if err != nil {
			r.err = err
			return Clip{}, r.err
		}
		if emitted {
			return clip, nil
		}
	}
}

// readRow reads one data record and keys it by the header columns. Short
// records leave trailing columns absent.
func (r *Reader) readRow() (map[string]string, error) {
	record, err := r.csv.Read()
	if err == io.EOF {
		return nil, iterator.Done
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read edit log: %w", err)
	}
	row := make(map[string]string, len(r.header))
	for i, name := range r.header {
		if i < len(record) {
			row[name] = record[i]
		}
	}
	return row, nil
}

// derive evaluates one adjacent (current, next) row pair. A false second
// return means the pair legitimately produces no clip.
func (r *Reader) derive(current, next map[string]string) (Clip, bool, error) {
	if current["Skip"] != "" {
		return Clip{}, false, nil
	}

	file := current["File"]
	if file == "" {
		return Clip{}, false, &RowError{Row: r.rowNum, Reason: "File missing"}
	}

	// A pair spanning two source files marks the end of a file-run; the
	// current row is its terminal boundary and emits nothing.
	if file != next["File"] {
		return Clip{}, false, nil
	}

	rawInpoint := current["Inpoint"]
	if rawInpoint == "" {
		return Clip{}, false, &RowError{Row: r.rowNum, Reason: "Inpoint missing"}
	}
	inpoint, ok := timecode.Parse(rawInpoint)
	if !ok {
		return Clip{}, false, &RowError{Row: r.rowNum, Reason: "invalid format for Inpoint"}
	}

	rawOutpoint := next["Inpoint"]
	if rawOutpoint == "" {
		return Clip{}, false, &RowError{Row: r.rowNum, Reason: "next row's Inpoint missing"}
	}
	outpoint, ok := timecode.Parse(rawOutpoint)
	if !ok {
		return Clip{}, false, &RowError{Row: r.rowNum, Reason: "invalid format for Inpoint on next row"}
	}

	if inpoint >= outpoint {
		return Clip{}, false, &RowError{Row: r.rowNum, Reason: "Inpoint is not less than next row's Inpoint"}
	}

	name := current["Name"]
	if name == "" {
		return Clip{}, false, &RowError{Row: r.rowNum, Reason: "Name missing"}
	}

	return Clip{
		File:        file,
		Inpoint:     inpoint,
		Outpoint:    outpoint,
		Name:        name,
		Description: current["Description"],
	}, true, nil
}

// ReadAll drains the reader. On a row error it returns the clips derived up
// to that point together with the error, so callers can decide whether the
// partial set is still worth acting on.
func ReadAll(r *Reader) ([]Clip, error) {
	var out []Clip
	for {
		clip, err := r.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, clip)
	}
}
