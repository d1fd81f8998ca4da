package clips

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"
)

func readAllFrom(t *testing.T, csv string) ([]Clip, error) {
	t.Helper()
	return ReadAll(NewReader(strings.NewReader(csv)))
}

func TestReaderDerivesAdjacentPairs(t *testing.T) {
	got, err := readAllFrom(t, `File,Inpoint,Name,Description
a.mp4,0,Intro,Welcome
a.mp4,10,
`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Clip{File: "a.mp4", Inpoint: 0, Outpoint: 10, Name: "Intro", Description: "Welcome"}, got[0])
}

func TestReaderThreeRowRun(t *testing.T) {
	got, err := readAllFrom(t, `File,Inpoint,Name
a.mp4,0,Intro
a.mp4,10,X
a.mp4,25,
`)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Clip{File: "a.mp4", Inpoint: 0, Outpoint: 10, Name: "Intro"}, got[0])
	assert.Equal(t, Clip{File: "a.mp4", Inpoint: 10, Outpoint: 25, Name: "X"}, got[1])
}

func TestReaderSkipFlag(t *testing.T) {
	// A skipped row emits nothing even when its other fields are invalid.
	got, err := readAllFrom(t, `File,Inpoint,Name,Skip
,garbage,,x
b.mp4,5,Keep,
b.mp4,9,,
`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Keep", got[0].Name)
}

func TestReaderFileRunBoundary(t *testing.T) {
	// The last row of a file-run pairs with a row for a different file and
	// emits nothing for itself.
	got, err := readAllFrom(t, `File,Inpoint,Name
a.mp4,0,EndOfA
b.mp4,5,Other
b.mp4,9,
`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Clip{File: "b.mp4", Inpoint: 5, Outpoint: 9, Name: "Other"}, got[0])
}

func TestReaderHaltsOnMissingName(t *testing.T) {
	got, err := readAllFrom(t, `File,Inpoint,Name
a.mp4,0,First
a.mp4,10,
a.mp4,20,Later
a.mp4,30,AlsoLater
`)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Row)
	assert.Equal(t, "Name missing", rowErr.Reason)

	// Clips before the malformed row survive; nothing after it is derived.
	require.Len(t, got, 1)
	assert.Equal(t, "First", got[0].Name)
}

func TestReaderHaltsOnBadTimecode(t *testing.T) {
	_, err := readAllFrom(t, `File,Inpoint,Name
a.mp4,soon,First
a.mp4,10,
`)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Row)
	assert.Equal(t, "invalid format for Inpoint", rowErr.Reason)
}

func TestReaderHaltsOnNonIncreasingInterval(t *testing.T) {
	_, err := readAllFrom(t, `File,Inpoint,Name
a.mp4,10,First
a.mp4,10,
`)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Row)
	assert.Equal(t, "Inpoint is not less than next row's Inpoint", rowErr.Reason)
}

func TestReaderHaltsOnMissingFile(t *testing.T) {
	_, err := readAllFrom(t, `File,Inpoint,Name
,0,First
a.mp4,10,
`)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Row)
	assert.Equal(t, "File missing", rowErr.Reason)
}

func TestReaderTimecodeForms(t *testing.T) {
	got, err := readAllFrom(t, `File,Inpoint,Name
a.mp4,1:23,Clock
a.mp4,2m30s,
`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, float64(83), got[0].Inpoint)
	assert.Equal(t, float64(150), got[0].Outpoint)
}

func TestReaderEmptyInput(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	_, err := r.Next()
	assert.ErrorIs(t, err, iterator.Done)
}

func TestReaderHeaderOnly(t *testing.T) {
	r := NewReader(strings.NewReader("File,Inpoint,Name\n"))
	_, err := r.Next()
	assert.ErrorIs(t, err, iterator.Done)
}

func TestReaderSingleRowEmitsNothing(t *testing.T) {
	r := NewReader(strings.NewReader("File,Inpoint,Name\na.mp4,0,Intro\n"))
	_, err := r.Next()
	assert.ErrorIs(t, err, iterator.Done)
}

func TestReaderErrorIsSticky(t *testing.T) {
	r := NewReader(strings.NewReader(`File,Inpoint,Name
a.mp4,0,
a.mp4,10,
a.mp4,20,Fine
a.mp4,30,
`))
	_, err := r.Next()
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)

	_, again := r.Next()
	assert.Equal(t, err, again)
}
