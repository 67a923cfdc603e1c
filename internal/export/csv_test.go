package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwifuady/larik/internal/model"
)

func TestCSVExportHeaderAndRows(t *testing.T) {
	exp, err := New(FormatCSV, DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	columns := []string{"id", "name"}
	rows := [][]model.Cell{
		{model.Int64Cell(1), model.StringCell("alice")},
		{model.Int64Cell(2), model.StringCell("bob")},
	}

	err = exp.Export(context.Background(), &buf, columns, rows, nil, nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,name", lines[0])
	assert.Equal(t, "1,alice", lines[1])
	assert.Equal(t, "2,bob", lines[2])
}

func TestCSVExportWithoutHeaders(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeHeaders = false
	exp, err := New(FormatCSV, opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	rows := [][]model.Cell{{model.StringCell("x")}}
	require.NoError(t, exp.Export(context.Background(), &buf, []string{"col"}, rows, nil, nil))

	assert.Equal(t, "x\n", buf.String())
}

func TestCSVEscapesDelimiterQuoteAndNewlines(t *testing.T) {
	exp, err := New(FormatCSV, DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	rows := [][]model.Cell{
		{model.StringCell("has,comma"), model.StringCell(`has"quote`), model.StringCell("has\nnewline")},
	}
	require.NoError(t, exp.Export(context.Background(), &buf, []string{"a", "b", "c"}, rows, nil, nil))

	// Round-trip through encoding/csv to confirm the escaping is valid CSV.
	r := csv.NewReader(strings.NewReader(buf.String()))
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"has,comma", `has"quote`, "has\nnewline"}, records[1])
}

func TestCSVFloatFormatting(t *testing.T) {
	assert.Equal(t, "1.0", formatCSVFloat(1.0))
	assert.Equal(t, "1.5", formatCSVFloat(1.5))
	assert.Equal(t, "0.0", formatCSVFloat(0.0))
}

func TestCSVBinaryTruncation(t *testing.T) {
	short := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	assert.Equal(t, "0xdeadbeef", formatCSVBinary(short))

	long := bytes.Repeat([]byte{0xAB}, 150)
	rendered := formatCSVBinary(long)
	assert.True(t, strings.HasPrefix(rendered, "0x"))
	assert.True(t, strings.HasSuffix(rendered, "..."))
	assert.Equal(t, 2+200+3, len(rendered))
}

func TestCSVNullRendering(t *testing.T) {
	opts := DefaultOptions()
	opts.NullAsString = false
	exp, err := New(FormatCSV, opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	rows := [][]model.Cell{{model.NullCell()}}
	require.NoError(t, exp.Export(context.Background(), &buf, []string{"v"}, rows, nil, nil))
	assert.Equal(t, "v\n\n", buf.String())

	opts.NullAsString = true
	exp, err = New(FormatCSV, opts)
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, exp.Export(context.Background(), &buf, []string{"v"}, rows, nil, nil))
	assert.Equal(t, "v\nNULL\n", buf.String())
}

func TestCSVMaxRowsCapsOutput(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeHeaders = false
	opts.MaxRows = 2
	exp, err := New(FormatCSV, opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	rows := [][]model.Cell{
		{model.Int64Cell(1)}, {model.Int64Cell(2)}, {model.Int64Cell(3)},
	}
	var progress = make(chan Progress, 10)
	require.NoError(t, exp.Export(context.Background(), &buf, []string{"n"}, rows, nil, progress))
	close(progress)

	assert.Equal(t, "1\n2\n", buf.String())

	var last Progress
	for p := range progress {
		last = p
	}
	assert.True(t, last.IsComplete)
	assert.Equal(t, int64(2), last.RowsExported)
}

func TestCSVExportCancellation(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeHeaders = false
	exp, err := New(FormatCSV, opts)
	require.NoError(t, err)

	rows := make([][]model.Cell, 5000)
	for i := range rows {
		rows[i] = []model.Cell{model.Int64Cell(int64(i))}
	}

	var cancel atomic.Bool
	cancel.Store(true)

	var buf bytes.Buffer
	progress := make(chan Progress, 10)
	err = exp.Export(context.Background(), &buf, []string{"n"}, rows, &cancel, progress)
	close(progress)

	assert.ErrorIs(t, err, ErrCancelled)

	var last Progress
	for p := range progress {
		last = p
	}
	assert.Equal(t, ErrCancelled.Error(), last.Error)
}

func TestCSVCustomDelimiter(t *testing.T) {
	opts := DefaultOptions()
	opts.Delimiter = ';'
	opts.IncludeHeaders = false
	exp, err := New(FormatCSV, opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	rows := [][]model.Cell{{model.StringCell("a"), model.StringCell("b")}}
	require.NoError(t, exp.Export(context.Background(), &buf, []string{"x", "y"}, rows, nil, nil))
	assert.Equal(t, "a;b\n", buf.String())
}
