package export

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwifuady/larik/internal/model"
)

func TestJSONExportProducesValidArray(t *testing.T) {
	exp, err := New(FormatJSON, DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	columns := []string{"id", "name"}
	rows := [][]model.Cell{
		{model.Int64Cell(1), model.StringCell("alice")},
		{model.Int64Cell(2), model.StringCell("bob")},
	}
	require.NoError(t, exp.Export(context.Background(), &buf, columns, rows, nil, nil))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, float64(1), decoded[0]["id"])
	assert.Equal(t, "alice", decoded[0]["name"])
	assert.Equal(t, "bob", decoded[1]["name"])
}

func TestJSONExportEmptyRows(t *testing.T) {
	exp, err := New(FormatJSON, DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, exp.Export(context.Background(), &buf, []string{"id"}, nil, nil, nil))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Empty(t, decoded)
}

func TestJSONFloatSpecialValues(t *testing.T) {
	assert.Equal(t, `"NaN"`, jsonFloat(math.NaN()))
	assert.Equal(t, `"Infinity"`, jsonFloat(math.Inf(1)))
	assert.Equal(t, `"-Infinity"`, jsonFloat(math.Inf(-1)))
	assert.Equal(t, "1.5", jsonFloat(1.5))
}

func TestJSONBinaryCellRendersAsBase64Object(t *testing.T) {
	exp, err := New(FormatJSON, DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	rows := [][]model.Cell{{model.BinaryCell([]byte{0x01, 0x02, 0x03})}}
	require.NoError(t, exp.Export(context.Background(), &buf, []string{"blob"}, rows, nil, nil))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	blob, ok := decoded[0]["blob"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "binary", blob["_type"])
	assert.Equal(t, "base64", blob["encoding"])
	assert.Equal(t, "AQID", blob["data"])
}

func TestJSONNullRendering(t *testing.T) {
	opts := DefaultOptions()
	opts.NullAsString = false
	exp, err := New(FormatJSON, opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	rows := [][]model.Cell{{model.NullCell()}}
	require.NoError(t, exp.Export(context.Background(), &buf, []string{"v"}, rows, nil, nil))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Nil(t, decoded[0]["v"])
}

func TestJSONStringsWithSpecialCharactersEscapeCorrectly(t *testing.T) {
	exp, err := New(FormatJSON, DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	rows := [][]model.Cell{{model.StringCell("line1\nline2\t\"quoted\"")}}
	require.NoError(t, exp.Export(context.Background(), &buf, []string{"text"}, rows, nil, nil))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "line1\nline2\t\"quoted\"", decoded[0]["text"])
}

func TestJSONMaxRowsCapsOutput(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxRows = 1
	exp, err := New(FormatJSON, opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	rows := [][]model.Cell{{model.Int64Cell(1)}, {model.Int64Cell(2)}}
	progress := make(chan Progress, 10)
	require.NoError(t, exp.Export(context.Background(), &buf, []string{"n"}, rows, nil, progress))
	close(progress)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)

	var last Progress
	for p := range progress {
		last = p
	}
	assert.True(t, last.IsComplete)
	assert.Equal(t, int64(1), last.RowsExported)
}

func TestJSONExportCancellation(t *testing.T) {
	exp, err := New(FormatJSON, DefaultOptions())
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

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(Format("xml"), DefaultOptions())
	assert.Error(t, err)
}
