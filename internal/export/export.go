// Package export is the streaming tabular exporter (C10): CSV and JSON
// variants sharing one contract — columns, rows, options, destination,
// an atomic cancel flag, and an optional progress channel — per
// spec.md §4.9.
//
// The Format enum and Exporter interface/factory shape are grounded on
// the teacher's internal/output.Formatter (FormatSQL/FormatJSON/
// FormatSummary dispatched through NewFormatter), generalized from
// schema-diff formatting to row-streaming export.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/dwifuady/larik/internal/model"
)

// Format identifies an export variant.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Options are the export-wide knobs enumerated in spec.md §4.9.
type Options struct {
	IncludeHeaders bool // CSV only, default true
	PrettyPrint    bool // JSON only, default true
	Delimiter      rune // CSV, default ','
	QuoteChar      rune // CSV, default '"'
	NullAsString   bool // default true
	MaxRows        int  // 0 = unlimited
}

// DefaultOptions matches spec.md §4.9's stated defaults.
func DefaultOptions() Options {
	return Options{
		IncludeHeaders: true,
		PrettyPrint:    true,
		Delimiter:      ',',
		QuoteChar:      '"',
		NullAsString:   true,
	}
}

// Progress is one progress event, per spec.md §4.9.
type Progress struct {
	RowsExported int64  `json:"rowsExported"`
	TotalRows    int64  `json:"totalRows"`
	BytesWritten int64  `json:"bytesWritten"`
	IsComplete   bool   `json:"isComplete"`
	Error        string `json:"error,omitempty"`
}

// ErrCancelled is returned when the cancel flag was observed set
// mid-export.
var ErrCancelled = fmt.Errorf("export cancelled")

// Exporter streams columns/rows to dest, reporting progress and
// honoring cancel.
type Exporter interface {
	Export(ctx context.Context, dest io.Writer, columns []string, rows [][]model.Cell, cancel *atomic.Bool, progress chan<- Progress) error
}

// New builds an Exporter for the named format.
func New(format Format, opts Options) (Exporter, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatCSV:
		return csvExporter{opts: opts}, nil
	case FormatJSON:
		return jsonExporter{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s; use 'csv' or 'json'", format)
	}
}

// progressInterval implements spec.md §4.9's cadence:
// max(1000, min(10000, total/100)).
func progressInterval(total int64) int64 {
	interval := total / 100
	if interval > 10000 {
		interval = 10000
	}
	if interval < 1000 {
		interval = 1000
	}
	return interval
}

// countingWriter tracks bytes written so Progress.BytesWritten stays
// accurate without every exporter re-deriving it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func sendProgress(progress chan<- Progress, p Progress) {
	if progress == nil {
		return
	}
	progress <- p
}

func isCancelled(cancel *atomic.Bool) bool {
	return cancel != nil && cancel.Load()
}
