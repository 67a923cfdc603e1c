package export

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/dwifuady/larik/internal/model"
)

type csvExporter struct {
	opts Options
}

// Export writes columns/rows as CSV per spec.md §4.9: header if
// requested, fields joined by delimiter and terminated by "\n",
// quote-and-double-escape a field containing the delimiter, quote, CR,
// or LF. Floats with a zero fractional part render as "N.0"; binary
// cells render as "0x<hex>" truncated to the first 100 bytes with a
// trailing "...".
func (e csvExporter) Export(ctx context.Context, dest io.Writer, columns []string, rows [][]model.Cell, cancel *atomic.Bool, progress chan<- Progress) error {
	cw := &countingWriter{w: dest}
	delim := string(orDefault(e.opts.Delimiter, ','))
	quote := orDefault(e.opts.QuoteChar, '"')

	if e.opts.IncludeHeaders {
		fields := make([]string, len(columns))
		for i, c := range columns {
			fields[i] = csvEscapeField(c, delim, quote)
		}
		if _, err := fmt.Fprintf(cw, "%s\n", strings.Join(fields, delim)); err != nil {
			return err
		}
	}

	total := int64(len(rows))
	if e.opts.MaxRows > 0 && int64(e.opts.MaxRows) < total {
		total = int64(e.opts.MaxRows)
	}
	interval := progressInterval(total)

	var exported int64
	for _, row := range rows {
		if e.opts.MaxRows > 0 && exported >= int64(e.opts.MaxRows) {
			break
		}
		if exported%1000 == 0 && isCancelled(cancel) {
			sendProgress(progress, Progress{RowsExported: exported, TotalRows: total, BytesWritten: cw.n, Error: ErrCancelled.Error()})
			return ErrCancelled
		}

		fields := make([]string, len(row))
		for i, cell := range row {
			fields[i] = csvEscapeField(csvCellText(cell, e.opts.NullAsString), delim, quote)
		}
		if _, err := fmt.Fprintf(cw, "%s\n", strings.Join(fields, delim)); err != nil {
			return err
		}
		exported++

		if exported%interval == 0 {
			sendProgress(progress, Progress{RowsExported: exported, TotalRows: total, BytesWritten: cw.n})
		}
	}

	sendProgress(progress, Progress{RowsExported: exported, TotalRows: total, BytesWritten: cw.n, IsComplete: true})
	return nil
}

func orDefault(r rune, def rune) rune {
	if r == 0 {
		return def
	}
	return r
}

func csvCellText(c model.Cell, nullAsString bool) string {
	switch c.Kind {
	case model.CellNull:
		if nullAsString {
			return "NULL"
		}
		return ""
	case model.CellBool:
		return strconv.FormatBool(c.Bool)
	case model.CellInt64:
		return strconv.FormatInt(c.Int64, 10)
	case model.CellFloat64:
		return formatCSVFloat(c.Float)
	case model.CellDateTime:
		return c.Text
	case model.CellBinary:
		return formatCSVBinary(c.Bytes)
	default:
		return c.Text
	}
}

// formatCSVFloat renders whole-valued floats as "N.0", per spec.md
// §4.9.
func formatCSVFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// formatCSVBinary renders the first 100 bytes as "0x<hex>...", per
// spec.md §4.9.
func formatCSVBinary(b []byte) string {
	truncated := b
	suffix := ""
	if len(b) > 100 {
		truncated = b[:100]
		suffix = "..."
	}
	return "0x" + hex.EncodeToString(truncated) + suffix
}

func csvEscapeField(field, delim string, quote rune) string {
	needsQuote := strings.Contains(field, delim) ||
		strings.ContainsRune(field, quote) ||
		strings.ContainsAny(field, "\r\n")
	if !needsQuote {
		return field
	}
	q := string(quote)
	escaped := strings.ReplaceAll(field, q, q+q)
	return q + escaped + q
}
