package export

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync/atomic"

	"github.com/dwifuady/larik/internal/model"
)

type jsonExporter struct {
	opts Options
}

// Export writes columns/rows as a JSON array of column-keyed objects,
// per spec.md §4.9: "[", then each row object comma-separated, then
// "]". NaN/±Infinity floats render as the strings "NaN"/"Infinity"/
// "-Infinity" (encoding/json cannot marshal them directly). Binary
// cells render as {"_type":"binary","encoding":"base64","data":"…"}.
func (e jsonExporter) Export(ctx context.Context, dest io.Writer, columns []string, rows [][]model.Cell, cancel *atomic.Bool, progress chan<- Progress) error {
	cw := &countingWriter{w: dest}
	indent, newline := "", ""
	if e.opts.PrettyPrint {
		indent, newline = "  ", "\n"
	}

	if _, err := fmt.Fprintf(cw, "[%s", newline); err != nil {
		return err
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

		if exported > 0 {
			if _, err := fmt.Fprintf(cw, ",%s", newline); err != nil {
				return err
			}
		}
		if err := writeJSONRow(cw, columns, row, e.opts, indent); err != nil {
			return err
		}
		exported++

		if exported%interval == 0 {
			sendProgress(progress, Progress{RowsExported: exported, TotalRows: total, BytesWritten: cw.n})
		}
	}

	if _, err := fmt.Fprintf(cw, "%s]", newline); err != nil {
		return err
	}

	sendProgress(progress, Progress{RowsExported: exported, TotalRows: total, BytesWritten: cw.n, IsComplete: true})
	return nil
}

func writeJSONRow(w io.Writer, columns []string, row []model.Cell, opts Options, indent string) error {
	if _, err := fmt.Fprintf(w, "%s{", indent); err != nil {
		return err
	}
	for i, cell := range row {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		name, _ := jsonMarshalString(columns[i])
		value := jsonCellValue(cell, opts.NullAsString)
		if _, err := fmt.Fprintf(w, "%s:%s", name, value); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "}")
	return err
}

func jsonMarshalString(s string) (string, error) {
	b, err := json.Marshal(s)
	return string(b), err
}

func jsonCellValue(c model.Cell, nullAsString bool) string {
	switch c.Kind {
	case model.CellNull:
		if nullAsString {
			return `"NULL"`
		}
		return "null"
	case model.CellBool:
		return strconv.FormatBool(c.Bool)
	case model.CellInt64:
		return strconv.FormatInt(c.Int64, 10)
	case model.CellFloat64:
		return jsonFloat(c.Float)
	case model.CellBinary:
		data := base64.StdEncoding.EncodeToString(c.Bytes)
		enc, _ := json.Marshal(data)
		return `{"_type":"binary","encoding":"base64","data":` + string(enc) + `}`
	default:
		b, _ := json.Marshal(c.Text)
		return string(b)
	}
}

// jsonFloat renders NaN/±Infinity as spec.md §4.9's literal strings,
// since encoding/json cannot marshal them.
func jsonFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return `"NaN"`
	case math.IsInf(f, 1):
		return `"Infinity"`
	case math.IsInf(f, -1):
		return `"-Infinity"`
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}
