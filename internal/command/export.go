package command

import (
	"bytes"
	"context"
	"os"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dwifuady/larik/internal/driver"
	"github.com/dwifuady/larik/internal/export"
	"github.com/dwifuady/larik/internal/model"
)

// startExport registers a fresh export id, runs exp.Export in its own
// goroutine against dest, relays every export.Progress onto the event
// channel as "export-progress-{export_id}" (spec.md §6's event channel
// contract), and returns the id immediately so the caller can poll or
// cancel while the write is still in flight.
func (s *Service) startExport(exp export.Exporter, dest *os.File, columns []string, rows [][]model.Cell) string {
	exportID := uuid.NewString()
	cancel := &atomic.Bool{}

	s.exportMu.Lock()
	s.exportJobs[exportID] = cancel
	s.exportMu.Unlock()

	progress := make(chan export.Progress, 8)
	go func() {
		for p := range progress {
			s.emit("export-progress-"+exportID, p)
		}
	}()

	go func() {
		defer dest.Close()
		defer close(progress)
		defer func() {
			s.exportMu.Lock()
			delete(s.exportJobs, exportID)
			s.exportMu.Unlock()
		}()
		if err := exp.Export(context.Background(), dest, columns, rows, cancel, progress); err != nil {
			s.log.Error().Err(err).Str("export_id", exportID).Msg("export failed")
		}
	}()

	return exportID
}

// ExportToCSV implements export_to_csv: streams columns/rows to
// destPath as CSV in the background, returning an export id immediately.
func (s *Service) ExportToCSV(destPath string, columns []string, rows [][]model.Cell, opts export.Options) (string, error) {
	return s.exportToFile(export.FormatCSV, destPath, columns, rows, opts)
}

// ExportToJSON implements export_to_json.
func (s *Service) ExportToJSON(destPath string, columns []string, rows [][]model.Cell, opts export.Options) (string, error) {
	return s.exportToFile(export.FormatJSON, destPath, columns, rows, opts)
}

func (s *Service) exportToFile(format export.Format, destPath string, columns []string, rows [][]model.Cell, opts export.Options) (string, error) {
	exp, err := export.New(format, opts)
	if err != nil {
		return "", err
	}
	f, err := os.Create(destPath)
	if err != nil {
		return "", driver.New(driver.KindIOError, "create export destination "+destPath, err)
	}
	return s.startExport(exp, f, columns, rows), nil
}

// ExportToString implements export_to_string(format ∈ {csv,json}): a
// synchronous, in-memory variant for callers (e.g. "copy as CSV") that
// don't need progress events or cancellation.
func (s *Service) ExportToString(format export.Format, columns []string, rows [][]model.Cell, opts export.Options) (string, error) {
	exp, err := export.New(format, opts)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := exp.Export(context.Background(), &buf, columns, rows, nil, nil); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// CancelExport implements cancel_export: sets the cooperative cancel
// flag for a still-running export id. Returns false if the id is
// unknown (already finished, or never existed).
func (s *Service) CancelExport(exportID string) bool {
	s.exportMu.Lock()
	cancel, ok := s.exportJobs[exportID]
	s.exportMu.Unlock()
	if !ok {
		return false
	}
	cancel.Store(true)
	return true
}
