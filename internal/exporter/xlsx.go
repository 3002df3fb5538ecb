package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"gapminder/internal/files"
	"gapminder/pkg/contracts/domain"
)

// CanonicalSheet is the worksheet holding the canonical table.
const CanonicalSheet = "canonical"

// XLSXWriter exports the canonical table as an Excel workbook with numeric
// cells.
type XLSXWriter struct {
	files  *files.Manager
	logger *slog.Logger
}

// NewXLSXWriter creates a new workbook exporter.
func NewXLSXWriter(m *files.Manager, logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{files: m, logger: logger.With(slog.String("component", "xlsx_exporter"))}
}

// Name identifies the sink in logs and run reports.
func (x *XLSXWriter) Name() string { return "xlsx" }

// Export writes the canonical workbook.
func (x *XLSXWriter) Export(_ context.Context, res *domain.RunResult) error {
	return x.WriteCanonical(x.files.Paths().CanonicalXLS, res.Canonical)
}

// WriteCanonical writes ct to path, replacing any previous workbook
// atomically.
func (x *XLSXWriter) WriteCanonical(path string, ct domain.CanonicalTable) error {
	x.logger.Info("writing canonical workbook",
		slog.String("path", path),
		slog.Int("record_count", ct.Len()))

	return x.files.WriteAtomic(path, func(out io.Writer) error {
		return EncodeCanonicalXLSX(out, ct)
	})
}

// EncodeCanonicalXLSX streams ct as a workbook with a single "canonical"
// sheet: a bold header row, then one row per observation.
func EncodeCanonicalXLSX(out io.Writer, ct domain.CanonicalTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", CanonicalSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(CanonicalSheet)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	cols := ct.Columns()
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = excelize.Cell{StyleID: bold, Value: c}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, r := range ct.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{int(r.Year), r.Country, r.Population, r.LifeExpectancy, r.Income, r.HDI}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	return f.Write(out)
}
