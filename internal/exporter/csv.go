package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"gapminder/internal/dataprocessing"
	"gapminder/internal/files"
	"gapminder/pkg/contracts/domain"
)

// CSVWriter exports canonical and long tables as CSV files under the
// output directory.
type CSVWriter struct {
	files     *files.Manager
	logger    *slog.Logger
	writeLong bool
	bom       bool
}

// CSVOption configures a CSVWriter.
type CSVOption func(*CSVWriter)

// WithLongTables also writes one long CSV per reshaped source on Export.
func WithLongTables(enabled bool) CSVOption {
	return func(w *CSVWriter) { w.writeLong = enabled }
}

// WithBOM prefixes files with a UTF-8 byte order mark for Excel.
func WithBOM(enabled bool) CSVOption {
	return func(w *CSVWriter) { w.bom = enabled }
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(m *files.Manager, logger *slog.Logger, opts ...CSVOption) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	w := &CSVWriter{files: m, logger: logger.With(slog.String("component", "csv_exporter"))}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name identifies the sink in logs and run reports.
func (w *CSVWriter) Name() string { return "csv" }

// Export writes the canonical table and, when enabled, every long table.
func (w *CSVWriter) Export(ctx context.Context, res *domain.RunResult) error {
	if err := w.WriteCanonical(w.files.Paths().CanonicalCSV, res.Canonical); err != nil {
		return err
	}
	if !w.writeLong {
		return nil
	}
	for _, t := range res.Reshaped {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.WriteReshaped(w.files.Paths().LongPath(t.Name), t); err != nil {
			return err
		}
	}
	return nil
}

// WriteCanonical writes ct to path, replacing any previous file atomically.
func (w *CSVWriter) WriteCanonical(path string, ct domain.CanonicalTable) error {
	w.logger.Info("writing canonical CSV",
		slog.String("path", path),
		slog.Int("record_count", ct.Len()))

	return w.files.WriteAtomic(path, func(out io.Writer) error {
		if err := w.writeBOM(out); err != nil {
			return err
		}
		return EncodeCanonical(out, ct)
	})
}

// WriteReshaped writes one long table as year,country,<name>.
func (w *CSVWriter) WriteReshaped(path string, t domain.ReshapedTable) error {
	w.logger.Debug("writing long CSV",
		slog.String("path", path),
		slog.String("indicator", string(t.Indicator)),
		slog.Int("record_count", t.Len()))

	return w.files.WriteAtomic(path, func(out io.Writer) error {
		if err := w.writeBOM(out); err != nil {
			return err
		}
		return EncodeReshaped(out, t)
	})
}

// WriteModelMatrix writes an encoded matrix with feature columns followed by
// the target column.
func (w *CSVWriter) WriteModelMatrix(path string, m dataprocessing.ModelMatrix) error {
	w.logger.Info("writing model matrix",
		slog.String("path", path),
		slog.Int("samples", m.Len()))

	return w.files.WriteAtomic(path, func(out io.Writer) error {
		return EncodeModelMatrix(out, m)
	})
}

func (w *CSVWriter) writeBOM(out io.Writer) error {
	if !w.bom {
		return nil
	}
	if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}
	return nil
}

// EncodeCanonical streams ct as CSV with the canonical header. An empty
// table yields the header only.
func EncodeCanonical(out io.Writer, ct domain.CanonicalTable) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(ct.Columns()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, r := range ct.Rows {
		if err := cw.Write(canonicalRecord(r)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeReshaped streams a long table as CSV.
func EncodeReshaped(out io.Writer, t domain.ReshapedTable) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, r := range t.Records {
		if err := cw.Write([]string{formatYear(r.Year), r.Country, formatFloat(r.Value)}); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeModelMatrix streams an encoded matrix as CSV.
func EncodeModelMatrix(out io.Writer, m dataprocessing.ModelMatrix) error {
	cw := csv.NewWriter(out)
	header := append(append([]string(nil), m.FeatureNames...), m.TargetName)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	rec := make([]string, len(header))
	for i, row := range m.Features {
		for j, v := range row {
			rec[j] = formatFloat(v)
		}
		rec[len(row)] = formatFloat(m.Target[i])
		if err := cw.Write(rec[:len(row)+1]); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
