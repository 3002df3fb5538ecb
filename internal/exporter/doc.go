// Package exporter writes pipeline output to files.
//
// CSVWriter writes the canonical table, the per-source long tables and the
// encoded model matrix. XLSXWriter writes the canonical table as a workbook
// with typed numeric cells. Both write through files.WriteFileAtomic and
// both satisfy operations.Sink, so a run can fan its result out to every
// configured format:
//
//	m := files.NewManager(paths, logger)
//	sinks := []operations.Sink{
//	    exporter.NewCSVWriter(m, logger, exporter.WithLongTables(true)),
//	    exporter.NewXLSXWriter(m, logger),
//	}
package exporter
