// Package files reads indicator sources from disk and writes pipeline
// artifacts back to it.
//
// Discovery lists candidate CSV and XLSX sources in a data directory and
// matches them to indicators by file name. LoadTable parses one source into
// a domain.RawIndicatorTable, padding short rows and rejecting rows wider
// than the header.
//
// Manager and WriteFileAtomic give exporters temp-file-then-rename writes:
//
//	err := files.WriteFileAtomic(path, func(w io.Writer) error {
//	    return writeCSV(w, table)
//	})
package files
