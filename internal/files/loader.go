package files

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "gapminder/internal/errors"
	"gapminder/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadTable reads a wide indicator table. The format follows the file
// extension; sheet selects an XLSX worksheet and defaults to the first one.
func LoadTable(path, sheet string) (domain.RawIndicatorTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return domain.RawIndicatorTable{}, apperrors.NewNotFoundError(path).WithContext("cause", err.Error())
		}
		defer f.Close()
		return ReadCSV(f, SourceName(path))
	case ".xlsx":
		return LoadXLSX(path, sheet)
	default:
		return domain.RawIndicatorTable{}, apperrors.NewSchemaError(SourceName(path),
			fmt.Sprintf("unsupported source format %q", filepath.Ext(path)))
	}
}

// ReadCSV parses a delimited wide table from r.
func ReadCSV(r io.Reader, name string) (domain.RawIndicatorTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.RawIndicatorTable{}, apperrors.NewParsingError("read "+name, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return domain.RawIndicatorTable{}, apperrors.NewParsingError("parse "+name, err)
	}
	return BuildTable(name, rows)
}

// LoadXLSX reads a wide table from an Excel workbook.
func LoadXLSX(path, sheet string) (domain.RawIndicatorTable, error) {
	name := SourceName(path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return domain.RawIndicatorTable{}, apperrors.NewParsingError("open "+name, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return domain.RawIndicatorTable{}, apperrors.NewSchemaError(name, "workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return domain.RawIndicatorTable{}, apperrors.NewParsingError(fmt.Sprintf("read sheet %q of %s", sheet, name), err)
	}
	return BuildTable(name, rows)
}

// BuildTable turns header and data rows into a RawIndicatorTable. The first
// header cell names the country column and the rest are year labels. Short
// rows are padded with missing cells; a row wider than the header is a
// schema error. Blank rows are ignored.
func BuildTable(name string, rows [][]string) (domain.RawIndicatorTable, error) {
	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return domain.RawIndicatorTable{}, apperrors.NewSchemaError(name, "source is empty")
	}

	header := trimTrailingEmpty(rows[0])
	if len(header) == 0 {
		return domain.RawIndicatorTable{}, apperrors.NewSchemaError(name, "header row is empty")
	}

	countryHeader := strings.TrimSpace(header[0])
	if countryHeader == "" {
		// pandas writes the index column without a name.
		countryHeader = domain.ColumnCountry
	}

	t := domain.RawIndicatorTable{
		Name:          name,
		CountryHeader: countryHeader,
		YearLabels:    make([]string, len(header)-1),
		Countries:     make([]string, 0, len(rows)-1),
		Cells:         make([][]string, 0, len(rows)-1),
	}
	for i, h := range header[1:] {
		t.YearLabels[i] = strings.TrimSpace(h)
	}

	width := len(header)
	for i, row := range rows[1:] {
		row = trimTrailingEmpty(row)
		if len(row) > width {
			return domain.RawIndicatorTable{}, apperrors.NewSchemaError(name,
				fmt.Sprintf("row %d has %d cells, header has %d", i+2, len(row), width)).WithContext("row", i+2)
		}
		cells := make([]string, width-1)
		if len(row) > 1 {
			copy(cells, row[1:])
		}
		country := ""
		if len(row) > 0 {
			country = row[0]
		}
		t.Countries = append(t.Countries, strings.TrimSpace(country))
		t.Cells = append(t.Cells, cells)
	}
	return t, nil
}

func trimTrailingEmpty(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}

func dropBlankRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		if len(trimTrailingEmpty(r)) > 0 {
			out = append(out, r)
		}
	}
	return out
}
