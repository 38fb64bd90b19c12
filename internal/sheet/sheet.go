// Package sheet turns uploaded spreadsheet bytes into header-ordered rows.
// It knows file formats, not columns: every cell is handed on as a string.
package sheet

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"rostercal/internal/ics"
	appLog "rostercal/internal/log"
	"rostercal/internal/model"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmpty             = errors.New("no header row found")
)

// Table is a decoded sheet: the literal header order and the data rows.
type Table struct {
	Columns []string
	Rows    []model.RawRow
}

type options struct {
	window    ics.ExpandConfig
	hasWindow bool
	sheetName string
}

// Option tunes Read.
type Option func(*options)

// WithICSWindow sets the expansion window for calendar files.
func WithICSWindow(cfg ics.ExpandConfig) Option {
	return func(o *options) {
		o.window = cfg
		o.hasWindow = true
	}
}

// WithSheet picks a workbook sheet by name instead of the first one.
func WithSheet(name string) Option {
	return func(o *options) { o.sheetName = name }
}

// Supported reports whether name has an extension Read understands.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xlsm", ".ics":
		return true
	}
	return false
}

// Read decodes r according to the extension of name.
func Read(name string, r io.Reader, opts ...Option) (*Table, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var (
		t   *Table
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		t, err = ReadCSV(r)
	case ".xlsx", ".xlsm":
		t, err = ReadXLSX(r, o.sheetName)
	case ".ics":
		t, err = readICS(name, r, o)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}

	appLog.Debug("sheet decoded", "name", name, "columns", len(t.Columns), "rows", len(t.Rows))
	return t, nil
}

// ReadCSV decodes comma separated text. Ragged rows are accepted.
func ReadCSV(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "decode csv")
	}
	return fromGrid(records)
}

// ReadXLSX decodes a workbook. The first sheet is used unless sheetName is
// set.
func ReadXLSX(r io.Reader, sheetName string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			appLog.Error("workbook close failed", cerr)
		}
	}()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmpty
		}
		sheetName = sheets[0]
	}

	grid, err := f.GetRows(sheetName)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheetName)
	}
	return fromGrid(grid)
}

func readICS(name string, r io.Reader, o options) (*Table, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read calendar")
	}
	window := o.window
	if !o.hasWindow {
		window = ics.DefaultWindow(nil)
	}
	cols, rows, err := ics.Import(ics.Source{ID: name, Name: name}, body, window)
	if err != nil {
		return nil, err
	}
	return &Table{Columns: cols, Rows: rows}, nil
}

// fromGrid takes the first non-blank line as the header and the remaining
// non-blank lines as rows. Cells past the last header get "Column N" headers
// so nothing under an unlabelled column is lost.
func fromGrid(grid [][]string) (*Table, error) {
	h := -1
	for i, line := range grid {
		if !blank(line) {
			h = i
			break
		}
	}
	if h < 0 {
		return nil, ErrEmpty
	}

	body := make([][]string, 0, len(grid)-h-1)
	for _, line := range grid[h+1:] {
		if blank(line) {
			continue
		}
		cells := make([]string, len(line))
		for i, c := range line {
			cells[i] = strings.TrimSpace(c)
		}
		body = append(body, cells)
	}

	raw := grid[h]
	width := len(raw)
	for _, line := range body {
		width = max(width, len(line))
	}
	// Trailing unlabelled columns with no data are export noise.
	for width > 0 {
		label := ""
		if width <= len(raw) {
			label = strings.TrimSpace(raw[width-1])
		}
		if label != "" || columnHasData(body, width-1) {
			break
		}
		width--
	}
	padded := make([]string, width)
	copy(padded, raw)

	cols := Headers(padded)
	rows := make([]model.RawRow, 0, len(body))
	for _, cells := range body {
		rows = append(rows, model.NewRawRow(cols, cells))
	}
	return &Table{Columns: cols, Rows: rows}, nil
}

// Headers trims header cells and renames blank or repeated ones to
// "Column N" (1-based position) so every column stays addressable.
func Headers(raw []string) []string {
	cols := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, c := range raw {
		c = strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
		if c == "" || seen[c] {
			c = "Column " + strconv.Itoa(i+1)
		}
		for seen[c] {
			c += "_"
		}
		seen[c] = true
		cols[i] = c
	}
	return cols
}

func columnHasData(body [][]string, col int) bool {
	for _, line := range body {
		if col < len(line) && line[col] != "" {
			return true
		}
	}
	return false
}

func blank(line []string) bool {
	for _, c := range line {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
