package dataprocessing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SchemaError reports every required column missing from an input dataset.
// It is fatal: the run aborts and the message is shown to the operator.
type SchemaError struct {
	Dataset string // human-readable dataset name, e.g. 海运订阅文件
	Missing []string
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s缺少以下列: %s", e.Dataset, strings.Join(e.Missing, ", "))
}

// Table is an in-memory tabular dataset: a header row plus data rows, as read
// from the first sheet of an xlsx file. Cell access goes through the header
// labels so callers never hold raw column indexes.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// ReadTable loads the first sheet of an xlsx file into a Table. Datasets are
// assumed to fit in memory; there is no streaming path.
func ReadTable(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in %s", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return NewTable(rows), nil
}

// NewTable builds a Table from a raw grid whose first row is the header.
func NewTable(grid [][]string) *Table {
	t := &Table{index: make(map[string]int)}
	if len(grid) == 0 {
		return t
	}
	t.Header = grid[0]
	t.Rows = grid[1:]
	for i, label := range t.Header {
		label = strings.TrimSpace(label)
		if _, ok := t.index[label]; !ok {
			t.index[label] = i
		}
	}
	return t
}

// Grid returns the table as it appeared in the source, header row first.
func (t *Table) Grid() [][]string {
	if t.Header == nil {
		return nil
	}
	grid := make([][]string, 0, len(t.Rows)+1)
	grid = append(grid, t.Header)
	return append(grid, t.Rows...)
}

// HasColumn reports whether the labeled column exists.
func (t *Table) HasColumn(label string) bool {
	_, ok := t.index[label]
	return ok
}

// Validate returns a SchemaError naming every missing required column, or nil.
func (t *Table) Validate(dataset string, required []string) error {
	var missing []string
	for _, label := range required {
		if !t.HasColumn(label) {
			missing = append(missing, label)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Dataset: dataset, Missing: missing}
	}
	return nil
}

// Cell returns the trimmed value of the labeled column in the given row.
// Rows read from excelize may be shorter than the header; out-of-range cells
// read as empty.
func (t *Table) Cell(row []string, label string) string {
	idx, ok := t.index[label]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseAmount converts a monetary cell to a decimal. Formatted values may
// carry thousand separators; anything unparseable counts as zero, matching
// how empty cells behave in the source system's exports.
func parseAmount(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
