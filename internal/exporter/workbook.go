package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the combined workbook. Per-department workbooks reuse them
// for their filtered subsets.
const (
	SheetSubscription = "海运订阅原始数据"
	SheetLedger       = "预对账原始数据"
	SheetDetails      = "分析结果"
	SheetAnalysis     = "客户公司分析"
	SheetPlaceholder  = "无数据"
)

// Two-row header of the customer analysis sheet. The second row carries the
// sub-captions of the 约价/非约价 column groups; every other column is merged
// vertically across both rows.
var (
	analysisHeader = [2][]string{
		{"二级部门", "委托公司", "约价", "约价", "非约价", "非约价", "总票数", "总利润率", "初步分析",
			"业务部门反馈具体原因", "原因类别", "损调利润", "计划采取的措施", "是否完成价格备案表",
			"是否联合磋商", "督办任务", "责任人", "督办时间点"},
		{"", "", "负毛利票数", "毛利率", "低负票数", "毛利率", "", "", "", "", "", "", "", "", "", "", "", ""},
	}
	analysisMerges = []string{
		"A1:A2", "B1:B2", "C1:D1", "E1:F1", "G1:G2", "H1:H2", "I1:I2", "J1:J2",
		"K1:K2", "L1:L2", "M1:M2", "N1:N2", "O1:O2", "P1:P2", "Q1:Q2", "R1:R2",
	}
	analysisWidths = []float64{15, 30, 12, 10, 12, 10, 10, 10, 40, 40, 15, 12, 40, 15, 15, 15, 10, 15}
)

const (
	headerRowHeight = 30
	maxColumnWidth  = 40
	// Built-in number format 10 renders as 0.00%.
	percentNumFmt = 10
)

// AnalysisRow is the presentation-level form of one customer analysis line.
// Nil rates and zero counts render blank; this is the only place where the
// blank-vs-zero distinction of the aggregation results is applied.
type AnalysisRow struct {
	Department       string
	Customer         string
	ContractCount    int
	ContractRate     *float64
	NonContractCount int
	NonContractRate  *float64
	TicketCount      int
	TotalProfitRate  float64
	Narrative        string
}

// Workbook wraps an excelize file with the sheet-level operations the report
// needs, so the aggregation code never touches cells or styles directly.
type Workbook struct {
	file   *excelize.File
	sheets int

	stylesReady bool
	headerStyle int
	leftStyle   int
	centerStyle int
	pctStyle    int
}

// NewWorkbook creates an empty workbook builder.
func NewWorkbook() *Workbook {
	return &Workbook{file: excelize.NewFile()}
}

// ensureSheet creates the named sheet, renaming the default sheet when this
// is the first one added.
func (w *Workbook) ensureSheet(name string) error {
	if w.sheets == 0 {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return err
	}
	w.sheets++
	return nil
}

func (w *Workbook) ensureStyles() error {
	if w.stylesReady {
		return nil
	}
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	var err error
	w.headerStyle, err = w.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 9},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	w.leftStyle, err = w.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 9},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true},
		Border:    border,
	})
	if err != nil {
		return fmt.Errorf("failed to create left style: %w", err)
	}
	w.centerStyle, err = w.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 9},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	})
	if err != nil {
		return fmt.Errorf("failed to create center style: %w", err)
	}
	w.pctStyle, err = w.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 9},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
		NumFmt:    percentNumFmt,
	})
	if err != nil {
		return fmt.Errorf("failed to create percentage style: %w", err)
	}

	w.stylesReady = true
	return nil
}

// AddGridSheet writes a raw grid verbatim: header plus data rows, with
// content-length based column widths. Cells that look numeric are written as
// numbers so downstream consumers can keep calculating on them.
func (w *Workbook) AddGridSheet(name string, grid [][]string) error {
	if err := w.ensureSheet(name); err != nil {
		return err
	}
	for r, row := range grid {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := w.file.SetCellValue(name, cell, sniffValue(val)); err != nil {
				return err
			}
		}
	}
	return w.setAutoWidths(name, grid)
}

// AddEmptySheet creates a sheet with no content. Used as the placeholder so a
// department workbook with no rows anywhere is still a valid file.
func (w *Workbook) AddEmptySheet(name string) error {
	return w.ensureSheet(name)
}

// AddAnalysisSheet renders the customer analysis sheet: the fixed 18-column
// two-row merged header followed by one formatted row per customer, with ten
// bordered follow-up columns left blank for manual use.
func (w *Workbook) AddAnalysisSheet(name string, rows []AnalysisRow) error {
	if err := w.ensureSheet(name); err != nil {
		return err
	}
	if err := w.ensureStyles(); err != nil {
		return err
	}

	for r, captions := range analysisHeader {
		for c, caption := range captions {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := w.file.SetCellValue(name, cell, caption); err != nil {
				return err
			}
		}
	}
	if err := w.file.SetCellStyle(name, "A1", "R2", w.headerStyle); err != nil {
		return err
	}
	for _, merge := range analysisMerges {
		cells := strings.SplitN(merge, ":", 2)
		if err := w.file.MergeCell(name, cells[0], cells[1]); err != nil {
			return err
		}
	}
	for row := 1; row <= 2; row++ {
		if err := w.file.SetRowHeight(name, row, headerRowHeight); err != nil {
			return err
		}
	}
	for i, width := range analysisWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := w.file.SetColWidth(name, col, col, width); err != nil {
			return err
		}
	}

	for i, row := range rows {
		if err := w.writeAnalysisRow(name, i+3, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) writeAnalysisRow(name string, rowNum int, row AnalysisRow) error {
	set := func(col int, value interface{}, style int) error {
		cell, err := excelize.CoordinatesToCellName(col, rowNum)
		if err != nil {
			return err
		}
		if value != nil {
			if err := w.file.SetCellValue(name, cell, value); err != nil {
				return err
			}
		}
		return w.file.SetCellStyle(name, cell, cell, style)
	}

	blankIfZero := func(n int) interface{} {
		if n == 0 {
			return nil
		}
		return n
	}
	rateValue := func(rate *float64) interface{} {
		if rate == nil {
			return nil
		}
		return *rate
	}

	if err := set(1, row.Department, w.leftStyle); err != nil {
		return err
	}
	if err := set(2, row.Customer, w.leftStyle); err != nil {
		return err
	}
	if err := set(3, blankIfZero(row.ContractCount), w.centerStyle); err != nil {
		return err
	}
	if err := set(4, rateValue(row.ContractRate), w.pctStyle); err != nil {
		return err
	}
	if err := set(5, blankIfZero(row.NonContractCount), w.centerStyle); err != nil {
		return err
	}
	if err := set(6, rateValue(row.NonContractRate), w.pctStyle); err != nil {
		return err
	}
	if err := set(7, row.TicketCount, w.centerStyle); err != nil {
		return err
	}
	if err := set(8, row.TotalProfitRate, w.pctStyle); err != nil {
		return err
	}
	if err := set(9, row.Narrative, w.leftStyle); err != nil {
		return err
	}
	for col := 10; col <= 18; col++ {
		if err := set(col, nil, w.centerStyle); err != nil {
			return err
		}
	}
	return nil
}

// SaveAs writes the workbook to disk.
func (w *Workbook) SaveAs(path string) error {
	return w.file.SaveAs(path)
}

// Close releases the underlying file resources.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// setAutoWidths sizes each column to its longest cell plus padding, capped so
// narrative columns stay readable.
func (w *Workbook) setAutoWidths(name string, grid [][]string) error {
	var widths []float64
	for _, row := range grid {
		for c, val := range row {
			for c >= len(widths) {
				widths = append(widths, 0)
			}
			if l := float64(utf8.RuneCountInString(val)); l > widths[c] {
				widths[c] = l
			}
		}
	}
	for c, width := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		adjusted := width + 2
		if adjusted > maxColumnWidth {
			adjusted = maxColumnWidth
		}
		if err := w.file.SetColWidth(name, col, col, adjusted); err != nil {
			return err
		}
	}
	return nil
}

// sniffValue decides whether a cell is written as a number or as text.
// Identifier-like values with leading zeros stay text so ticket numbers keep
// their exact form.
func sniffValue(s string) interface{} {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	if len(trimmed) > 1 && trimmed[0] == '0' && !strings.Contains(trimmed, ".") {
		return s
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return s
}
