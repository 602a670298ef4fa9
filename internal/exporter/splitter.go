package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"seamargin/internal/config"
)

// SplitOutcome reports the result of writing one department's workbook. A
// failed department is logged and skipped; it never aborts its siblings.
type SplitOutcome struct {
	Department string
	Path       string
	Err        error
}

// Splitter partitions the combined workbook into one workbook per logical
// department, reusing the combined report's header and format rules.
type Splitter struct {
	logger *slog.Logger
	cfg    *config.Config
}

// NewSplitter creates a splitter.
func NewSplitter(logger *slog.Logger, cfg *config.Config) *Splitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Splitter{logger: logger, cfg: cfg}
}

// combinedContent is the structured content read back from the combined file.
type combinedContent struct {
	analysis     []AnalysisRow
	departments  []string
	subscription [][]string
	ledger       [][]string
	details      [][]string
}

// Split reads the combined workbook back and writes one file per distinct
// department found on the analysis sheet. Department writes run in parallel
// up to the configured worker bound; an error in one department is recorded
// in its outcome only. Cancellation stops departments that have not started
// yet; files already written stay in place.
func (s *Splitter) Split(ctx context.Context, combinedPath, businessMonth string) ([]SplitOutcome, error) {
	content, err := s.readCombined(combinedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read combined workbook: %w", err)
	}

	outcomes := make([]SplitOutcome, len(content.departments))
	var g errgroup.Group
	g.SetLimit(s.cfg.Analysis.SplitWorkers)

	dir := filepath.Dir(combinedPath)
	for i, department := range content.departments {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = SplitOutcome{Department: department, Err: err}
				return nil
			}
			outcome := s.splitDepartment(content, department, dir, businessMonth)
			if outcome.Err != nil {
				s.logger.Error("department split failed",
					slog.String("department", department),
					slog.Any("error", outcome.Err))
			} else {
				s.logger.Info("wrote department workbook",
					slog.String("department", department),
					slog.String("path", outcome.Path))
			}
			outcomes[i] = outcome
			return nil
		})
	}
	// Goroutines only ever return nil; the group bounds concurrency, it does
	// not propagate errors. Per-department errors live in the outcomes.
	_ = g.Wait()

	return outcomes, ctx.Err()
}

// readCombined loads the combined workbook's sheets as raw values.
func (s *Splitter) readCombined(path string) (*combinedContent, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		sheets[name] = true
	}
	if !sheets[SheetAnalysis] {
		return nil, fmt.Errorf("sheet %s not found", SheetAnalysis)
	}

	raw := excelize.Options{RawCellValue: true}
	content := &combinedContent{}

	grid, err := f.GetRows(SheetAnalysis, raw)
	if err != nil {
		return nil, err
	}
	content.analysis = parseAnalysisGrid(grid)
	seen := make(map[string]bool)
	for _, row := range content.analysis {
		if !seen[row.Department] {
			seen[row.Department] = true
			content.departments = append(content.departments, row.Department)
		}
	}

	if content.subscription, err = f.GetRows(SheetSubscription, raw); err != nil {
		return nil, err
	}
	if sheets[SheetLedger] {
		if content.ledger, err = f.GetRows(SheetLedger, raw); err != nil {
			return nil, err
		}
	}
	if sheets[SheetDetails] {
		if content.details, err = f.GetRows(SheetDetails, raw); err != nil {
			return nil, err
		}
	}

	return content, nil
}

// splitDepartment renders and writes one department's workbook.
func (s *Splitter) splitDepartment(content *combinedContent, department, dir, businessMonth string) SplitOutcome {
	outcome := SplitOutcome{Department: department}

	legal := s.cfg.Analysis.LegalDepartment(department)
	subCol := columnIndex(headerOf(content.subscription), s.cfg.Columns.Subscription.Department)
	ledgerCol := columnIndex(headerOf(content.ledger), s.cfg.Columns.Ledger.LegalDepartment)

	subscription := filterGrid(content.subscription, subCol, department)
	ledger := filterGrid(content.ledger, ledgerCol, legal)
	// 分析结果 keeps the legal department in its first column on every row,
	// including suppressed ones.
	details := filterGrid(content.details, 0, legal)

	var analysis []AnalysisRow
	for _, row := range content.analysis {
		if row.Department == department {
			analysis = append(analysis, row)
		}
	}

	wb := NewWorkbook()
	defer wb.Close()

	empty := true
	write := func(name string, grid [][]string) error {
		if len(grid) < 2 {
			return nil
		}
		empty = false
		return wb.AddGridSheet(name, grid)
	}

	if err := write(SheetSubscription, subscription); err != nil {
		outcome.Err = err
		return outcome
	}
	if err := write(SheetLedger, ledger); err != nil {
		outcome.Err = err
		return outcome
	}
	if err := write(SheetDetails, details); err != nil {
		outcome.Err = err
		return outcome
	}
	if len(analysis) > 0 {
		empty = false
		if err := wb.AddAnalysisSheet(SheetAnalysis, analysis); err != nil {
			outcome.Err = err
			return outcome
		}
	}
	if empty {
		if err := wb.AddEmptySheet(SheetPlaceholder); err != nil {
			outcome.Err = err
			return outcome
		}
	}

	name := DepartmentFilename(s.cfg.Analysis.OutputPrefix, department, businessMonth)
	path := filepath.Join(dir, name)
	if err := wb.SaveAs(path); err != nil {
		outcome.Err = fmt.Errorf("failed to save department workbook: %w", err)
		return outcome
	}
	outcome.Path = path
	return outcome
}

// parseAnalysisGrid converts the analysis sheet's raw rows (below the two
// header rows) back into presentation rows.
func parseAnalysisGrid(grid [][]string) []AnalysisRow {
	if len(grid) <= 2 {
		return nil
	}
	rows := make([]AnalysisRow, 0, len(grid)-2)
	for _, raw := range grid[2:] {
		row := AnalysisRow{
			Department:      cellAt(raw, 0),
			Customer:        cellAt(raw, 1),
			Narrative:       cellAt(raw, 8),
			TotalProfitRate: parseFloatCell(cellAt(raw, 7)),
		}
		row.ContractCount = parseIntCell(cellAt(raw, 2))
		if rate, ok := parseRateCell(cellAt(raw, 3)); ok {
			row.ContractRate = &rate
		}
		row.NonContractCount = parseIntCell(cellAt(raw, 4))
		if rate, ok := parseRateCell(cellAt(raw, 5)); ok {
			row.NonContractRate = &rate
		}
		row.TicketCount = parseIntCell(cellAt(raw, 6))
		rows = append(rows, row)
	}
	return rows
}

func headerOf(grid [][]string) []string {
	if len(grid) == 0 {
		return nil
	}
	return grid[0]
}

// columnIndex locates a label in a header row, -1 if absent.
func columnIndex(header []string, label string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == label {
			return i
		}
	}
	return -1
}

// filterGrid keeps the header plus the rows whose keyed column equals value.
// A missing column yields just no data rows.
func filterGrid(grid [][]string, col int, value string) [][]string {
	if len(grid) == 0 || col < 0 {
		return nil
	}
	filtered := [][]string{grid[0]}
	for _, row := range grid[1:] {
		if cellAt(row, col) == value {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

func cellAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseIntCell(s string) int {
	if s == "" {
		return 0
	}
	// Counts may come back as "3" or "3.0" depending on how the cell was
	// stored.
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func parseFloatCell(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseRateCell(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
