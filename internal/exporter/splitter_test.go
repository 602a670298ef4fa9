package exporter

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"seamargin/internal/config"
	"seamargin/pkg/contracts/domain"
)

func writeCombined(t *testing.T, cfg *config.Config) string {
	t.Helper()

	in := sampleInput()
	in.HasLedger = true
	in.LedgerGrid = [][]string{
		{"法人部门", "委托客户", "别名"},
		{"国内", "客户甲", "海运费"},
		{"国际", "客户乙", "海运费"},
	}
	in.Details = splitDetails()

	a := NewAssembler(nil, cfg)
	path, _, err := a.Assemble(in, filepath.Join(t.TempDir(), "out.xlsx"))
	require.NoError(t, err)
	return path
}

// splitDetails builds detail rows spanning both legal departments.
func splitDetails() []domain.LedgerDetailRow {
	return []domain.LedgerDetailRow{
		{LegalDepartment: "国内", Customer: "客户甲", RateTicket: "FT-001", Alias: "海运费", Currency: "CNY"},
		{LegalDepartment: "国际", Customer: "客户乙", RateTicket: "FT-010", Alias: "海运费", Currency: "USD"},
	}
}

func TestSplitPartitionsByDepartment(t *testing.T) {
	cfg := config.Default()
	combined := writeCombined(t, cfg)

	s := NewSplitter(nil, cfg)
	outcomes, err := s.Split(context.Background(), combined, "2025-07")
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	var departments []string
	for _, o := range outcomes {
		require.NoError(t, o.Err)
		require.FileExists(t, o.Path)
		departments = append(departments, o.Department)
		assert.Equal(t,
			filepath.Join(filepath.Dir(combined), DepartmentFilename(cfg.Analysis.OutputPrefix, o.Department, "2025-07")),
			o.Path)
	}
	sort.Strings(departments)
	assert.Equal(t, []string{"国内水运", "国际水运"}, departments)

	// The domestic workbook only carries domestic rows.
	f, err := excelize.OpenFile(filepath.Join(filepath.Dir(combined), DepartmentFilename(cfg.Analysis.OutputPrefix, "国内水运", "2025-07")))
	require.NoError(t, err)
	defer f.Close()

	raw := excelize.Options{RawCellValue: true}
	sub, err := f.GetRows(SheetSubscription, raw)
	require.NoError(t, err)
	require.Len(t, sub, 2)
	assert.Equal(t, "国内水运", sub[1][0])

	ledger, err := f.GetRows(SheetLedger, raw)
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	assert.Equal(t, "国内", ledger[1][0])

	analysis, err := f.GetRows(SheetAnalysis, raw)
	require.NoError(t, err)
	require.Len(t, analysis, 3)
	assert.Equal(t, "国内水运", analysis[2][0])
	assert.Equal(t, "客户甲", analysis[2][1])
	assert.Equal(t, "2", analysis[2][2])
}

func TestSplitAnalysisRowsPartitionTheCombinedSheet(t *testing.T) {
	cfg := config.Default()
	combined := writeCombined(t, cfg)

	s := NewSplitter(nil, cfg)
	outcomes, err := s.Split(context.Background(), combined, "2025-07")
	require.NoError(t, err)

	f, err := excelize.OpenFile(combined)
	require.NoError(t, err)
	combinedRows, err := f.GetRows(SheetAnalysis, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var unionCustomers []string
	for _, o := range outcomes {
		require.NoError(t, o.Err)
		df, err := excelize.OpenFile(o.Path)
		require.NoError(t, err)
		rows, err := df.GetRows(SheetAnalysis, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		require.NoError(t, df.Close())
		for _, row := range rows[2:] {
			unionCustomers = append(unionCustomers, row[1])
		}
	}

	var combinedCustomers []string
	for _, row := range combinedRows[2:] {
		combinedCustomers = append(combinedCustomers, row[1])
	}

	sort.Strings(unionCustomers)
	sort.Strings(combinedCustomers)
	assert.Equal(t, combinedCustomers, unionCustomers)
}

func TestSplitDepartmentWithNoRowsWritesPlaceholder(t *testing.T) {
	cfg := config.Default()

	content := &combinedContent{
		subscription: [][]string{{"二级部门", "委托客户"}, {"国内水运", "客户甲"}},
	}
	s := NewSplitter(nil, cfg)

	dir := t.TempDir()
	outcome := s.splitDepartment(content, "西南水运", dir, "2025-07")
	require.NoError(t, outcome.Err)

	f, err := excelize.OpenFile(outcome.Path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetPlaceholder}, f.GetSheetList())
}

func TestSplitCancelledContext(t *testing.T) {
	cfg := config.Default()
	combined := writeCombined(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSplitter(nil, cfg)
	outcomes, err := s.Split(ctx, combined, "2025-07")
	assert.ErrorIs(t, err, context.Canceled)

	// No department workbook is written once cancellation is observed.
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
		assert.Empty(t, o.Path)
		assert.NoFileExists(t, filepath.Join(filepath.Dir(combined),
			DepartmentFilename(cfg.Analysis.OutputPrefix, o.Department, "2025-07")))
	}
}

func TestSplitLeavesCallerContextAlone(t *testing.T) {
	cfg := config.Default()
	combined := writeCombined(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A live context must never surface as an error after a clean split.
	s := NewSplitter(nil, cfg)
	outcomes, err := s.Split(ctx, combined, "2025-07")
	require.NoError(t, err)
	assert.NoError(t, ctx.Err())
	for _, o := range outcomes {
		require.NoError(t, o.Err)
	}
}

func TestSplitIsolatesDepartmentFailure(t *testing.T) {
	cfg := config.Default()
	combined := writeCombined(t, cfg)

	// Occupy one department's output path with a directory so its save fails.
	blocked := filepath.Join(filepath.Dir(combined),
		DepartmentFilename(cfg.Analysis.OutputPrefix, "国内水运", "2025-07"))
	require.NoError(t, os.MkdirAll(blocked, 0755))

	s := NewSplitter(nil, cfg)
	outcomes, err := s.Split(context.Background(), combined, "2025-07")
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	var failed, succeeded []SplitOutcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		} else {
			succeeded = append(succeeded, o)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, "国内水运", failed[0].Department)
	assert.Empty(t, failed[0].Path)

	require.Len(t, succeeded, 1)
	assert.Equal(t, "国际水运", succeeded[0].Department)
	assert.FileExists(t, succeeded[0].Path)
}

func TestFilterGrid(t *testing.T) {
	grid := [][]string{
		{"部门", "值"},
		{"甲", "1"},
		{"乙", "2"},
		{"甲", "3"},
	}

	filtered := filterGrid(grid, 0, "甲")
	require.Len(t, filtered, 3)
	assert.Equal(t, "1", filtered[1][1])
	assert.Equal(t, "3", filtered[2][1])

	assert.Nil(t, filterGrid(grid, -1, "甲"))
	assert.Nil(t, filterGrid(nil, 0, "甲"))
}

func TestParseCells(t *testing.T) {
	assert.Equal(t, 3, parseIntCell("3"))
	assert.Equal(t, 3, parseIntCell("3.0"))
	assert.Equal(t, 0, parseIntCell(""))
	assert.Equal(t, 0, parseIntCell("x"))

	rate, ok := parseRateCell("-0.1")
	assert.True(t, ok)
	assert.InDelta(t, -0.1, rate, 1e-9)
	_, ok = parseRateCell("")
	assert.False(t, ok)

	assert.Equal(t, 0.0, parseFloatCell("abc"))
	assert.Equal(t, 0.25, parseFloatCell("0.25"))
}
