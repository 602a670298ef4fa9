package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"seamargin/internal/config"
	"seamargin/pkg/contracts/domain"
)

// detailsHeader is the column layout of the 分析结果 sheet.
var detailsHeader = []string{
	"法人部门", "委托客户", "费率单号", "别名", "币种",
	"应收金额", "应付金额", "费目利润", "类型", "单票毛利", "单票毛利率",
}

// Input carries everything the assembler needs: the classified subscription
// rows, the customer summaries, and the raw grids for the verbatim sheets.
// Ledger fields are zero-valued when no ledger file was supplied.
type Input struct {
	BusinessMonth    string
	ReportRows       []domain.ReportRow
	Summaries        []domain.CustomerSummary
	SubscriptionGrid [][]string
	LedgerGrid       [][]string
	Details          []domain.LedgerDetailRow
	HasLedger        bool
}

// Assembler merges the classification and reconciliation results and writes
// the combined workbook.
type Assembler struct {
	logger *slog.Logger
	cfg    *config.Config
}

// NewAssembler creates an assembler.
func NewAssembler(logger *slog.Logger, cfg *config.Config) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger, cfg: cfg}
}

// CombinedFilename derives the combined workbook name for a business month.
func CombinedFilename(prefix, month string) string {
	return fmt.Sprintf("%s_总表_%s.xlsx", prefix, month)
}

// DepartmentFilename derives a per-department workbook name.
func DepartmentFilename(prefix, department, month string) string {
	return fmt.Sprintf("%s_%s_%s.xlsx", prefix, department, month)
}

// Assemble merges summaries into the report rows, renders all sheets, and
// writes the combined workbook next to the caller's output path hint. The
// hint's filename is replaced by the deterministic name; only its directory
// is reused.
func (a *Assembler) Assemble(in Input, outputHint string) (string, []domain.ReportRow, error) {
	merged := a.mergeSummaries(in.ReportRows, in.Summaries)

	wb := NewWorkbook()
	defer wb.Close()

	if err := wb.AddGridSheet(SheetSubscription, in.SubscriptionGrid); err != nil {
		return "", nil, fmt.Errorf("failed to write sheet %s: %w", SheetSubscription, err)
	}
	if in.HasLedger {
		if err := wb.AddGridSheet(SheetLedger, in.LedgerGrid); err != nil {
			return "", nil, fmt.Errorf("failed to write sheet %s: %w", SheetLedger, err)
		}
		if err := wb.AddGridSheet(SheetDetails, DetailsGrid(in.Details)); err != nil {
			return "", nil, fmt.Errorf("failed to write sheet %s: %w", SheetDetails, err)
		}
	}
	if err := wb.AddAnalysisSheet(SheetAnalysis, toAnalysisRows(merged)); err != nil {
		return "", nil, fmt.Errorf("failed to write sheet %s: %w", SheetAnalysis, err)
	}

	name := CombinedFilename(a.cfg.Analysis.OutputPrefix, in.BusinessMonth)
	path := filepath.Join(filepath.Dir(outputHint), name)
	if err := wb.SaveAs(path); err != nil {
		return "", nil, fmt.Errorf("failed to save combined workbook: %w", err)
	}

	a.logger.Info("wrote combined workbook",
		slog.String("path", path),
		slog.Int("analysis_rows", len(merged)),
		slog.Bool("has_ledger", in.HasLedger))

	return path, merged, nil
}

// mergeSummaries joins customer summaries onto the report rows through the
// department translation table. Rows without a summary keep zero counts and
// an empty narrative.
func (a *Assembler) mergeSummaries(rows []domain.ReportRow, summaries []domain.CustomerSummary) []domain.ReportRow {
	type key struct {
		legalDepartment string
		customer        string
	}
	lookup := make(map[key]domain.CustomerSummary, len(summaries))
	for _, s := range summaries {
		lookup[key{s.LegalDepartment, s.Customer}] = s
	}

	merged := make([]domain.ReportRow, len(rows))
	for i, row := range rows {
		legal := a.cfg.Analysis.LegalDepartment(row.Department)
		if s, ok := lookup[key{legal, row.Customer}]; ok {
			row.TicketCount = s.TicketCount
			row.TotalProfit = s.TotalProfit
			row.Narrative = s.Narrative
		}
		merged[i] = row
	}
	return merged
}

// toAnalysisRows converts merged report rows to their presentation form.
func toAnalysisRows(rows []domain.ReportRow) []AnalysisRow {
	out := make([]AnalysisRow, len(rows))
	for i, row := range rows {
		ar := AnalysisRow{
			Department:       row.Department,
			Customer:         row.Customer,
			ContractCount:    row.Contract.Count,
			NonContractCount: row.NonContract.Count,
			TicketCount:      row.TicketCount,
			TotalProfitRate:  row.TotalProfitRate,
			Narrative:        row.Narrative,
		}
		if rate, ok := row.Contract.Rate(); ok {
			ar.ContractRate = &rate
		}
		if rate, ok := row.NonContract.Rate(); ok {
			ar.NonContractRate = &rate
		}
		out[i] = ar
	}
	return out
}

// DetailsGrid renders reconciliation detail rows for the 分析结果 sheet.
// Repeated rate-ticket fields are blanked after their first occurrence; this
// is purely a display rule applied over the already-final aggregates.
func DetailsGrid(details []domain.LedgerDetailRow) [][]string {
	grid := make([][]string, 0, len(details)+1)
	grid = append(grid, detailsHeader)

	seen := make(map[string]bool)
	for _, d := range details {
		first := !seen[d.RateTicket]
		seen[d.RateTicket] = true

		customer, ticket, margin, rate := "", "", "", ""
		if first {
			customer = d.Customer
			ticket = d.RateTicket
			margin = d.TicketMargin.String()
			rate = strconv.FormatFloat(d.TicketRate, 'f', -1, 64)
		}
		grid = append(grid, []string{
			d.LegalDepartment,
			customer,
			ticket,
			d.Alias,
			d.Currency,
			d.Receivable.String(),
			d.Payable.String(),
			d.ItemProfit.String(),
			d.Category,
			margin,
			rate,
		})
	}
	return grid
}
