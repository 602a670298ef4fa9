package dataprocessing

import (
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"seamargin/internal/config"
	"seamargin/pkg/contracts/domain"
)

// LedgerDataset is the operator-facing name of the reconciliation input.
const LedgerDataset = "预对账文件"

// ReconciliationResult is the output of the ledger aggregation stage: pivoted
// and classified detail rows in stable render order plus the raw grid.
type ReconciliationResult struct {
	Details []domain.LedgerDetailRow
	Grid    [][]string
}

// ReconciliationAggregator pivots the ledger's receivable/payable amounts per
// (legal department, customer, rate ticket, alias, currency), flags anomalies,
// and attaches ticket-level margins.
type ReconciliationAggregator struct {
	logger *slog.Logger
	cols   config.LedgerColumns
}

// NewReconciliationAggregator creates an aggregator for the given column labels.
func NewReconciliationAggregator(logger *slog.Logger, cols config.LedgerColumns) *ReconciliationAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconciliationAggregator{logger: logger, cols: cols}
}

type ledgerKey struct {
	legalDepartment string
	customer        string
	rateTicket      string
	alias           string
	currency        string
}

type ledgerPivot struct {
	receivable decimal.Decimal
	payable    decimal.Decimal
}

// Aggregate runs the full reconciliation analysis over the table.
func (a *ReconciliationAggregator) Aggregate(t *Table) (*ReconciliationResult, error) {
	if err := t.Validate(LedgerDataset, a.cols.Required()); err != nil {
		return nil, err
	}

	groups := make(map[ledgerKey]*ledgerPivot)
	for _, raw := range t.Rows {
		row := domain.LedgerRow{
			LegalDepartment: t.Cell(raw, a.cols.LegalDepartment),
			Customer:        t.Cell(raw, a.cols.Customer),
			Alias:           t.Cell(raw, a.cols.Alias),
			Indicator:       t.Cell(raw, a.cols.Indicator),
			Amount:          parseAmount(t.Cell(raw, a.cols.Amount)),
			RateTicket:      t.Cell(raw, a.cols.RateTicket),
			Currency:        t.Cell(raw, a.cols.Currency),
		}

		key := ledgerKey{row.LegalDepartment, row.Customer, row.RateTicket, row.Alias, row.Currency}
		pivot, ok := groups[key]
		if !ok {
			pivot = &ledgerPivot{}
			groups[key] = pivot
		}
		switch row.Indicator {
		case domain.IndicatorReceivable:
			pivot.receivable = pivot.receivable.Add(row.Amount)
		case domain.IndicatorPayable:
			pivot.payable = pivot.payable.Add(row.Amount)
		}
	}

	keys := make([]ledgerKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		switch {
		case a.legalDepartment != b.legalDepartment:
			return a.legalDepartment < b.legalDepartment
		case a.customer != b.customer:
			return a.customer < b.customer
		case a.rateTicket != b.rateTicket:
			return a.rateTicket < b.rateTicket
		case a.alias != b.alias:
			return a.alias < b.alias
		default:
			return a.currency < b.currency
		}
	})

	// One margin per rate ticket, regardless of how many alias/currency rows
	// the ticket spans.
	tickets := make(map[string]*domain.RateTicketTotal)
	for key, pivot := range groups {
		total, ok := tickets[key.rateTicket]
		if !ok {
			total = &domain.RateTicketTotal{RateTicket: key.rateTicket}
			tickets[key.rateTicket] = total
		}
		total.Receivable = total.Receivable.Add(pivot.receivable)
		total.Payable = total.Payable.Add(pivot.payable)
	}

	details := make([]domain.LedgerDetailRow, 0, len(keys))
	for _, key := range keys {
		pivot := groups[key]
		total := tickets[key.rateTicket]
		detail := domain.LedgerDetailRow{
			LegalDepartment: key.legalDepartment,
			Customer:        key.customer,
			RateTicket:      key.rateTicket,
			Alias:           key.alias,
			Currency:        key.currency,
			Receivable:      pivot.receivable,
			Payable:         pivot.payable,
			ItemProfit:      pivot.receivable.Sub(pivot.payable),
			Category:        classifyPivot(pivot),
			TicketMargin:    total.Margin(),
			TicketRate:      total.Rate(),
		}
		details = append(details, detail)
	}

	a.logger.Info("aggregated reconciliation data",
		slog.Int("source_rows", len(t.Rows)),
		slog.Int("grouped_rows", len(details)),
		slog.Int("rate_tickets", len(tickets)))

	return &ReconciliationResult{Details: details, Grid: t.Grid()}, nil
}

// classifyPivot flags the anomaly of one grouped row. 无应收 takes precedence
// over 倒挂 when a row satisfies both predicates.
func classifyPivot(p *ledgerPivot) string {
	if p.payable.IsPositive() && p.receivable.IsZero() {
		return domain.CategoryNoReceivable
	}
	if p.receivable.LessThan(p.payable) {
		return domain.CategoryInverted
	}
	return ""
}
