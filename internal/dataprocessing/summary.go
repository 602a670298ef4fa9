package dataprocessing

import (
	"fmt"
	"log/slog"
	"strings"

	"seamargin/pkg/contracts/domain"
)

// CustomerSummaryBuilder folds reconciliation detail rows down to one summary
// per (legal department, customer).
type CustomerSummaryBuilder struct {
	logger *slog.Logger
}

// NewCustomerSummaryBuilder creates a summary builder.
func NewCustomerSummaryBuilder(logger *slog.Logger) *CustomerSummaryBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CustomerSummaryBuilder{logger: logger}
}

type summaryKey struct {
	legalDepartment string
	customer        string
}

type summaryAccumulator struct {
	summary      domain.CustomerSummary
	tickets      map[string]bool
	noReceivable []string
	inverted     []string
	seenAlias    map[string]bool
}

// Build aggregates detail rows into customer summaries. The input order is
// preserved; details arrive pre-sorted from the aggregation stage.
func (b *CustomerSummaryBuilder) Build(details []domain.LedgerDetailRow) []domain.CustomerSummary {
	var order []summaryKey
	accs := make(map[summaryKey]*summaryAccumulator)

	for _, d := range details {
		key := summaryKey{d.LegalDepartment, d.Customer}
		acc, ok := accs[key]
		if !ok {
			acc = &summaryAccumulator{
				summary: domain.CustomerSummary{
					LegalDepartment: d.LegalDepartment,
					Customer:        d.Customer,
				},
				tickets:   make(map[string]bool),
				seenAlias: make(map[string]bool),
			}
			accs[key] = acc
			order = append(order, key)
		}

		acc.tickets[d.RateTicket] = true
		acc.summary.TotalProfit = acc.summary.TotalProfit.Add(d.ItemProfit)

		// Aliases are listed once per anomaly category, in first-seen order.
		aliasKey := d.Category + "\x00" + d.Alias
		switch d.Category {
		case domain.CategoryNoReceivable:
			if !acc.seenAlias[aliasKey] {
				acc.seenAlias[aliasKey] = true
				acc.noReceivable = append(acc.noReceivable, d.Alias)
			}
		case domain.CategoryInverted:
			if !acc.seenAlias[aliasKey] {
				acc.seenAlias[aliasKey] = true
				acc.inverted = append(acc.inverted, d.Alias)
			}
		}
	}

	summaries := make([]domain.CustomerSummary, 0, len(order))
	for _, key := range order {
		acc := accs[key]
		acc.summary.TicketCount = len(acc.tickets)
		acc.summary.Narrative = formatNarrative(acc.noReceivable, acc.inverted)
		summaries = append(summaries, acc.summary)
	}

	b.logger.Info("built customer summaries",
		slog.Int("detail_rows", len(details)),
		slog.Int("customers", len(summaries)))

	return summaries
}

// formatNarrative renders the anomaly narrative: one clause per category with
// its aliases, line-break separated. Empty categories are omitted entirely.
func formatNarrative(noReceivable, inverted []string) string {
	var clauses []string
	if len(noReceivable) > 0 {
		clauses = append(clauses, fmt.Sprintf("%s：%s", domain.CategoryNoReceivable, strings.Join(noReceivable, ", ")))
	}
	if len(inverted) > 0 {
		clauses = append(clauses, fmt.Sprintf("%s：%s", domain.CategoryInverted, strings.Join(inverted, ", ")))
	}
	return strings.Join(clauses, "\n")
}
