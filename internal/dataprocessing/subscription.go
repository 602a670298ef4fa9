package dataprocessing

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"seamargin/internal/config"
	"seamargin/pkg/contracts/domain"
)

// SubscriptionDataset is the operator-facing name of the subscription input,
// used in schema error messages.
const SubscriptionDataset = "海运订阅文件"

// SubscriptionResult is the output of the classification stage: one report
// row per (department, customer) pair with at least one qualifying shipment,
// plus the derived business month and the raw grid for the verbatim sheet.
type SubscriptionResult struct {
	BusinessMonth string
	Rows          []domain.ReportRow
	Grid          [][]string
}

// SubscriptionClassifier reads the subscription dataset, filters it to the
// configured business line, classifies rows into the contract-priced-loss and
// non-contract-low-margin buckets, and aggregates per (department, customer).
type SubscriptionClassifier struct {
	logger       *slog.Logger
	cols         config.SubscriptionColumns
	businessLine string
}

// NewSubscriptionClassifier creates a classifier for the given column labels
// and business line filter.
func NewSubscriptionClassifier(logger *slog.Logger, cols config.SubscriptionColumns, businessLine string) *SubscriptionClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriptionClassifier{logger: logger, cols: cols, businessLine: businessLine}
}

type pairKey struct {
	department string
	customer   string
}

// Classify runs the full subscription analysis over the table.
func (c *SubscriptionClassifier) Classify(t *Table) (*SubscriptionResult, error) {
	if err := t.Validate(SubscriptionDataset, c.cols.Required()); err != nil {
		return nil, err
	}

	month := c.deriveBusinessMonth(t)

	var order []pairKey
	contract := make(map[pairKey]*domain.AggregateBucket)
	nonContract := make(map[pairKey]*domain.AggregateBucket)
	totals := make(map[pairKey]*domain.AggregateBucket)

	filtered := 0
	for _, raw := range t.Rows {
		row := domain.SubscriptionRow{
			Department:    t.Cell(raw, c.cols.Department),
			Customer:      t.Cell(raw, c.cols.Customer),
			ContractPrice: t.Cell(raw, c.cols.ContractPrice),
			MarginFlag:    t.Cell(raw, c.cols.MarginFlag),
			Profit:        parseAmount(t.Cell(raw, c.cols.Profit)),
			Revenue:       parseAmount(t.Cell(raw, c.cols.Revenue)),
			BusinessLine:  t.Cell(raw, c.cols.BusinessLine),
		}
		if row.BusinessLine != c.businessLine {
			continue
		}
		filtered++

		key := pairKey{row.Department, row.Customer}
		if _, ok := totals[key]; !ok {
			order = append(order, key)
			totals[key] = &domain.AggregateBucket{}
			contract[key] = &domain.AggregateBucket{}
			nonContract[key] = &domain.AggregateBucket{}
		}

		// The unrestricted total covers every filtered row, classified or
		// not; it feeds the customer's total profit rate.
		totals[key].Add(row)

		if row.IsContractLoss() {
			contract[key].Add(row)
		}
		if row.IsNonContractLowMargin() {
			nonContract[key].Add(row)
		}
	}

	rows := make([]domain.ReportRow, 0, len(order))
	for _, key := range order {
		cb, nb := contract[key], nonContract[key]
		// Pairs with no qualifying rows in either bucket are dropped.
		if cb.Count == 0 && nb.Count == 0 {
			continue
		}
		rows = append(rows, domain.ReportRow{
			Department:      key.department,
			Customer:        key.customer,
			Contract:        *cb,
			NonContract:     *nb,
			TotalProfitRate: totalProfitRate(totals[key]),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Department != rows[j].Department {
			return rows[i].Department < rows[j].Department
		}
		return rows[i].Customer < rows[j].Customer
	})

	c.logger.Info("classified subscription data",
		slog.Int("source_rows", len(t.Rows)),
		slog.Int("filtered_rows", filtered),
		slog.Int("report_rows", len(rows)),
		slog.String("business_month", month))

	return &SubscriptionResult{
		BusinessMonth: month,
		Rows:          rows,
		Grid:          t.Grid(),
	}, nil
}

// deriveBusinessMonth picks the first usable value of the business month
// column. A dataset with no usable value does not fail: the current month is
// used instead.
func (c *SubscriptionClassifier) deriveBusinessMonth(t *Table) string {
	if t.HasColumn(c.cols.BusinessMonth) {
		for _, raw := range t.Rows {
			v := t.Cell(raw, c.cols.BusinessMonth)
			if v != "" && !strings.EqualFold(v, "nan") {
				return v
			}
		}
	}
	return time.Now().Format("2006-01")
}

// totalProfitRate derives the customer's profit rate across all filtered
// rows, clamped to [-1, 1]. Zero revenue defaults it to 0; this is distinct
// from the -1 sentinel used for bucket rates.
func totalProfitRate(b *domain.AggregateBucket) float64 {
	if b.Revenue.IsZero() {
		return 0
	}
	rate, _ := b.Profit.Div(b.Revenue).Float64()
	return domain.ClampProfitRate(rate)
}
