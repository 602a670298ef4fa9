package domain

import (
	"github.com/shopspring/decimal"
)

// ReportRow is the final per-(department, customer) record written to the
// customer analysis sheet and the unit partitioned by department. It merges
// both subscription buckets with the customer's reconciliation summary.
type ReportRow struct {
	Department string // 二级部门 (logical department)
	Customer   string // 委托客户

	Contract    AggregateBucket // 约价负毛利
	NonContract AggregateBucket // 非约价低负

	// TotalProfitRate is computed across all filtered subscription rows for
	// the customer, classified or not, clamped to [-1, 1]. Zero revenue
	// defaults it to 0, unlike the bucket -1 sentinel.
	TotalProfitRate float64

	// Reconciliation summary fields; zero values when no ledger was supplied
	// or the customer has no ledger rows.
	TicketCount int
	TotalProfit decimal.Decimal
	Narrative   string
}

// ClampProfitRate applies the outlier policy for customer total profit rates.
func ClampProfitRate(rate float64) float64 {
	if rate > 1 {
		return 1
	}
	if rate < -1 {
		return -1
	}
	return rate
}
