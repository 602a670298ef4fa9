package domain

import (
	"github.com/shopspring/decimal"
)

// Margin flag values carried by the subscription dataset (是否低负 column).
const (
	MarginFlagNegative = "负毛利"
	MarginFlagLow      = "低毛利"
	MarginFlagNone     = "N"
)

// ContractPriceNone is the sentinel meaning "no pre-agreed price" in the
// 客户约价 column. An empty cell means the same thing.
const ContractPriceNone = "N"

// SubscriptionRow is one shipment-level record from the marine subscription
// dataset. Rows are immutable once parsed.
type SubscriptionRow struct {
	Department    string // 二级部门
	Customer      string // 委托客户
	ContractPrice string // 客户约价, raw value
	MarginFlag    string // 是否低负
	Profit        decimal.Decimal
	Revenue       decimal.Decimal
	BusinessLine  string // 业务大类名称
	BusinessMonth string // 业务月份
}

// HasContractPrice reports whether the row's customer has a pre-agreed price.
func (r SubscriptionRow) HasContractPrice() bool {
	return r.ContractPrice != "" && r.ContractPrice != ContractPriceNone
}

// IsContractLoss reports whether the row counts toward the
// contract-priced-loss bucket: pre-agreed price plus negative margin.
func (r SubscriptionRow) IsContractLoss() bool {
	return r.HasContractPrice() && r.MarginFlag == MarginFlagNegative
}

// IsNonContractLowMargin reports whether the row counts toward the
// non-contract-low-margin bucket: no pre-agreed price plus a low or negative
// margin flag.
func (r SubscriptionRow) IsNonContractLowMargin() bool {
	return !r.HasContractPrice() &&
		(r.MarginFlag == MarginFlagLow || r.MarginFlag == MarginFlagNegative)
}

// AggregateBucket accumulates one classification bucket for a
// (department, customer) pair.
type AggregateBucket struct {
	Count   int
	Profit  decimal.Decimal
	Revenue decimal.Decimal
}

// Add folds one qualifying row into the bucket.
func (b *AggregateBucket) Add(r SubscriptionRow) {
	b.Count++
	b.Profit = b.Profit.Add(r.Profit)
	b.Revenue = b.Revenue.Add(r.Revenue)
}

// Rate derives the bucket's margin rate. ok is false when the bucket has no
// rows, in which case the rate is rendered blank. A bucket with rows but zero
// revenue yields the -1 sentinel (meaning -100%).
func (b AggregateBucket) Rate() (rate float64, ok bool) {
	if b.Count == 0 {
		return 0, false
	}
	if b.Revenue.IsZero() {
		return -1, true
	}
	rate, _ = b.Profit.Div(b.Revenue).Float64()
	return rate, true
}
