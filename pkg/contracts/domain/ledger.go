package domain

import (
	"github.com/shopspring/decimal"
)

// Values of the 应收应付 indicator column.
const (
	IndicatorReceivable = "应收"
	IndicatorPayable    = "应付"
)

// Anomaly categories attached to reconciled ledger rows.
const (
	CategoryNoReceivable = "无应收" // payable booked with no receivable at all
	CategoryInverted     = "倒挂"  // receivable below payable
)

// LedgerRow is one shipment-level record from the reconciliation ledger.
// Rows are immutable once parsed.
type LedgerRow struct {
	LegalDepartment string // 法人部门
	Customer        string // 委托客户
	Alias           string // 别名
	Indicator       string // 应收应付
	Amount          decimal.Decimal
	RateTicket      string // 费率单号
	Currency        string // 币种
}

// RateTicketTotal carries the receivable/payable totals of one rate ticket
// across all of its alias/currency rows. A ticket has exactly one margin.
type RateTicketTotal struct {
	RateTicket string
	Receivable decimal.Decimal
	Payable    decimal.Decimal
}

// Margin is the ticket-level profit: total receivable minus total payable.
func (t RateTicketTotal) Margin() decimal.Decimal {
	return t.Receivable.Sub(t.Payable)
}

// Rate derives the ticket margin rate. A ticket with zero receivable yields
// the -1 sentinel.
func (t RateTicketTotal) Rate() float64 {
	if t.Receivable.IsZero() {
		return -1
	}
	rate, _ := t.Margin().Div(t.Receivable).Float64()
	return rate
}

// LedgerDetailRow is one grouped and pivoted reconciliation row: amounts are
// summed per (legal department, customer, rate ticket, alias, currency) with
// the receivable/payable indicator spread into two columns. Ticket-level
// margin fields are attached to every row sharing the ticket; hiding repeats
// is strictly the exporter's concern.
type LedgerDetailRow struct {
	LegalDepartment string
	Customer        string
	RateTicket      string
	Alias           string
	Currency        string
	Receivable      decimal.Decimal
	Payable         decimal.Decimal
	ItemProfit      decimal.Decimal // receivable minus payable for this row
	Category        string          // 无应收, 倒挂, or empty
	TicketMargin    decimal.Decimal
	TicketRate      float64
}

// CustomerSummary aggregates reconciliation results to one row per
// (legal department, customer).
type CustomerSummary struct {
	LegalDepartment string
	Customer        string
	TicketCount     int // distinct rate tickets
	TotalProfit     decimal.Decimal
	Narrative       string // 无应收/倒挂 clauses, line-break separated
}
