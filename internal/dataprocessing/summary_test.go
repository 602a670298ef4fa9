package dataprocessing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seamargin/pkg/contracts/domain"
)

func detail(legal, customer, ticket, alias, category string, profit int64) domain.LedgerDetailRow {
	return domain.LedgerDetailRow{
		LegalDepartment: legal,
		Customer:        customer,
		RateTicket:      ticket,
		Alias:           alias,
		Category:        category,
		ItemProfit:      decimal.NewFromInt(profit),
	}
}

func TestBuildCustomerSummaries(t *testing.T) {
	b := NewCustomerSummaryBuilder(nil)
	details := []domain.LedgerDetailRow{
		detail("国内", "客户甲", "FT-001", "海运费", "", 300),
		detail("国内", "客户甲", "FT-001", "报关费", domain.CategoryNoReceivable, -200),
		detail("国内", "客户甲", "FT-002", "海运费", domain.CategoryInverted, -50),
		detail("国际", "客户乙", "FT-010", "海运费", "", 80),
	}

	summaries := b.Build(details)
	require.Len(t, summaries, 2)

	first := summaries[0]
	assert.Equal(t, "国内", first.LegalDepartment)
	assert.Equal(t, "客户甲", first.Customer)
	assert.Equal(t, 2, first.TicketCount)
	assert.Equal(t, "50", first.TotalProfit.String())
	assert.Equal(t, "无应收：报关费\n倒挂：海运费", first.Narrative)

	second := summaries[1]
	assert.Equal(t, "客户乙", second.Customer)
	assert.Equal(t, 1, second.TicketCount)
	assert.Equal(t, "", second.Narrative)
}

func TestBuildDeduplicatesAliasesPerCategory(t *testing.T) {
	b := NewCustomerSummaryBuilder(nil)
	details := []domain.LedgerDetailRow{
		detail("国内", "客户甲", "FT-001", "报关费", domain.CategoryNoReceivable, -10),
		detail("国内", "客户甲", "FT-002", "报关费", domain.CategoryNoReceivable, -20),
		// The same alias under a different category is listed again there.
		detail("国内", "客户甲", "FT-003", "报关费", domain.CategoryInverted, -5),
		detail("国内", "客户甲", "FT-003", "仓储费", domain.CategoryInverted, -5),
	}

	summaries := b.Build(details)
	require.Len(t, summaries, 1)
	assert.Equal(t, "无应收：报关费\n倒挂：报关费, 仓储费", summaries[0].Narrative)
}

func TestBuildEmptyInput(t *testing.T) {
	b := NewCustomerSummaryBuilder(nil)
	assert.Empty(t, b.Build(nil))
}

func TestFormatNarrative(t *testing.T) {
	tests := []struct {
		name         string
		noReceivable []string
		inverted     []string
		want         string
	}{
		{name: "both empty", want: ""},
		{name: "only no-receivable", noReceivable: []string{"a", "b"}, want: "无应收：a, b"},
		{name: "only inverted", inverted: []string{"c"}, want: "倒挂：c"},
		{name: "both", noReceivable: []string{"a"}, inverted: []string{"c"}, want: "无应收：a\n倒挂：c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatNarrative(tt.noReceivable, tt.inverted))
		})
	}
}
