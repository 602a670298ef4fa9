package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateTicketTotal(t *testing.T) {
	t.Run("margin and rate", func(t *testing.T) {
		total := RateTicketTotal{
			RateTicket: "FT-001",
			Receivable: dec("1000"),
			Payable:    dec("1100"),
		}
		assert.True(t, total.Margin().Equal(dec("-100")))
		assert.InDelta(t, -0.1, total.Rate(), 1e-9)
	})

	t.Run("zero receivable yields the -1 sentinel", func(t *testing.T) {
		total := RateTicketTotal{RateTicket: "FT-002", Payable: dec("500")}
		assert.Equal(t, -1.0, total.Rate())
	})
}
