package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seamargin/internal/config"
)

var subscriptionHeader = []string{
	"二级部门", "委托客户", "客户约价", "是否低负",
	"未税人民币总毛利", "未税人民币总收入", "业务大类名称", "业务月份",
}

func subscriptionTable(rows ...[]string) *Table {
	grid := [][]string{subscriptionHeader}
	return NewTable(append(grid, rows...))
}

func newClassifier(t *testing.T) *SubscriptionClassifier {
	t.Helper()
	cols := config.Default().Columns.Subscription
	return NewSubscriptionClassifier(nil, cols, "海运")
}

func TestClassifySchemaError(t *testing.T) {
	c := newClassifier(t)
	table := NewTable([][]string{{"二级部门", "委托客户"}})

	_, err := c.Classify(table)
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, SubscriptionDataset, schemaErr.Dataset)
	assert.Contains(t, schemaErr.Missing, "客户约价")
	assert.Contains(t, schemaErr.Missing, "是否低负")
}

func TestClassifyBuckets(t *testing.T) {
	c := newClassifier(t)
	table := subscriptionTable(
		// Priced customer, two loss shipments: profit -50 on revenue 500.
		[]string{"国内水运", "客户甲", "约价A", "负毛利", "-30", "200", "海运", "2025-07"},
		[]string{"国内水运", "客户甲", "约价A", "负毛利", "-20", "300", "海运", "2025-07"},
		// Healthy shipment of the same customer: feeds the total only.
		[]string{"国内水运", "客户甲", "约价A", "N", "150", "500", "海运", "2025-07"},
		// Unpriced low-margin customer.
		[]string{"国际水运", "客户乙", "N", "低毛利", "10", "400", "海运", "2025-07"},
	)

	result, err := c.Classify(table)
	require.NoError(t, err)
	assert.Equal(t, "2025-07", result.BusinessMonth)
	require.Len(t, result.Rows, 2)

	first := result.Rows[0]
	assert.Equal(t, "国内水运", first.Department)
	assert.Equal(t, "客户甲", first.Customer)
	assert.Equal(t, 2, first.Contract.Count)
	rate, ok := first.Contract.Rate()
	require.True(t, ok)
	assert.InDelta(t, -0.1, rate, 1e-9)
	assert.Equal(t, 0, first.NonContract.Count)
	_, ok = first.NonContract.Rate()
	assert.False(t, ok)
	// Total rate spans all three filtered shipments: 100 / 1000.
	assert.InDelta(t, 0.1, first.TotalProfitRate, 1e-9)

	second := result.Rows[1]
	assert.Equal(t, "国际水运", second.Department)
	assert.Equal(t, 1, second.NonContract.Count)
	assert.Equal(t, 0, second.Contract.Count)
}

func TestClassifyFiltersBusinessLine(t *testing.T) {
	c := newClassifier(t)
	table := subscriptionTable(
		[]string{"国内水运", "客户甲", "约价A", "负毛利", "-10", "100", "空运", "2025-07"},
		[]string{"国内水运", "客户甲", "约价A", "负毛利", "-10", "100", "海运", "2025-07"},
	)

	result, err := c.Classify(table)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, 1, result.Rows[0].Contract.Count)
}

func TestClassifyDropsPairsWithEmptyBuckets(t *testing.T) {
	c := newClassifier(t)
	table := subscriptionTable(
		// Healthy priced shipments only: no bucket ever fills.
		[]string{"国内水运", "客户丙", "约价A", "N", "100", "1000", "海运", "2025-07"},
		[]string{"国内水运", "客户丙", "约价A", "N", "50", "600", "海运", "2025-07"},
	)

	result, err := c.Classify(table)
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
}

func TestClassifyTotalRateClampedAndZeroRevenue(t *testing.T) {
	c := newClassifier(t)
	table := subscriptionTable(
		// Total rate -5000/100 = -50, clamped to -1.
		[]string{"国内水运", "客户丁", "", "负毛利", "-5000", "100", "海运", "2025-07"},
		// Zero total revenue defaults the total rate to 0, while the bucket
		// rate keeps its -1 sentinel.
		[]string{"国际水运", "客户戊", "", "负毛利", "-200", "0", "海运", "2025-07"},
	)

	result, err := c.Classify(table)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	assert.Equal(t, -1.0, result.Rows[0].TotalProfitRate)

	assert.Equal(t, 0.0, result.Rows[1].TotalProfitRate)
	rate, ok := result.Rows[1].NonContract.Rate()
	require.True(t, ok)
	assert.Equal(t, -1.0, rate)
}

func TestClassifySortsByDepartmentThenCustomer(t *testing.T) {
	c := newClassifier(t)
	table := subscriptionTable(
		[]string{"部门B", "客户2", "", "低毛利", "1", "100", "海运", "2025-07"},
		[]string{"部门A", "客户9", "", "低毛利", "1", "100", "海运", "2025-07"},
		[]string{"部门B", "客户1", "", "低毛利", "1", "100", "海运", "2025-07"},
	)

	result, err := c.Classify(table)
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)
	assert.Equal(t, "部门A", result.Rows[0].Department)
	assert.Equal(t, "客户1", result.Rows[1].Customer)
	assert.Equal(t, "客户2", result.Rows[2].Customer)
}

func TestDeriveBusinessMonth(t *testing.T) {
	c := newClassifier(t)

	t.Run("first usable value wins", func(t *testing.T) {
		table := subscriptionTable(
			[]string{"国内水运", "客户甲", "", "N", "1", "1", "海运", ""},
			[]string{"国内水运", "客户甲", "", "N", "1", "1", "海运", "nan"},
			[]string{"国内水运", "客户甲", "", "N", "1", "1", "海运", "2025-06"},
		)
		assert.Equal(t, "2025-06", c.deriveBusinessMonth(table))
	})

	t.Run("falls back to the current month", func(t *testing.T) {
		table := subscriptionTable(
			[]string{"国内水运", "客户甲", "", "N", "1", "1", "海运", ""},
		)
		assert.Equal(t, time.Now().Format("2006-01"), c.deriveBusinessMonth(table))
	})
}
