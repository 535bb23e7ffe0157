package dashboard

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockledger/internal/ledger"
)

func records() []ledger.Record {
	return []ledger.Record{
		{ID: 1, ItemsName: "Rice", Department: "Kitchen", InventoryType: "Grocery", OpeningBalance: 60, PerUnitPrice: 2},
		{ID: 2, ItemsName: "Dal", Department: "Kitchen", InventoryType: "Grocery", OpeningBalance: 5, DamageItems: 1, PerUnitPrice: 3},
		{ID: 3, ItemsName: "Soap", Department: "Housekeeping", InventoryType: "Cleaning", OpeningBalance: 20, MissingItems: 2, PerUnitPrice: 1},
		{ID: 4, ItemsName: "", Department: "Kitchen", InventoryType: "Grocery", OpeningBalance: 1000},
	}
}

func TestSummarizeCountsNamedItemsOnly(t *testing.T) {
	d := Compute(records(), Filters{}, ledger.Filter{})
	s := d.Summary
	require.Equal(t, 3, s.TotalItems)
	require.Equal(t, 1, s.LowStock)
	require.True(t, decimal.NewFromInt(60*2+4*3+18*1).Equal(s.TotalValue))
	require.Equal(t, int64(1), s.TotalDamage)
	require.Equal(t, int64(2), s.TotalMissing)
	require.Equal(t, "66.7", s.HealthRate.StringFixed(1))
	require.Equal(t, []Count{{Name: "Kitchen", Count: 2}, {Name: "Housekeeping", Count: 1}}, s.ByDepartment)
	require.Equal(t, []string{"Housekeeping", "Kitchen"}, d.Departments)
	require.Equal(t, []string{"Cleaning", "Grocery"}, d.Types)
}

func TestComputeAppliesFilters(t *testing.T) {
	d := Compute(records(), Filters{Department: "Kitchen"}, ledger.Filter{})
	require.Len(t, d.Items, 2)
	require.Equal(t, ledger.StockGood, d.Items[0].StockStatus)
	require.Equal(t, ledger.StockLow, d.Items[1].StockStatus)
	require.Equal(t, "50.0", d.Summary.HealthRate.StringFixed(1))
	// filter options always reflect the whole ledger
	require.Len(t, d.Departments, 2)

	d = Compute(records(), Filters{Search: "soap"}, ledger.Filter{})
	require.Len(t, d.Items, 1)
	require.Equal(t, "100.0", d.Summary.HealthRate.StringFixed(1))
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	require.Zero(t, s.TotalItems)
	require.True(t, s.HealthRate.IsZero())
	require.Empty(t, s.ByType)
}
