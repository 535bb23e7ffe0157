package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClosingBalanceFormula(t *testing.T) {
	cases := []struct {
		o, p, i, r, d, m int64
	}{
		{0, 0, 0, 0, 0, 0},
		{100, 20, 30, 5, 2, 1},
		{5, 0, 10, 0, 0, 0},
		{0, 0, 0, 0, 3, 4},
		{7, 1, 1, 1, 1, 1},
	}
	for _, c := range cases {
		want := c.o + c.p - c.i + c.r - c.d - c.m
		require.Equal(t, want, ClosingBalance(c.o, c.p, c.i, c.r, c.d, c.m))

		rec := Record{OpeningBalance: c.o, PurchaseData: c.p, IssueData: c.i, ReturnData: c.r, DamageItems: c.d, MissingItems: c.m, PerUnitPrice: 12}
		require.Equal(t, want, Closing(rec))
		require.Equal(t, want*12, TotalValue(rec))
	}
}

func TestNegativeClosingIsKept(t *testing.T) {
	rec := Record{OpeningBalance: 2, IssueData: 5, PerUnitPrice: 3}
	rec.Recompute()
	require.Equal(t, int64(-3), rec.ClosingBalance)
	require.Equal(t, int64(-9), rec.TotalBalance)
	require.Equal(t, StockLow, Status(rec))
}

func TestStockStatusBoundaries(t *testing.T) {
	require.Equal(t, StockLow, StatusFor(9))
	require.Equal(t, StockMedium, StatusFor(10))
	require.Equal(t, StockMedium, StatusFor(49))
	require.Equal(t, StockGood, StatusFor(50))
	require.Equal(t, StockGood, StatusFor(500))
	require.Equal(t, StockLow, StatusFor(-1))
}
