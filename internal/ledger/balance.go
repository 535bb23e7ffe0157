package ledger

// StockStatus classifies a closing balance.
type StockStatus string

const (
	StockLow    StockStatus = "Low Stock"
	StockMedium StockStatus = "Medium Stock"
	StockGood   StockStatus = "Good Stock"
)

const (
	LowStockThreshold    = 10
	MediumStockThreshold = 50
)

// ClosingBalance applies the ledger formula. Negative results are kept.
func ClosingBalance(opening, purchase, issue, returned, damage, missing int64) int64 {
	return opening + purchase - issue + returned - damage - missing
}

// Closing derives the closing balance of r from its quantities.
func Closing(r Record) int64 {
	return ClosingBalance(r.OpeningBalance, r.PurchaseData, r.IssueData, r.ReturnData, r.DamageItems, r.MissingItems)
}

// TotalValue is closing balance times unit price.
func TotalValue(r Record) int64 {
	return Closing(r) * r.PerUnitPrice
}

// StatusFor maps a closing balance to its stock status.
func StatusFor(closing int64) StockStatus {
	switch {
	case closing < LowStockThreshold:
		return StockLow
	case closing < MediumStockThreshold:
		return StockMedium
	default:
		return StockGood
	}
}

// Status returns the stock status of r.
func Status(r Record) StockStatus {
	return StatusFor(Closing(r))
}
