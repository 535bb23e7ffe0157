// Package entry implements the three data-entry workflows that append rows
// to the history sheet: new stock, purchases and issues.
package entry

import "github.com/odyssey-erp/stockledger/internal/ledger"

// Kind names a workflow as written to the entry kind column.
type Kind string

const (
	KindAddStock Kind = "add stock"
	KindPurchase Kind = "Purchase"
	KindIssue    Kind = "Inventory Issue"
)

// Base holds the fields every workflow shares.
type Base struct {
	InventoryType string `json:"inventoryType" validate:"required"`
	Department    string `json:"department" validate:"required"`
	ItemsName     string `json:"itemsName" validate:"required"`
	FoodName      string `json:"foodName"`
	Unit          string `json:"unit"`
	PerUnitPrice  *int64 `json:"perUnitPrice" validate:"omitempty,gte=0"`
	PartyName     string `json:"partyName"`
	EventDate     string `json:"eventDate" validate:"omitempty,ledgerdate"`
	Remarks       string `json:"remarks"`
}

// AddStock registers a new item with its opening quantity.
type AddStock struct {
	Base
	OpeningBalance int64  `json:"openingBalance" validate:"gte=0"`
	ReceiveDate    string `json:"receiveDate" validate:"omitempty,ledgerdate"`

	Image *ledger.Blob `json:"-"`
}

// Purchase records stock bought for an existing item.
type Purchase struct {
	Base
	InventoryNo    string `json:"inventoryNo" validate:"required"`
	OpeningBalance *int64 `json:"openingBalance" validate:"omitempty,gte=0"`
	PurchaseQty    int64  `json:"purchaseQty" validate:"gt=0"`
}

// Issue records consumption of an existing item and any returns or losses.
type Issue struct {
	Base
	InventoryNo    string `json:"inventoryNo" validate:"required"`
	OpeningBalance *int64 `json:"openingBalance" validate:"omitempty,gte=0"`
	IssueQty       int64  `json:"issueQty" validate:"gte=0"`
	ReturnQty      int64  `json:"returnQty" validate:"gte=0"`
	DamageQty      int64  `json:"damageQty" validate:"gte=0"`
	MissingQty     int64  `json:"missingQty" validate:"gte=0"`
}

// prefill copies classification from the referenced stock item into any
// blank field of b.
func (b *Base) prefill(item ledger.Record) {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&b.InventoryType, item.InventoryType)
	fill(&b.Department, item.Department)
	fill(&b.ItemsName, item.ItemsName)
	fill(&b.Unit, item.Unit)
	fill(&b.FoodName, item.FoodName)
	if b.PerUnitPrice == nil {
		p := item.PerUnitPrice
		b.PerUnitPrice = &p
	}
}

func (b Base) price() int64 {
	if b.PerUnitPrice == nil {
		return 0
	}
	return *b.PerUnitPrice
}

func (b Base) record(kind Kind) ledger.Record {
	return ledger.Record{
		InventoryType: b.InventoryType,
		Department:    b.Department,
		ItemsName:     b.ItemsName,
		FoodName:      b.FoodName,
		Unit:          b.Unit,
		PerUnitPrice:  b.price(),
		PartyName:     b.PartyName,
		EventDate:     b.EventDate,
		Remarks:       b.Remarks,
		EntryKind:     string(kind),
	}
}
