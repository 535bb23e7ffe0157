package ledger

// Section identifies which partition of the ledger a record belongs to.
type Section string

const (
	SectionPending Section = "pending"
	SectionHistory Section = "history"
)

// Id bases keep pending and history ids disjoint.
const (
	PendingIDBase = 1
	HistoryIDBase = 1000
)

// Column positions of the canonical row layout, shared by reads and writes.
const (
	ColTimestamp = iota
	ColSerialNo
	ColInventoryNo
	ColInventoryType
	ColDepartment
	ColItemsName
	ColReceiveDate
	ColOpeningBalance
	ColPurchaseData
	ColIssueData
	ColReturnData
	ColDamageItems
	ColMissingItems
	ColClosingBalance
	ColTotalBalance
	ColUploadFile
	ColUnit
	ColPerUnitPrice
	ColPartyName
	ColEventDate
	ColRemarks
	ColEntryKind
	ColFoodName

	RowWidth
)

// NoImage is the store's marker for a row without an attached file.
const NoImage = "No Image"

// Record is one ledger line.
type Record struct {
	ID       int     `json:"id"`
	Section  Section `json:"section"`
	SheetRow int     `json:"sheetRow"`

	Timestamp     string `json:"timestamp"`
	SerialNo      string `json:"serialNo"`
	InventoryNo   string `json:"inventoryNo"`
	InventoryType string `json:"inventoryType"`
	Department    string `json:"department"`
	ItemsName     string `json:"itemsName"`
	FoodName      string `json:"foodName"`
	Unit          string `json:"unit"`
	PartyName     string `json:"partyName"`
	Remarks       string `json:"remarks"`
	EntryKind     string `json:"entryKind"`
	ReceiveDate   string `json:"receiveDate"`
	EventDate     string `json:"eventDate"`

	OpeningBalance int64 `json:"openingBalance"`
	PurchaseData   int64 `json:"purchaseData"`
	IssueData      int64 `json:"issueData"`
	ReturnData     int64 `json:"returnData"`
	DamageItems    int64 `json:"damageItems"`
	MissingItems   int64 `json:"missingItems"`
	PerUnitPrice   int64 `json:"perUnitPrice"`

	ClosingBalance int64 `json:"closingBalance"`
	TotalBalance   int64 `json:"totalBalance"`

	Upload UploadState `json:"uploadFile"`
}

// Recompute refreshes the derived balance fields from the quantities.
func (r *Record) Recompute() {
	r.ClosingBalance = Closing(*r)
	r.TotalBalance = TotalValue(*r)
}

// Row renders the record in the canonical positional layout.
func (r Record) Row() []any {
	row := make([]any, RowWidth)
	row[ColTimestamp] = r.Timestamp
	row[ColSerialNo] = r.SerialNo
	row[ColInventoryNo] = r.InventoryNo
	row[ColInventoryType] = r.InventoryType
	row[ColDepartment] = r.Department
	row[ColItemsName] = r.ItemsName
	row[ColReceiveDate] = r.ReceiveDate
	row[ColOpeningBalance] = r.OpeningBalance
	row[ColPurchaseData] = r.PurchaseData
	row[ColIssueData] = r.IssueData
	row[ColReturnData] = r.ReturnData
	row[ColDamageItems] = r.DamageItems
	row[ColMissingItems] = r.MissingItems
	row[ColClosingBalance] = Closing(r)
	row[ColTotalBalance] = TotalValue(r)
	row[ColUploadFile] = r.Upload.Cell()
	row[ColUnit] = r.Unit
	row[ColPerUnitPrice] = r.PerUnitPrice
	row[ColPartyName] = r.PartyName
	row[ColEventDate] = r.EventDate
	row[ColRemarks] = r.Remarks
	row[ColEntryKind] = r.EntryKind
	row[ColFoodName] = r.FoodName
	return row
}
