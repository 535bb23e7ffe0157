package ledger

// Field selects a numeric quantity of a record.
type Field func(Record) int64

var (
	FieldOpening  Field = func(r Record) int64 { return r.OpeningBalance }
	FieldPurchase Field = func(r Record) int64 { return r.PurchaseData }
	FieldIssue    Field = func(r Record) int64 { return r.IssueData }
	FieldReturn   Field = func(r Record) int64 { return r.ReturnData }
	FieldDamage   Field = func(r Record) int64 { return r.DamageItems }
	FieldMissing  Field = func(r Record) int64 { return r.MissingItems }
	FieldClosing  Field = Closing
	FieldTotal    Field = TotalValue
)

// Sum adds field across records.
func Sum(records []Record, field Field) int64 {
	var total int64
	for _, r := range records {
		total += field(r)
	}
	return total
}

// SummaryStats are the named totals shown above a filtered ledger view.
type SummaryStats struct {
	Count           int   `json:"count"`
	TotalOpening    int64 `json:"totalOpening"`
	TotalPurchase   int64 `json:"totalPurchase"`
	TotalIssue      int64 `json:"totalIssue"`
	TotalReturn     int64 `json:"totalReturn"`
	TotalDamage     int64 `json:"totalDamage"`
	TotalMissing    int64 `json:"totalMissing"`
	SubTotalBalance int64 `json:"subTotalBalance"`
	TotalValue      int64 `json:"totalValue"`
}

// Aggregate computes SummaryStats over records.
func Aggregate(records []Record) SummaryStats {
	return SummaryStats{
		Count:           len(records),
		TotalOpening:    Sum(records, FieldOpening),
		TotalPurchase:   Sum(records, FieldPurchase),
		TotalIssue:      Sum(records, FieldIssue),
		TotalReturn:     Sum(records, FieldReturn),
		TotalDamage:     Sum(records, FieldDamage),
		TotalMissing:    Sum(records, FieldMissing),
		SubTotalBalance: Sum(records, FieldClosing),
		TotalValue:      Sum(records, FieldTotal),
	}
}
