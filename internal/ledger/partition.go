package ledger

// Partition holds the two ledger sets produced from one load.
type Partition struct {
	Pending []Record `json:"pending"`
	History []Record `json:"history"`
}

// Partition maps both raw sets with disjoint id bases and drops blank rows.
// A nil history slice (failed or empty fetch) yields an empty history set.
func (m Mapper) Partition(rawPending, rawHistory []RawRow) Partition {
	return Partition{
		Pending: NonEmpty(m.MapRows(rawPending, PendingIDBase, SectionPending)),
		History: NonEmpty(m.MapRows(rawHistory, HistoryIDBase, SectionHistory)),
	}
}

// NonEmpty keeps records that carry any meaningful field.
func NonEmpty(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if HasContent(r) {
			out = append(out, r)
		}
	}
	return out
}

// HasContent reports whether r is more than a blank trailing row.
func HasContent(r Record) bool {
	for _, s := range []string{r.SerialNo, r.InventoryNo, r.InventoryType, r.Department, r.ItemsName, r.FoodName} {
		if s != "" {
			return true
		}
	}
	for _, n := range []int64{
		r.OpeningBalance, r.PurchaseData, r.IssueData, r.ReturnData, r.DamageItems, r.MissingItems,
		r.ClosingBalance, r.TotalBalance, r.PerUnitPrice,
	} {
		if n > 0 {
			return true
		}
	}
	return !r.Upload.IsZero() || r.Unit != "" || r.EventDate != "" || r.Remarks != ""
}

// Find returns the record with the given id.
func (p Partition) Find(id int) (Record, bool) {
	for _, set := range [][]Record{p.Pending, p.History} {
		for _, r := range set {
			if r.ID == id {
				return r, true
			}
		}
	}
	return Record{}, false
}

// Section returns the records of one partition.
func (p Partition) Section(s Section) []Record {
	if s == SectionHistory {
		return p.History
	}
	return p.Pending
}

// ByInventoryNo looks up a pending record by its store-assigned number.
func (p Partition) ByInventoryNo(no string) (Record, bool) {
	if no == "" {
		return Record{}, false
	}
	for _, r := range p.Pending {
		if r.InventoryNo == no {
			return r, true
		}
	}
	return Record{}, false
}
