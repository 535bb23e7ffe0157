package ledger

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawRow is one untyped spreadsheet row as decoded from the store.
type RawRow = []any

// Mapper turns raw rows into records. Loc is the zone used to render date
// cells that arrive as timestamps.
type Mapper struct {
	Loc *time.Location
}

// MapRows converts rows into records. rows[0] is the header and is skipped.
// Ids are base plus the zero-based position of the data row, so a base of
// 1000 yields 1000, 1001, ...; SheetRow is the 1-based row in the sheet.
func (m Mapper) MapRows(rows []RawRow, base int, section Section) []Record {
	if len(rows) <= 1 {
		return []Record{}
	}
	out := make([]Record, 0, len(rows)-1)
	for i, raw := range rows[1:] {
		rec := m.mapRow(raw)
		rec.ID = base + i
		rec.Section = section
		rec.SheetRow = i + 2
		out = append(out, rec)
	}
	return out
}

func (m Mapper) mapRow(raw RawRow) Record {
	rec := Record{
		Timestamp:      cellString(raw, ColTimestamp),
		SerialNo:       cellString(raw, ColSerialNo),
		InventoryNo:    cellString(raw, ColInventoryNo),
		InventoryType:  cellString(raw, ColInventoryType),
		Department:     cellString(raw, ColDepartment),
		ItemsName:      cellString(raw, ColItemsName),
		ReceiveDate:    FormatDate(cellString(raw, ColReceiveDate), m.Loc),
		OpeningBalance: cellInt(raw, ColOpeningBalance),
		PurchaseData:   cellInt(raw, ColPurchaseData),
		IssueData:      cellInt(raw, ColIssueData),
		ReturnData:     cellInt(raw, ColReturnData),
		DamageItems:    cellInt(raw, ColDamageItems),
		MissingItems:   cellInt(raw, ColMissingItems),
		Upload:         RemoteUpload(cellString(raw, ColUploadFile)),
		Unit:           cellString(raw, ColUnit),
		PerUnitPrice:   cellInt(raw, ColPerUnitPrice),
		PartyName:      cellString(raw, ColPartyName),
		EventDate:      FormatDate(cellString(raw, ColEventDate), m.Loc),
		Remarks:        cellString(raw, ColRemarks),
		EntryKind:      cellString(raw, ColEntryKind),
		FoodName:       cellString(raw, ColFoodName),
	}
	rec.Recompute()
	return rec
}

func cellString(raw RawRow, idx int) string {
	if idx >= len(raw) {
		return ""
	}
	switch v := raw[idx].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return ""
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// cellInt coerces a cell the way a lenient integer parse would: numbers are
// truncated, strings contribute their leading integer, anything else is 0.
func cellInt(raw RawRow, idx int) int64 {
	if idx >= len(raw) {
		return 0
	}
	switch v := raw[idx].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case json.Number:
		return leadingInt(v.String())
	case string:
		return leadingInt(v)
	default:
		return 0
	}
}

func leadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
