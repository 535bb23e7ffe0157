// Package lookup resolves the cascading inventory type, department and item
// options from the master drop-down sheet.
package lookup

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Master sheet columns.
const (
	colTypeOption = iota
	colDepartment
	colUnit
	colInventoryType
	colItemName
)

// Row is one master sheet row. TypeOption feeds the standalone type list;
// InventoryType keys the department cascade.
type Row struct {
	TypeOption    string `json:"typeOption"`
	Department    string `json:"department"`
	Unit          string `json:"unit"`
	InventoryType string `json:"inventoryType"`
	ItemName      string `json:"itemName"`
}

// Tuple builds a row from (type, department, unit, item).
func Tuple(inventoryType, department, unit, item string) Row {
	return Row{TypeOption: inventoryType, Department: department, Unit: unit, InventoryType: inventoryType, ItemName: item}
}

// Cells renders the row in the sheet's five-column layout. Unit is left
// blank as the store expects for appended tuples.
func (r Row) Cells() []any {
	return []any{r.TypeOption, r.Department, "", r.InventoryType, r.ItemName}
}

// Table is an immutable view of the master sheet.
type Table struct {
	rows []Row
}

// NewTable wraps rows.
func NewTable(rows []Row) Table {
	return Table{rows: append([]Row(nil), rows...)}
}

// FromRaw builds a table from fetched rows, skipping the header.
func FromRaw(raw [][]any) Table {
	if len(raw) <= 1 {
		return Table{}
	}
	rows := make([]Row, 0, len(raw)-1)
	for _, r := range raw[1:] {
		rows = append(rows, Row{
			TypeOption:    cell(r, colTypeOption),
			Department:    cell(r, colDepartment),
			Unit:          cell(r, colUnit),
			InventoryType: cell(r, colInventoryType),
			ItemName:      cell(r, colItemName),
		})
	}
	return Table{rows: rows}
}

func (t Table) Rows() []Row { return append([]Row(nil), t.rows...) }

func (t Table) Len() int { return len(t.rows) }

// InventoryTypes lists the distinct type options.
func (t Table) InventoryTypes() []string {
	return t.collect(func(r Row) (string, bool) { return r.TypeOption, true })
}

// Departments lists every distinct department.
func (t Table) Departments() []string {
	return t.collect(func(r Row) (string, bool) { return r.Department, true })
}

// Units lists the distinct units.
func (t Table) Units() []string {
	return t.collect(func(r Row) (string, bool) { return r.Unit, true })
}

// DepartmentsFor lists departments under inventoryType, or all departments
// when no type is chosen.
func (t Table) DepartmentsFor(inventoryType string) []string {
	if inventoryType == "" {
		return t.Departments()
	}
	return t.collect(func(r Row) (string, bool) { return r.Department, r.InventoryType == inventoryType })
}

// ItemsFor lists items under department. Without a department there are
// no items.
func (t Table) ItemsFor(department string) []string {
	if department == "" {
		return []string{}
	}
	return t.collect(func(r Row) (string, bool) { return r.ItemName, r.Department == department })
}

// Contains reports whether an identical tuple exists.
func (t Table) Contains(row Row) bool {
	for _, r := range t.rows {
		if r.InventoryType == row.InventoryType && r.Department == row.Department && r.ItemName == row.ItemName {
			return true
		}
	}
	return false
}

// AddRow returns a new table with row appended.
func (t Table) AddRow(row Row) Table {
	rows := make([]Row, len(t.rows), len(t.rows)+1)
	copy(rows, t.rows)
	return Table{rows: append(rows, row)}
}

func (t Table) collect(pick func(Row) (string, bool)) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range t.rows {
		v, ok := pick(r)
		if !ok || v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func cell(r []any, idx int) string {
	if idx >= len(r) {
		return ""
	}
	switch v := r[idx].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
