package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/stockledger/internal/ledger"
)

const sheetName = "Ledger"

type column struct {
	label string
	width float64
	value func(ledger.Record) any
}

var columns = []column{
	{"Timestamp", 18, func(r ledger.Record) any { return r.Timestamp }},
	{"Serial No", 10, func(r ledger.Record) any { return r.SerialNo }},
	{"Inventory No", 14, func(r ledger.Record) any { return r.InventoryNo }},
	{"Inventory Type", 16, func(r ledger.Record) any { return r.InventoryType }},
	{"Department", 16, func(r ledger.Record) any { return r.Department }},
	{"Items Name", 20, func(r ledger.Record) any { return r.ItemsName }},
	{"Receive Date", 12, func(r ledger.Record) any { return r.ReceiveDate }},
	{"Opening", 10, func(r ledger.Record) any { return r.OpeningBalance }},
	{"Purchase", 10, func(r ledger.Record) any { return r.PurchaseData }},
	{"Issue", 10, func(r ledger.Record) any { return r.IssueData }},
	{"Return", 10, func(r ledger.Record) any { return r.ReturnData }},
	{"Damage", 10, func(r ledger.Record) any { return r.DamageItems }},
	{"Missing", 10, func(r ledger.Record) any { return r.MissingItems }},
	{"Closing", 10, func(r ledger.Record) any { return ledger.Closing(r) }},
	{"Total Value", 12, func(r ledger.Record) any { return ledger.TotalValue(r) }},
	{"Stock Status", 14, func(r ledger.Record) any { return string(ledger.Status(r)) }},
	{"Unit", 8, func(r ledger.Record) any { return r.Unit }},
	{"Per Unit Price", 12, func(r ledger.Record) any { return r.PerUnitPrice }},
	{"Party Name", 18, func(r ledger.Record) any { return r.PartyName }},
	{"Event Date", 12, func(r ledger.Record) any { return r.EventDate }},
	{"Remarks", 24, func(r ledger.Record) any { return r.Remarks }},
	{"Entry Kind", 14, func(r ledger.Record) any { return r.EntryKind }},
	{"Food Name", 16, func(r ledger.Record) any { return r.FoodName }},
	{"Attachment", 30, func(r ledger.Record) any { return r.Upload.URL() }},
}

// totals maps column labels to the summary field shown in the totals row.
func totals(s ledger.SummaryStats) map[string]int64 {
	return map[string]int64{
		"Opening":     s.TotalOpening,
		"Purchase":    s.TotalPurchase,
		"Issue":       s.TotalIssue,
		"Return":      s.TotalReturn,
		"Damage":      s.TotalDamage,
		"Missing":     s.TotalMissing,
		"Closing":     s.SubTotalBalance,
		"Total Value": s.TotalValue,
	}
}

// WriteLedgerXLSX writes a workbook with every ledger column, a header
// row and a totals row.
func WriteLedgerXLSX(w io.Writer, view ledger.View, generatedAt time.Time) error {
	if len(view.Records) == 0 {
		return ErrNothingToExport
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E7E6E6"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Inventory %s ledger", view.Section)
	_ = f.SetCellValue(sheetName, "A1", title)
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	_ = f.SetCellValue(sheetName, "A2", "Generated: "+generatedAt.Format("02/01/2006 15:04"))

	const headerRow = 4
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return err
		}
		_ = f.SetCellValue(sheetName, cell, col.label)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheetName, name, name, col.width)
	}

	for r, rec := range view.Records {
		for i, col := range columns {
			cell, err := excelize.CoordinatesToCellName(i+1, headerRow+1+r)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, col.value(rec)); err != nil {
				return err
			}
		}
	}

	totalRow := headerRow + 1 + len(view.Records)
	sums := totals(view.Summary)
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, totalRow)
		if i == 0 {
			_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("Total (%d)", view.Summary.Count))
		} else if v, ok := sums[col.label]; ok {
			_ = f.SetCellValue(sheetName, cell, v)
		}
		_ = f.SetCellStyle(sheetName, cell, cell, totalStyle)
	}

	return f.Write(w)
}
