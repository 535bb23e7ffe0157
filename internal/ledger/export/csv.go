// Package export renders filtered ledger views as CSV and XLSX downloads.
package export

import (
	"encoding/csv"
	"errors"
	"io"

	"github.com/odyssey-erp/stockledger/internal/ledger"
)

// ErrNothingToExport is returned for empty views.
var ErrNothingToExport = errors.New("export: no records to export")

var csvHeader = []string{"Serial No", "Inventory Type", "Items Name", "Party Name", "Event Date"}

// WriteLedgerCSV writes the download columns of records.
func WriteLedgerCSV(w io.Writer, records []ledger.Record) error {
	if len(records) == 0 {
		return ErrNothingToExport
	}
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write([]string{r.SerialNo, r.InventoryType, r.ItemsName, r.PartyName, r.EventDate}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
