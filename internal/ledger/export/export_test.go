package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/stockledger/internal/ledger"
)

func sample() []ledger.Record {
	return []ledger.Record{
		{SerialNo: "1", InventoryType: "Grocery", ItemsName: "Rice, Basmati", PartyName: `Acme "Traders"`, EventDate: "01/03/2024", OpeningBalance: 10, PerUnitPrice: 5},
		{SerialNo: "2", InventoryType: "Cleaning", ItemsName: "Soap", EventDate: "02/03/2024", OpeningBalance: 4, IssueData: 1, PerUnitPrice: 2},
	}
}

func TestWriteLedgerCSVQuotes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLedgerCSV(&buf, sample()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, csvHeader, rows[0])
	require.Equal(t, []string{"1", "Grocery", "Rice, Basmati", `Acme "Traders"`, "01/03/2024"}, rows[1])
	require.Len(t, rows, 3)
}

func TestWriteLedgerCSVEmpty(t *testing.T) {
	require.ErrorIs(t, WriteLedgerCSV(&bytes.Buffer{}, nil), ErrNothingToExport)
}

func TestWriteLedgerXLSX(t *testing.T) {
	records := sample()
	view := ledger.View{Section: ledger.SectionPending, Records: records, Summary: ledger.Aggregate(records)}
	var buf bytes.Buffer
	require.NoError(t, WriteLedgerXLSX(&buf, view, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(sheetName, "F4")
	require.NoError(t, err)
	require.Equal(t, "Items Name", header)

	item, err := f.GetCellValue(sheetName, "F5")
	require.NoError(t, err)
	require.Equal(t, "Rice, Basmati", item)

	status, err := f.GetCellValue(sheetName, "P6")
	require.NoError(t, err)
	require.Equal(t, "Low Stock", status)

	total, err := f.GetCellValue(sheetName, "N7")
	require.NoError(t, err)
	require.Equal(t, "13", total)
}
