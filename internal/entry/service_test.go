package entry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockledger/internal/ledger"
	"github.com/odyssey-erp/stockledger/internal/platform/httpx"
)

type fakeStore struct {
	inserted [][]any
	sheets   []string
	no       string
	noErr    error
}

func (f *fakeStore) Insert(_ context.Context, sheet string, row []any) error {
	f.sheets = append(f.sheets, sheet)
	f.inserted = append(f.inserted, row)
	return nil
}

func (f *fakeStore) GenerateInventoryNo(context.Context, string) (string, error) {
	return f.no, f.noErr
}

type fakeStock struct{ snap *ledger.Snapshot }

func (f fakeStock) Current(context.Context) (*ledger.Snapshot, error) { return f.snap, nil }

type fakeUploader struct{ calls int }

func (u *fakeUploader) UploadFile(_ context.Context, name, _ string, _ []byte) (string, error) {
	u.calls++
	return "https://files.example/" + name, nil
}

func stock() fakeStock {
	rice := ledger.Record{ID: 1, InventoryNo: "GRO-1", InventoryType: "Grocery", Department: "Kitchen", ItemsName: "Rice",
		Unit: "kg", PerUnitPrice: 40, OpeningBalance: 10, PurchaseData: 5, EventDate: "01/02/2024",
		Upload: ledger.RemoteUpload("https://files.example/rice.png")}
	rice.Recompute()
	soap := ledger.Record{ID: 2, InventoryNo: "CLN-1", InventoryType: "Cleaning", Department: "Housekeeping", ItemsName: "Soap"}
	return fakeStock{snap: ledger.NewSnapshot(ledger.Partition{Pending: []ledger.Record{rice, soap}, History: []ledger.Record{}}, ledger.Filter{}, time.Now())}
}

func newTestService(st *fakeStore, up ledger.Uploader) *Service {
	svc := NewService(st, up, stock(), Config{HistorySheet: "INVENTORY History", Location: time.UTC},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2024, 3, 4, 9, 5, 0, 0, time.UTC) }
	return svc
}

func ptr(v int64) *int64 { return &v }

func TestAddStockUsesGeneratedNumberAndUploadsImage(t *testing.T) {
	st := &fakeStore{no: "GRO-9"}
	up := &fakeUploader{}
	svc := newTestService(st, up)

	res, err := svc.AddStock(context.Background(), AddStock{
		Base:           Base{InventoryType: "Grocery", Department: "Kitchen", ItemsName: " Dal ", Unit: "kg", PerUnitPrice: ptr(30)},
		OpeningBalance: 12,
		Image:          &ledger.Blob{Data: []byte("img"), FileName: "dal.png", MIMEType: "image/png"},
	})
	require.NoError(t, err)
	require.False(t, res.Placeholder)
	require.Equal(t, 1, up.calls)
	require.Equal(t, []string{"INVENTORY History"}, st.sheets)

	row := st.inserted[0]
	require.Len(t, row, ledger.RowWidth)
	require.Equal(t, "04/03/2024, 09:05", row[ledger.ColTimestamp])
	require.Equal(t, "GRO-9", row[ledger.ColInventoryNo])
	require.Equal(t, "Dal", row[ledger.ColItemsName])
	require.Equal(t, int64(12), row[ledger.ColClosingBalance])
	require.Equal(t, int64(360), row[ledger.ColTotalBalance])
	require.Equal(t, "https://files.example/dal.png", row[ledger.ColUploadFile])
	require.Equal(t, "add stock", row[ledger.ColEntryKind])
}

func TestAddStockFallsBackToPlaceholder(t *testing.T) {
	st := &fakeStore{noErr: errors.New("script error")}
	svc := newTestService(st, nil)

	res, err := svc.AddStock(context.Background(), AddStock{
		Base: Base{InventoryType: "Grocery", Department: "Kitchen", ItemsName: "Dal"},
	})
	require.NoError(t, err)
	require.True(t, res.Placeholder)
	require.Regexp(t, `^TMP-[0-9A-F]{8}$`, res.Record.InventoryNo)
	require.Equal(t, ledger.NoImage, st.inserted[0][ledger.ColUploadFile])
}

func TestAddStockValidation(t *testing.T) {
	svc := newTestService(&fakeStore{no: "X"}, nil)
	_, err := svc.AddStock(context.Background(), AddStock{
		Base:           Base{InventoryType: "Grocery", EventDate: "2024-01-01"},
		OpeningBalance: -1,
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Contains(t, err.Error(), "Department")
	require.Contains(t, err.Error(), "EventDate")
	require.Contains(t, err.Error(), "OpeningBalance")
}

func TestPurchasePrefillsFromItem(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(st, nil)

	res, err := svc.Purchase(context.Background(), Purchase{InventoryNo: "GRO-1", PurchaseQty: 7, Base: Base{PartyName: "Acme"}})
	require.NoError(t, err)
	rec := res.Record
	require.Equal(t, "Grocery", rec.InventoryType)
	require.Equal(t, "Kitchen", rec.Department)
	require.Equal(t, "Rice", rec.ItemsName)
	require.Equal(t, int64(40), rec.PerUnitPrice)
	require.Equal(t, int64(15), rec.OpeningBalance)
	require.Equal(t, int64(7), rec.PurchaseData)
	require.Equal(t, int64(22), rec.ClosingBalance)
	require.Equal(t, "Purchase", st.inserted[0][ledger.ColEntryKind])
	require.Equal(t, "https://files.example/rice.png", st.inserted[0][ledger.ColUploadFile])
}

func TestPurchaseUnknownItem(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil)
	_, err := svc.Purchase(context.Background(), Purchase{InventoryNo: "NOPE", PurchaseQty: 1})
	require.ErrorIs(t, err, ErrUnknownInventoryNo)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestIssueRecordsQuantities(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(st, nil)

	res, err := svc.Issue(context.Background(), Issue{
		InventoryNo: "GRO-1", OpeningBalance: ptr(15),
		IssueQty: 6, ReturnQty: 1, DamageQty: 2, MissingQty: 1,
		Base: Base{PartyName: "Wedding", FoodName: "Biryani", EventDate: "09/03/2024"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(15-6+1-2-1), res.Record.ClosingBalance)
	require.Equal(t, "Inventory Issue", res.Record.EntryKind)
	require.Equal(t, "Biryani", st.inserted[0][ledger.ColFoodName])
	require.Equal(t, "09/03/2024", st.inserted[0][ledger.ColEventDate])
}

func TestIssueRequiresSomeQuantity(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil)
	_, err := svc.Issue(context.Background(), Issue{InventoryNo: "GRO-1"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestStockItemsByType(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil)
	items, err := svc.StockItems(context.Background(), "Cleaning")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "CLN-1", items[0].InventoryNo)
}
