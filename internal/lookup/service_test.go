package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	rows     [][]any
	appended [][]any
	addErr   error
	fetchErr error
}

func (f *fakeStore) Fetch(context.Context, string) ([][]any, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.rows, nil
}

func (f *fakeStore) AddToMaster(_ context.Context, _ string, row []any) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.appended = append(f.appended, row)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seeded() *fakeStore {
	return &fakeStore{rows: [][]any{
		{"Type", "Department", "Unit", "Type Key", "Item"},
		{"Grocery", "Kitchen", "kg", "Grocery", "Rice"},
	}}
}

func TestAddItemPersists(t *testing.T) {
	st := seeded()
	svc := NewService(st, "Master Drop-Down", quietLogger())
	_, err := svc.Load(context.Background())
	require.NoError(t, err)

	tbl, err := svc.AddItem(context.Background(), "Grocery", "Kitchen", "Dal")
	require.NoError(t, err)
	require.Equal(t, []string{"Rice", "Dal"}, tbl.ItemsFor("Kitchen"))
	require.Equal(t, [][]any{{"Grocery", "Kitchen", "", "Grocery", "Dal"}}, st.appended)

	_, err = svc.AddItem(context.Background(), "Grocery", "Kitchen", "Dal")
	require.NoError(t, err)
	require.Len(t, st.appended, 1)
}

func TestAddDepartmentFailureKeepsOptimisticRow(t *testing.T) {
	st := seeded()
	st.addErr = errors.New("quota")
	svc := NewService(st, "Master Drop-Down", quietLogger())
	_, err := svc.Load(context.Background())
	require.NoError(t, err)

	tbl, err := svc.AddDepartment(context.Background(), "Grocery", "Pantry")
	require.ErrorIs(t, err, ErrPersistLookup)
	require.Contains(t, tbl.DepartmentsFor("Grocery"), "Pantry")
	require.Contains(t, svc.Table().DepartmentsFor("Grocery"), "Pantry")
}

func TestAddRejectsIncompleteTuple(t *testing.T) {
	svc := NewService(seeded(), "m", quietLogger())
	_, err := svc.AddDepartment(context.Background(), "", "Pantry")
	require.ErrorIs(t, err, ErrInvalidTuple)
}

func TestLoadFailureKeepsTable(t *testing.T) {
	st := seeded()
	svc := NewService(st, "m", quietLogger())
	_, err := svc.Load(context.Background())
	require.NoError(t, err)
	st.fetchErr = errors.New("down")
	_, err = svc.Load(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, svc.Table().Len())
}

func TestResolveEndpoint(t *testing.T) {
	st := &fakeStore{rows: [][]any{
		{"h"},
		{"Grocery", "Kitchen", "kg", "Grocery", "Rice"},
		{"Grocery", "Bar", "ml", "Grocery", "Syrup"},
		{"Linen", "Laundry", "pcs", "Linen", "Towel"},
	}}
	svc := NewService(st, "m", quietLogger())
	_, err := svc.Load(context.Background())
	require.NoError(t, err)

	r := chi.NewRouter()
	NewHandler(quietLogger(), svc).MountRoutes(r)

	body, _ := json.Marshal(map[string]any{
		"selection": Selection{InventoryType: "Grocery", Department: "Kitchen", ItemsName: "Rice"},
		"field":     "inventoryType",
		"value":     "Linen",
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/resolve", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp resolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, Selection{InventoryType: "Linen"}, resp.Selection)
	require.Equal(t, []string{"Laundry"}, resp.Options.Departments)
	require.Empty(t, resp.Options.Items)
}

func TestAddEndpointReportsPersistFailure(t *testing.T) {
	st := seeded()
	st.addErr = errors.New("quota")
	svc := NewService(st, "m", quietLogger())
	_, _ = svc.Load(context.Background())

	r := chi.NewRouter()
	NewHandler(quietLogger(), svc).MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/departments",
		bytes.NewReader([]byte(`{"inventoryType":"Grocery","department":"Pantry"}`))))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "Pantry")
}
