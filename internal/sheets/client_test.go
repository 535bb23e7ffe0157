package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockledger/internal/platform/httpx"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveCall(action, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, action+":"+outcome)
}

func newTestClient(t *testing.T, h http.HandlerFunc, obs Observer) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{Endpoint: srv.URL, FolderID: "folder-1", Timeout: 5 * time.Second, UploadTimeout: time.Second, Observer: obs})
	require.NoError(t, err)
	return c
}

func TestFetchDecodesRows(t *testing.T) {
	obs := &recordingObserver{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "INVENTORY", r.URL.Query().Get("sheet"))
		require.Equal(t, "fetch", r.URL.Query().Get("action"))
		require.NotEmpty(t, r.URL.Query().Get("ts"))
		_, _ = w.Write([]byte(`{"success":true,"data":[["Timestamp","Serial"],["01/02/2024, 10:00",7]]}`))
	}, obs)

	rows, err := c.Fetch(context.Background(), "INVENTORY")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Serial", rows[0][1])
	require.Equal(t, float64(7), rows[1][1])
	require.Equal(t, []string{"fetch:ok"}, obs.calls)
}

func TestFetchFailureEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"Sheet not found"}`))
	}, nil)

	_, err := c.Fetch(context.Background(), "missing")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRemote)
	require.ErrorIs(t, err, httpx.ErrUpstream)
	require.Contains(t, err.Error(), "Sheet not found")
}

func TestFetchMalformedAndStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sheet") == "bad" {
			_, _ = w.Write([]byte(`<html>oops</html>`))
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}, nil)

	_, err := c.Fetch(context.Background(), "bad")
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	require.Contains(t, remote.Message, "malformed")

	_, err = c.Fetch(context.Background(), "other")
	require.ErrorAs(t, err, &remote)
	require.Equal(t, http.StatusInternalServerError, remote.Status)
}

func TestUpdateSendsFormEncodedRow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "update", r.PostForm.Get("action"))
		require.Equal(t, "INVENTORY", r.PostForm.Get("sheetName"))
		require.Equal(t, "5", r.PostForm.Get("rowIndex"))
		var row []any
		require.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("rowData")), &row))
		require.Equal(t, []any{"a", float64(3), ""}, row)
		_, _ = w.Write([]byte(`{"success":true}`))
	}, nil)

	require.NoError(t, c.Update(context.Background(), "INVENTORY", 5, []any{"a", 3, ""}))
}

func TestSerialAndInventoryNo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		switch r.Form.Get("action") {
		case "getSerial":
			require.Equal(t, "3", r.Form.Get("rowIndex"))
			_, _ = w.Write([]byte(`{"success":true,"serialNumber":42}`))
		case "generateInventoryNo":
			require.Equal(t, "Grocery", r.PostForm.Get("inventoryType"))
			_, _ = w.Write([]byte(`{"success":true,"inventoryNo":"GRO-0007"}`))
		default:
			t.Fatalf("unexpected action %q", r.Form.Get("action"))
		}
	}, nil)

	serial, err := c.Serial(context.Background(), "INVENTORY", 3)
	require.NoError(t, err)
	require.Equal(t, "42", serial)

	no, err := c.GenerateInventoryNo(context.Background(), "Grocery")
	require.NoError(t, err)
	require.Equal(t, "GRO-0007", no)
}

func TestUploadFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "folder-1", r.PostForm.Get("folderId"))
		require.Equal(t, "photo.png", r.PostForm.Get("fileName"))
		require.True(t, strings.HasPrefix(r.PostForm.Get("base64Data"), "data:image/png;base64,"))
		_, _ = w.Write([]byte(`{"success":true,"fileUrl":"https://files.example/photo.png"}`))
	}, nil)

	u, err := c.UploadFile(context.Background(), "photo.png", "image/png", []byte{0x89, 0x50})
	require.NoError(t, err)
	require.Equal(t, "https://files.example/photo.png", u)
}

func TestUploadFileTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, nil)
	c.uploadTimeout = 50 * time.Millisecond
	defer close(release)

	_, err := c.UploadFile(context.Background(), "slow.jpg", "image/jpeg", []byte("x"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUploadTimeout))
}
