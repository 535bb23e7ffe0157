// Package sheets talks to the spreadsheet-backed row store over its HTTP
// RPC endpoint. Every response is a JSON envelope with a success flag.
package sheets

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/stockledger/internal/platform/httpx"
)

var (
	// ErrRemote marks any failure reported by or while reaching the store.
	ErrRemote = fmt.Errorf("sheets: %w", httpx.ErrUpstream)
	// ErrUploadTimeout is returned when a file upload exceeds its bound.
	ErrUploadTimeout = fmt.Errorf("sheets: upload timed out: %w", ErrRemote)
)

// RemoteError carries the store's own message when it provides one.
type RemoteError struct {
	Action  string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request failed"
	}
	if e.Status != 0 && e.Status != http.StatusOK {
		return fmt.Sprintf("sheets %s: status %d: %s", e.Action, e.Status, msg)
	}
	return fmt.Sprintf("sheets %s: %s", e.Action, msg)
}

func (e *RemoteError) Unwrap() error { return ErrRemote }

// Observer receives one callback per RPC call.
type Observer interface {
	ObserveCall(action, outcome string, elapsed time.Duration)
}

// Config configures the client.
type Config struct {
	Endpoint      string
	FolderID      string
	Timeout       time.Duration
	UploadTimeout time.Duration
	HTTPClient    *http.Client
	Observer      Observer
}

// Client is the RPC client.
type Client struct {
	endpoint      string
	folderID      string
	uploadTimeout time.Duration
	http          *http.Client
	observer      Observer
	now           func() time.Time
}

// NewClient constructs a client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("sheets: endpoint is required")
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("sheets: endpoint: %w", err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	uploadTimeout := cfg.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = 10 * time.Second
	}
	return &Client{
		endpoint:      cfg.Endpoint,
		folderID:      cfg.FolderID,
		uploadTimeout: uploadTimeout,
		http:          hc,
		observer:      cfg.Observer,
		now:           time.Now,
	}, nil
}

type envelope struct {
	Success      bool            `json:"success"`
	Data         json.RawMessage `json:"data"`
	Error        string          `json:"error"`
	Message      string          `json:"message"`
	FileURL      string          `json:"fileUrl"`
	SerialNumber json.RawMessage `json:"serialNumber"`
	InventoryNo  json.RawMessage `json:"inventoryNo"`
}

// Fetch returns all rows of sheet. Row 0 is the header.
func (c *Client) Fetch(ctx context.Context, sheet string) ([][]any, error) {
	q := url.Values{}
	q.Set("sheet", sheet)
	q.Set("action", "fetch")
	q.Set("ts", strconv.FormatInt(c.now().UnixMilli(), 10))
	env, err := c.get(ctx, "fetch", q)
	if err != nil {
		return nil, err
	}
	var rows [][]any
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &rows); err != nil {
			return nil, &RemoteError{Action: "fetch", Message: "malformed data: " + err.Error()}
		}
	}
	return rows, nil
}

// Insert appends a row to sheet.
func (c *Client) Insert(ctx context.Context, sheet string, row []any) error {
	form, err := rowForm("insert", sheet, row)
	if err != nil {
		return err
	}
	_, err = c.post(ctx, "insert", form)
	return err
}

// Update overwrites the row at rowIndex (1-based, header is row 1).
func (c *Client) Update(ctx context.Context, sheet string, rowIndex int, row []any) error {
	form, err := rowForm("update", sheet, row)
	if err != nil {
		return err
	}
	form.Set("rowIndex", strconv.Itoa(rowIndex))
	_, err = c.post(ctx, "update", form)
	return err
}

// InsertHistory appends a finalized row to the history sheet.
func (c *Client) InsertHistory(ctx context.Context, sheet string, row []any, serial string) error {
	form, err := rowForm("insertHistory", sheet, row)
	if err != nil {
		return err
	}
	form.Set("serialNumber", serial)
	_, err = c.post(ctx, "insertHistory", form)
	return err
}

// AddToMaster appends a tuple to the lookup sheet.
func (c *Client) AddToMaster(ctx context.Context, sheet string, row []any) error {
	form, err := rowForm("addToMaster", sheet, row)
	if err != nil {
		return err
	}
	_, err = c.post(ctx, "addToMaster", form)
	return err
}

// Serial reads the serial number of the row at rowIndex.
func (c *Client) Serial(ctx context.Context, sheet string, rowIndex int) (string, error) {
	q := url.Values{}
	q.Set("action", "getSerial")
	q.Set("sheetName", sheet)
	q.Set("rowIndex", strconv.Itoa(rowIndex))
	env, err := c.get(ctx, "getSerial", q)
	if err != nil {
		return "", err
	}
	return rawScalar(env.SerialNumber), nil
}

// GenerateInventoryNo asks the store for the next number of a type.
func (c *Client) GenerateInventoryNo(ctx context.Context, inventoryType string) (string, error) {
	form := url.Values{}
	form.Set("action", "generateInventoryNo")
	form.Set("inventoryType", inventoryType)
	env, err := c.post(ctx, "generateInventoryNo", form)
	if err != nil {
		return "", err
	}
	no := rawScalar(env.InventoryNo)
	if no == "" {
		return "", &RemoteError{Action: "generateInventoryNo", Message: "no inventory number returned"}
	}
	return no, nil
}

// UploadFile stores a file in the configured folder and returns its URL.
// The call is bounded by the upload timeout.
func (c *Client) UploadFile(ctx context.Context, fileName, mimeType string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	form := url.Values{}
	form.Set("action", "uploadFile")
	form.Set("base64Data", "data:"+mimeType+";base64,"+base64.StdEncoding.EncodeToString(data))
	form.Set("fileName", fileName)
	form.Set("mimeType", mimeType)
	form.Set("folderId", c.folderID)
	env, err := c.post(ctx, "uploadFile", form)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%s: %w", fileName, ErrUploadTimeout)
		}
		return "", err
	}
	if env.FileURL == "" {
		return "", &RemoteError{Action: "uploadFile", Message: "no file url returned"}
	}
	return env.FileURL, nil
}

func (c *Client) get(ctx context.Context, action string, q url.Values) (envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return envelope{}, fmt.Errorf("sheets: build request: %w", err)
	}
	return c.do(action, req)
}

func (c *Client) post(ctx context.Context, action string, form url.Values) (envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return envelope{}, fmt.Errorf("sheets: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(action, req)
}

func (c *Client) do(action string, req *http.Request) (env envelope, err error) {
	start := c.now()
	defer func() {
		if c.observer != nil {
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			c.observer.ObserveCall(action, outcome, time.Since(start))
		}
	}()

	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("sheets %s: %w: %w", action, ErrRemote, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return envelope{}, fmt.Errorf("sheets %s: read body: %w: %w", action, ErrRemote, err)
	}
	if resp.StatusCode >= 400 {
		return envelope{}, &RemoteError{Action: action, Status: resp.StatusCode, Message: snippet(body)}
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&env); err != nil {
		return envelope{}, &RemoteError{Action: action, Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return envelope{}, &RemoteError{Action: action, Status: resp.StatusCode, Message: msg}
	}
	return env, nil
}

func rowForm(action, sheet string, row []any) (url.Values, error) {
	payload, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("sheets: encode row: %w", err)
	}
	form := url.Values{}
	form.Set("action", action)
	form.Set("sheetName", sheet)
	form.Set("rowData", string(payload))
	return form, nil
}

// rawScalar renders a JSON string or number as text.
func rawScalar(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
