package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/stockledger/internal/jobs"
	"github.com/odyssey-erp/stockledger/internal/ledger"
)

// LedgerLoader reloads the ledger from the store.
type LedgerLoader interface {
	Load(ctx context.Context) (*ledger.Snapshot, error)
}

// LowStockItem is one finding of a scan.
type LowStockItem struct {
	InventoryNo string `json:"inventory_no"`
	ItemsName   string `json:"items_name"`
	Department  string `json:"department"`
	Closing     int64  `json:"closing"`
}

// LowStockScanner implements TaskLowStockScan.
type LowStockScanner struct {
	loader  LedgerLoader
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewLowStockScanner constructs the scanner.
func NewLowStockScanner(loader LedgerLoader, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &LowStockScanner{loader: loader, logger: logger, metrics: metrics}
}

// Scan loads the ledger and returns named pending items under the low stock
// threshold, lowest closing balance first.
func (s *LowStockScanner) Scan(ctx context.Context) ([]LowStockItem, error) {
	snap, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("low stock scan: %w", err)
	}
	var out []LowStockItem
	for _, r := range snap.Pending {
		if r.ItemsName == "" || ledger.Status(r) != ledger.StockLow {
			continue
		}
		out = append(out, LowStockItem{
			InventoryNo: r.InventoryNo,
			ItemsName:   r.ItemsName,
			Department:  r.Department,
			Closing:     ledger.Closing(r),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Closing < out[j].Closing })
	return out, nil
}

// Handle processes TaskLowStockScan tasks.
func (s *LowStockScanner) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", asynq.SkipRetry)
	}
	tracker := s.metrics.Track(TaskLowStockScan)
	items, err := s.Scan(ctx)
	if err != nil {
		return tracker.End(err)
	}
	for _, item := range items {
		s.logger.Warn("low stock",
			slog.String("inventory_no", item.InventoryNo),
			slog.String("item", item.ItemsName),
			slog.String("department", item.Department),
			slog.Int64("closing", item.Closing))
	}
	s.metrics.SetLowStock(len(items))
	s.logger.Info("low stock scan finished", slog.Int("low_items", len(items)), slog.String("reason", payload.Reason))
	return tracker.End(nil)
}
