package entry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/stockledger/internal/ledger"
	"github.com/odyssey-erp/stockledger/internal/platform/httpx"
)

// ErrUnknownInventoryNo is returned when a purchase or issue references an
// item missing from the pending ledger.
var ErrUnknownInventoryNo = fmt.Errorf("entry: unknown inventory number: %w", httpx.ErrNotFound)

// Store appends rows and hands out inventory numbers.
type Store interface {
	Insert(ctx context.Context, sheet string, row []any) error
	GenerateInventoryNo(ctx context.Context, inventoryType string) (string, error)
}

// StockSource provides the current ledger for item references.
type StockSource interface {
	Current(ctx context.Context) (*ledger.Snapshot, error)
}

// Config holds the target sheet and limits.
type Config struct {
	HistorySheet  string
	UploadTimeout time.Duration
	Location      *time.Location
}

// Result describes an appended entry.
type Result struct {
	Record ledger.Record `json:"record"`
	// Placeholder is set when the store could not assign a number.
	Placeholder bool `json:"placeholder"`
}

// Service runs the entry workflows.
type Service struct {
	store     Store
	uploader  ledger.Uploader
	stock     StockSource
	cfg       Config
	validator *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the entry service.
func NewService(store Store, uploader ledger.Uploader, stock StockSource, cfg Config, logger *slog.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		uploader:  uploader,
		stock:     stock,
		cfg:       cfg,
		validator: newValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

// StockItems lists pending items, optionally of one type, for the item
// picker of the purchase and issue forms.
func (s *Service) StockItems(ctx context.Context, inventoryType string) ([]ledger.Record, error) {
	snap, err := s.stock.Current(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Record, 0, len(snap.Pending))
	for _, r := range snap.Pending {
		if r.InventoryNo == "" {
			continue
		}
		if inventoryType != "" && r.InventoryType != inventoryType {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// AddStock uploads the optional image, obtains an inventory number and
// appends the new item.
func (s *Service) AddStock(ctx context.Context, in AddStock) (Result, error) {
	trimBase(&in.Base)
	if err := validate(s.validator, in); err != nil {
		return Result{}, err
	}

	upload := ledger.NoUpload()
	if in.Image != nil && len(in.Image.Data) > 0 {
		if s.uploader == nil {
			return Result{}, fmt.Errorf("%w: no uploader configured", ledger.ErrUploadFailed)
		}
		uctx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
		url, err := s.uploader.UploadFile(uctx, in.Image.FileName, in.Image.MIMEType, in.Image.Data)
		cancel()
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ledger.ErrUploadFailed, err)
		}
		upload = ledger.RemoteUpload(url)
	}

	no, placeholder := s.inventoryNo(ctx, in.InventoryType)

	rec := in.record(KindAddStock)
	rec.InventoryNo = no
	rec.OpeningBalance = in.OpeningBalance
	rec.ReceiveDate = in.ReceiveDate
	rec.Upload = upload
	if err := s.insert(ctx, &rec); err != nil {
		return Result{}, err
	}
	return Result{Record: rec, Placeholder: placeholder}, nil
}

// Purchase appends a purchase against an existing item.
func (s *Service) Purchase(ctx context.Context, in Purchase) (Result, error) {
	item, err := s.reference(ctx, in.InventoryNo)
	if err != nil {
		return Result{}, err
	}
	in.prefill(item)
	trimBase(&in.Base)
	if err := validate(s.validator, in); err != nil {
		return Result{}, err
	}

	rec := in.record(KindPurchase)
	rec.InventoryNo = item.InventoryNo
	rec.OpeningBalance = openingOr(in.OpeningBalance, item)
	rec.PurchaseData = in.PurchaseQty
	rec.Upload = item.Upload
	if err := s.insert(ctx, &rec); err != nil {
		return Result{}, err
	}
	return Result{Record: rec}, nil
}

// Issue appends an issue against an existing item.
func (s *Service) Issue(ctx context.Context, in Issue) (Result, error) {
	item, err := s.reference(ctx, in.InventoryNo)
	if err != nil {
		return Result{}, err
	}
	in.prefill(item)
	if in.EventDate == "" {
		in.EventDate = item.EventDate
	}
	trimBase(&in.Base)
	if err := validate(s.validator, in); err != nil {
		return Result{}, err
	}
	if in.IssueQty+in.ReturnQty+in.DamageQty+in.MissingQty == 0 {
		return Result{}, fmt.Errorf("%w: at least one quantity is required", httpx.ErrValidation)
	}

	rec := in.record(KindIssue)
	rec.InventoryNo = item.InventoryNo
	rec.OpeningBalance = openingOr(in.OpeningBalance, item)
	rec.IssueData = in.IssueQty
	rec.ReturnData = in.ReturnQty
	rec.DamageItems = in.DamageQty
	rec.MissingItems = in.MissingQty
	rec.Upload = item.Upload
	if err := s.insert(ctx, &rec); err != nil {
		return Result{}, err
	}
	return Result{Record: rec}, nil
}

func (s *Service) reference(ctx context.Context, inventoryNo string) (ledger.Record, error) {
	inventoryNo = strings.TrimSpace(inventoryNo)
	if inventoryNo == "" {
		return ledger.Record{}, fmt.Errorf("%w: inventoryNo (required)", httpx.ErrValidation)
	}
	snap, err := s.stock.Current(ctx)
	if err != nil {
		return ledger.Record{}, err
	}
	item, ok := snap.ByInventoryNo(inventoryNo)
	if !ok {
		return ledger.Record{}, fmt.Errorf("%w: %s", ErrUnknownInventoryNo, inventoryNo)
	}
	return item, nil
}

// inventoryNo asks the store for a number. The store is authoritative; a
// local placeholder is only used when it cannot be reached.
func (s *Service) inventoryNo(ctx context.Context, inventoryType string) (string, bool) {
	no, err := s.store.GenerateInventoryNo(ctx, inventoryType)
	if err == nil && no != "" {
		return no, false
	}
	if err == nil {
		err = errors.New("empty inventory number")
	}
	placeholder := "TMP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	s.logger.Warn("inventory number unavailable, using placeholder",
		slog.String("inventory_type", inventoryType),
		slog.String("placeholder", placeholder),
		slog.Any("error", err))
	return placeholder, true
}

func (s *Service) insert(ctx context.Context, rec *ledger.Record) error {
	rec.Timestamp = s.now().In(s.cfg.Location).Format(ledger.TimestampLayout)
	rec.Recompute()
	if err := s.store.Insert(ctx, s.cfg.HistorySheet, rec.Row()); err != nil {
		return fmt.Errorf("insert %s entry: %w", rec.EntryKind, err)
	}
	s.logger.Info("entry recorded",
		slog.String("kind", rec.EntryKind),
		slog.String("inventory_no", rec.InventoryNo),
		slog.String("item", rec.ItemsName))
	return nil
}

func openingOr(v *int64, item ledger.Record) int64 {
	if v != nil {
		return *v
	}
	return item.ClosingBalance
}

func trimBase(b *Base) {
	for _, f := range []*string{&b.InventoryType, &b.Department, &b.ItemsName, &b.FoodName, &b.Unit, &b.PartyName, &b.EventDate, &b.Remarks} {
		*f = strings.TrimSpace(*f)
	}
}
