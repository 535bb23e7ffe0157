package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// ErrPersistLookup is returned when an optimistic append could not be
// stored. The in-memory table keeps the new row.
var ErrPersistLookup = errors.New("lookup: failed to persist new option")

// ErrInvalidTuple is returned for appends missing a type or department.
var ErrInvalidTuple = errors.New("lookup: inventory type and department are required")

// Store reads and appends master sheet rows.
type Store interface {
	Fetch(ctx context.Context, sheet string) ([][]any, error)
	AddToMaster(ctx context.Context, sheet string, row []any) error
}

// Service owns the in-memory lookup table.
type Service struct {
	store  Store
	sheet  string
	logger *slog.Logger

	mu    sync.RWMutex
	table Table
}

// NewService constructs a lookup service.
func NewService(store Store, sheet string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, sheet: sheet, logger: logger}
}

// Load replaces the table with a fresh fetch. On failure the old table is
// kept.
func (s *Service) Load(ctx context.Context) (Table, error) {
	raw, err := s.store.Fetch(ctx, s.sheet)
	if err != nil {
		return s.Table(), fmt.Errorf("load lookup: %w", err)
	}
	t := FromRaw(raw)
	s.mu.Lock()
	s.table = t
	s.mu.Unlock()
	return t, nil
}

// Table returns the current table.
func (s *Service) Table() Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// AddDepartment appends (type, department) as a new option.
func (s *Service) AddDepartment(ctx context.Context, inventoryType, department string) (Table, error) {
	return s.add(ctx, Tuple(strings.TrimSpace(inventoryType), strings.TrimSpace(department), "", ""))
}

// AddItem appends (type, department, item) as a new option.
func (s *Service) AddItem(ctx context.Context, inventoryType, department, item string) (Table, error) {
	return s.add(ctx, Tuple(strings.TrimSpace(inventoryType), strings.TrimSpace(department), "", strings.TrimSpace(item)))
}

// add appends optimistically, then persists. A persist failure is returned
// but the appended row stays in the table.
func (s *Service) add(ctx context.Context, row Row) (Table, error) {
	if row.InventoryType == "" || row.Department == "" {
		return s.Table(), ErrInvalidTuple
	}
	s.mu.Lock()
	if s.table.Contains(row) {
		t := s.table
		s.mu.Unlock()
		return t, nil
	}
	s.table = s.table.AddRow(row)
	t := s.table
	s.mu.Unlock()

	if err := s.store.AddToMaster(ctx, s.sheet, row.Cells()); err != nil {
		s.logger.Warn("lookup append not persisted",
			slog.String("inventory_type", row.InventoryType),
			slog.String("department", row.Department),
			slog.String("item", row.ItemName),
			slog.Any("error", err))
		return t, fmt.Errorf("%w: %w", ErrPersistLookup, err)
	}
	return t, nil
}
