package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrNotLoaded is returned before the first successful load.
	ErrNotLoaded = errors.New("ledger: not loaded")
	// ErrReadOnlySection is returned when editing history records.
	ErrReadOnlySection = errors.New("ledger: history records are read-only")
	// ErrEmptyBatch is returned when saving a session with no selection.
	ErrEmptyBatch = errors.New("ledger: nothing selected to save")
)

// Store is the remote row store used by the ledger.
type Store interface {
	Fetch(ctx context.Context, sheet string) ([][]any, error)
	Serial(ctx context.Context, sheet string, rowIndex int) (string, error)
	Update(ctx context.Context, sheet string, rowIndex int, row []any) error
	InsertHistory(ctx context.Context, sheet string, row []any, serial string) error
}

// ServiceConfig holds sheet names and limits.
type ServiceConfig struct {
	PendingSheet  string
	HistorySheet  string
	UploadTimeout time.Duration
	LoadTimeout   time.Duration
	Location      *time.Location
}

// SaveResult reports the outcome of a batch save.
type SaveResult struct {
	Committed int       `json:"committed"`
	Skipped   int       `json:"skipped"`
	Snapshot  *Snapshot `json:"-"`
}

// SaveError describes a save that stopped part way. Rows committed before
// the failure are removed from the session; the rest stay selected.
type SaveError struct {
	RecordID  int
	Committed int
	Remaining int
	Err       error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("ledger: save stopped at record %d (%d committed, %d remaining): %v",
		e.RecordID, e.Committed, e.Remaining, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// SaveRecorder counts batch save rows by result.
type SaveRecorder interface {
	AddSaveRows(result string, n int)
}

// Service loads the ledger, serves filtered views and runs batch saves.
type Service struct {
	store    Store
	uploader Uploader
	commits  CommitLog
	sessions *SessionStore
	cfg      ServiceConfig
	mapper   Mapper
	filter   Filter
	logger   *slog.Logger
	recorder SaveRecorder
	now      func() time.Time

	loads   singleflight.Group
	mu      sync.RWMutex
	current *Snapshot
}

// NewService constructs a ledger service.
func NewService(store Store, uploader Uploader, commits CommitLog, sessions *SessionStore, cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = time.Minute
	}
	if commits == nil {
		commits = NewMemoryCommitLog(72 * time.Hour)
	}
	if sessions == nil {
		sessions = NewSessionStore(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		uploader: uploader,
		commits:  commits,
		sessions: sessions,
		cfg:      cfg,
		mapper:   Mapper{Loc: cfg.Location},
		filter:   Filter{Loc: cfg.Location},
		logger:   logger,
		now:      time.Now,
	}
}

// SetRecorder installs a save recorder.
func (s *Service) SetRecorder(r SaveRecorder) { s.recorder = r }

// Sessions exposes the session store.
func (s *Service) Sessions() *SessionStore { return s.sessions }

// Location is the zone used for ledger dates.
func (s *Service) Location() *time.Location { return s.cfg.Location }

// Load fetches both sheets and replaces the current snapshot. Concurrent
// callers share one fetch, which runs detached from any single caller and is
// bounded by LoadTimeout; a caller whose context ends stops waiting without
// failing the others. A failed pending fetch leaves the previous snapshot in
// place; a failed history fetch degrades to an empty set.
func (s *Service) Load(ctx context.Context) (*Snapshot, error) {
	ch := s.loads.DoChan("load", func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.LoadTimeout)
		defer cancel()
		return s.load(loadCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (s *Service) load(ctx context.Context) (*Snapshot, error) {
	var pending, history [][]any
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.store.Fetch(gctx, s.cfg.PendingSheet)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", s.cfg.PendingSheet, err)
		}
		pending = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.store.Fetch(gctx, s.cfg.HistorySheet)
		if err != nil {
			s.logger.Warn("history fetch failed, continuing with empty history",
				slog.String("sheet", s.cfg.HistorySheet), slog.Any("error", err))
			return nil
		}
		history = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := NewSnapshot(s.mapper.Partition(pending, history), s.filter, s.now())
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()
	s.logger.Debug("ledger loaded", slog.Int("pending", len(snap.Pending)), slog.Int("history", len(snap.History)))
	return snap, nil
}

// Current returns the last loaded snapshot, loading once if none exists.
func (s *Service) Current(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	snap := s.current
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	return s.Load(ctx)
}

// View returns a filtered section of the current snapshot.
func (s *Service) View(ctx context.Context, section Section, spec FilterSpec) (View, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return View{}, err
	}
	return snap.View(section, spec), nil
}

// OpenSession starts an edit session on the current snapshot.
func (s *Service) OpenSession(ctx context.Context, section Section) (*Session, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return s.sessions.Open(snap, section), nil
}

// Select adds a record to a session. History records cannot be edited.
func (s *Service) Select(sess *Session, id int) error {
	if sess.Section() == SectionHistory {
		return ErrReadOnlySection
	}
	return sess.Select(id)
}

// SelectAll adds several records to a session, all or none.
func (s *Service) SelectAll(sess *Session, ids []int) error {
	if sess.Section() == SectionHistory {
		return ErrReadOnlySection
	}
	return sess.SelectAll(ids)
}

// Save writes every selected record back to the store, one row at a time:
// read the row's serial, update the pending row, append to history. It stops
// at the first failure. Rows already committed under this session's batch
// stamp are skipped on retry. A fully successful save reloads the ledger and
// clears the session.
func (s *Service) Save(ctx context.Context, sess *Session) (SaveResult, error) {
	if sess.Section() == SectionHistory {
		return SaveResult{}, ErrReadOnlySection
	}
	if sess.Len() == 0 {
		return SaveResult{}, ErrEmptyBatch
	}
	stamp := sess.Stamp(s.now())

	batch, err := BuildBatch(ctx, sess, s.uploader, s.cfg.UploadTimeout)
	if err != nil {
		return SaveResult{}, err
	}

	var result SaveResult
	failed := 0
	defer func() {
		if s.recorder != nil {
			s.recorder.AddSaveRows("committed", result.Committed)
			s.recorder.AddSaveRows("skipped", result.Skipped)
			s.recorder.AddSaveRows("failed", failed)
		}
	}()
	for i, item := range batch {
		key, err := commitKey(sess.ID(), item, stamp)
		if err != nil {
			return result, &SaveError{RecordID: item.Record.ID, Committed: result.Committed, Remaining: len(batch) - i, Err: err}
		}
		seen, err := s.commits.Seen(ctx, key)
		if err != nil {
			return result, &SaveError{RecordID: item.Record.ID, Committed: result.Committed, Remaining: len(batch) - i, Err: err}
		}
		if seen {
			result.Skipped++
			sess.Deselect(item.Record.ID)
			continue
		}
		if err := s.writeRow(ctx, item); err != nil {
			failed++
			s.logger.Error("batch save stopped",
				slog.Int("record_id", item.Record.ID),
				slog.Int("committed", result.Committed),
				slog.Any("error", err))
			return result, &SaveError{RecordID: item.Record.ID, Committed: result.Committed, Remaining: len(batch) - i, Err: err}
		}
		if err := s.commits.Mark(ctx, key); err != nil {
			s.logger.Warn("commit log mark failed", slog.String("key", key), slog.Any("error", err))
		}
		result.Committed++
		sess.Deselect(item.Record.ID)
	}

	snap, err := s.Load(ctx)
	if err != nil {
		s.logger.Warn("reload after save failed", slog.Any("error", err))
		sess.Clear()
		return result, nil
	}
	sess.Rebase(snap)
	result.Snapshot = snap
	return result, nil
}

func (s *Service) writeRow(ctx context.Context, item BatchRow) error {
	rec := item.Record
	serial, err := s.store.Serial(ctx, s.cfg.PendingSheet, rec.SheetRow)
	if err != nil {
		return fmt.Errorf("get serial: %w", err)
	}
	if serial == "" {
		serial = rec.SerialNo
	}
	row := append([]any(nil), item.Row...)
	row[ColTimestamp] = s.now().In(s.cfg.Location).Format(TimestampLayout)
	row[ColSerialNo] = serial
	if err := s.store.Update(ctx, s.cfg.PendingSheet, rec.SheetRow, row); err != nil {
		return fmt.Errorf("update row %d: %w", rec.SheetRow, err)
	}
	if err := s.store.InsertHistory(ctx, s.cfg.HistorySheet, row, serial); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// commitKey identifies one row write within a batch. The row digest makes a
// later edit of an already committed record a new write rather than a retry.
func commitKey(sessionID string, item BatchRow, stamp string) (string, error) {
	ref := item.Record.InventoryNo
	if ref == "" {
		ref = "row" + strconv.Itoa(item.Record.SheetRow)
	}
	body, err := json.Marshal(item.Row)
	if err != nil {
		return "", fmt.Errorf("commit key: %w", err)
	}
	return sessionID + ":" + ref + ":" + stamp + ":" + strconv.FormatUint(xxhash.Sum64(body), 16), nil
}
