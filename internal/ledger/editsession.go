package ledger

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotSelected is returned when editing a record that is not selected.
	ErrNotSelected = errors.New("ledger: record not selected for editing")
	// ErrUnknownRecord is returned for ids absent from the session's section.
	ErrUnknownRecord = errors.New("ledger: unknown record")
	// ErrUnknownField is returned by SetField for non-editable fields.
	ErrUnknownField = errors.New("ledger: unknown or read-only field")
	// ErrSessionNotFound is returned by the session store.
	ErrSessionNotFound = errors.New("ledger: edit session not found")
)

// Session tracks records selected for inline editing and their working
// copies. Selection order is kept so batches are written in that order.
type Session struct {
	id string

	mu       sync.Mutex
	snapshot *Snapshot
	section  Section
	order    []int
	working  map[int]*Record
	stamp    string
	touched  time.Time
}

func newSession(snapshot *Snapshot, section Section) *Session {
	return &Session{
		id:       uuid.NewString(),
		snapshot: snapshot,
		section:  section,
		working:  make(map[int]*Record),
		touched:  time.Now(),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Section() Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.section
}

// Select seeds a working copy from the snapshot. Selecting twice is a no-op.
func (s *Session) Select(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = time.Now()
	if _, ok := s.working[id]; ok {
		return nil
	}
	rec, ok := s.find(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownRecord, id)
	}
	s.working[id] = &rec
	s.order = append(s.order, id)
	return nil
}

// SelectAll selects every id or none: an unknown id leaves the session
// unchanged.
func (s *Session) SelectAll(ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = time.Now()
	seeds := make([]Record, 0, len(ids))
	for _, id := range ids {
		rec, ok := s.find(id)
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownRecord, id)
		}
		seeds = append(seeds, rec)
	}
	for _, rec := range seeds {
		if _, ok := s.working[rec.ID]; ok {
			continue
		}
		rec := rec
		s.working[rec.ID] = &rec
		s.order = append(s.order, rec.ID)
	}
	return nil
}

// Deselect drops the working copy for id.
func (s *Session) Deselect(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = time.Now()
	s.drop(id)
}

// SetField merges one field into the working copy of a selected record.
// Quantity fields use lenient integer coercion; derived fields are recomputed.
func (s *Session) SetField(id int, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = time.Now()
	rec, ok := s.working[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotSelected, id)
	}
	if err := setField(rec, field, value); err != nil {
		return err
	}
	rec.Recompute()
	return nil
}

// SetUpload replaces the attachment slot of a selected record.
func (s *Session) SetUpload(id int, u UploadState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = time.Now()
	rec, ok := s.working[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotSelected, id)
	}
	rec.Upload = u
	return nil
}

// Clear discards all selections and working copies.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// SwitchSection moves the session to another partition, clearing it.
func (s *Session) SwitchSection(section Section) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.section = section
	s.clearLocked()
}

// Rebase clears the session and points it at a newer snapshot.
func (s *Session) Rebase(snapshot *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	s.clearLocked()
}

// Selected returns copies of the working records in selection order.
func (s *Session) Selected() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.working[id])
	}
	return out
}

// Len is the number of selected records.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Stamp returns the batch stamp, creating one on first use. The stamp stays
// fixed until the session is cleared so retries reuse it.
func (s *Session) Stamp(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stamp == "" {
		s.stamp = now.UTC().Format("20060102T150405.000")
	}
	return s.stamp
}

// replace swaps the working copy of id, used when uploads resolve.
func (s *Session) replace(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.working[rec.ID]; ok {
		*cur = rec
	}
}

func (s *Session) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *Session) find(id int) (Record, bool) {
	if s.snapshot == nil {
		return Record{}, false
	}
	for _, r := range s.snapshot.Section(s.section) {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

func (s *Session) drop(id int) {
	if _, ok := s.working[id]; !ok {
		return
	}
	delete(s.working, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Session) clearLocked() {
	s.order = nil
	s.working = make(map[int]*Record)
	s.stamp = ""
	s.touched = time.Now()
}

func setField(rec *Record, field, value string) error {
	str := strings.TrimSpace(value)
	switch field {
	case "timestamp":
		rec.Timestamp = str
	case "serialNo":
		rec.SerialNo = str
	case "inventoryNo":
		rec.InventoryNo = str
	case "inventoryType":
		rec.InventoryType = str
	case "department":
		rec.Department = str
	case "itemsName":
		rec.ItemsName = str
	case "foodName":
		rec.FoodName = str
	case "unit":
		rec.Unit = str
	case "partyName":
		rec.PartyName = str
	case "remarks":
		rec.Remarks = str
	case "entryKind":
		rec.EntryKind = str
	case "receiveDate":
		rec.ReceiveDate = str
	case "eventDate":
		rec.EventDate = str
	case "openingBalance":
		rec.OpeningBalance = leadingInt(str)
	case "purchaseData":
		rec.PurchaseData = leadingInt(str)
	case "issueData":
		rec.IssueData = leadingInt(str)
	case "returnData":
		rec.ReturnData = leadingInt(str)
	case "damageItems":
		rec.DamageItems = leadingInt(str)
	case "missingItems":
		rec.MissingItems = leadingInt(str)
	case "perUnitPrice":
		rec.PerUnitPrice = leadingInt(str)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// SessionStore keeps edit sessions by id and expires idle ones.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
}

// NewSessionStore constructs a store. idle <= 0 disables expiry.
func NewSessionStore(idle time.Duration) *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session), idle: idle}
}

// Open starts a session against snapshot.
func (st *SessionStore) Open(snapshot *Snapshot, section Section) *Session {
	s := newSession(snapshot, section)
	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()
	return s
}

// Get returns a live session.
func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close removes a session.
func (st *SessionStore) Close(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Sweep drops sessions idle longer than the configured limit and returns
// how many were removed.
func (st *SessionStore) Sweep(now time.Time) int {
	if st.idle <= 0 {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, s := range st.sessions {
		if now.Sub(s.lastTouched()) > st.idle {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}
