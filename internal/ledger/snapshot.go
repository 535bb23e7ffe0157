package ledger

import (
	"sync"
	"time"
)

// maxMemoViews bounds the memoized views held by one snapshot.
const maxMemoViews = 64

// View is a filtered section of a snapshot with its totals.
type View struct {
	Section Section      `json:"section"`
	Records []Record     `json:"records"`
	Summary SummaryStats `json:"summary"`
}

// Snapshot is one immutable load of the ledger. Filtered views are memoized
// per section and spec, up to maxMemoViews at a time; a fresh load replaces the
// snapshot as a whole.
type Snapshot struct {
	Partition
	LoadedAt time.Time

	filter Filter
	mu     sync.Mutex
	memo   map[string]View
}

// NewSnapshot wraps a partition.
func NewSnapshot(p Partition, filter Filter, loadedAt time.Time) *Snapshot {
	return &Snapshot{Partition: p, LoadedAt: loadedAt, filter: filter, memo: make(map[string]View)}
}

// View returns the filtered records of section with aggregates.
func (s *Snapshot) View(section Section, spec FilterSpec) View {
	key := string(section) + "\x00" + spec.Key(s.filter.Loc)
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.memo[key]; ok {
		return v
	}
	records := s.filter.Apply(s.Section(section), spec)
	v := View{Section: section, Records: records, Summary: Aggregate(records)}
	if len(s.memo) >= maxMemoViews {
		clear(s.memo)
	}
	s.memo[key] = v
	return v
}
