package ledger

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// FilterSpec selects records. Zero values mean "not set"; all set predicates
// must hold.
type FilterSpec struct {
	InventoryType string
	Department    string
	PartyName     string
	Search        string
	DateStart     time.Time
	DateEnd       time.Time
	ExactDate     time.Time
}

func (s FilterSpec) hasDateFilter() bool {
	return !s.DateStart.IsZero() || !s.DateEnd.IsZero() || !s.ExactDate.IsZero()
}

// Key identifies the shape of a spec for memoization. Dates are compared as
// calendar days in loc, the zone the filter matches them in.
func (s FilterSpec) Key(loc *time.Location) string {
	loc = locOrUTC(loc)
	var b strings.Builder
	for _, part := range []string{s.InventoryType, s.Department, s.PartyName, s.Search} {
		b.WriteString(part)
		b.WriteByte(0)
	}
	for _, t := range []time.Time{s.DateStart, s.DateEnd, s.ExactDate} {
		if !t.IsZero() {
			b.WriteString(t.In(loc).Format("2006-01-02"))
		}
		b.WriteByte(0)
	}
	return b.String()
}

// Filter evaluates specs against records. It never mutates its input.
type Filter struct {
	Loc *time.Location
}

// Apply returns the records matching spec, preserving order.
func (f Filter) Apply(records []Record, spec FilterSpec) []Record {
	m := f.matcher(spec)
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if m(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f Filter) matcher(spec FilterSpec) func(Record) bool {
	loc := locOrUTC(f.Loc)
	folder := cases.Fold()
	party := folder.String(strings.TrimSpace(spec.PartyName))
	search := folder.String(strings.TrimSpace(spec.Search))

	var start, end time.Time
	if !spec.DateStart.IsZero() {
		y, m, d := spec.DateStart.In(loc).Date()
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	if !spec.DateEnd.IsZero() {
		y, m, d := spec.DateEnd.In(loc).Date()
		end = time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
	}

	return func(r Record) bool {
		if spec.InventoryType != "" && r.InventoryType != spec.InventoryType {
			return false
		}
		if spec.Department != "" && r.Department != spec.Department {
			return false
		}
		if party != "" && !strings.Contains(folder.String(r.PartyName), party) {
			return false
		}
		if search != "" && !matchesSearch(folder, r, search) {
			return false
		}
		if !spec.hasDateFilter() {
			return true
		}
		day, ok := ParseDate(r.EventDate, loc)
		if !ok {
			return false
		}
		if !spec.ExactDate.IsZero() && !SameDay(day, spec.ExactDate.In(loc)) {
			return false
		}
		if !start.IsZero() && day.Before(start) {
			return false
		}
		if !end.IsZero() && day.After(end) {
			return false
		}
		return true
	}
}

func matchesSearch(folder cases.Caser, r Record, needle string) bool {
	for _, field := range []string{r.ItemsName, r.Department, r.InventoryType, r.PartyName, r.FoodName} {
		if strings.Contains(folder.String(field), needle) {
			return true
		}
	}
	return false
}
