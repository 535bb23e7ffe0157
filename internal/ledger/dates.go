package ledger

import (
	"strconv"
	"strings"
	"time"
)

// DisplayLayout is the canonical ledger date format.
const DisplayLayout = "02/01/2006"

// TimestampLayout is used for the entry timestamp column.
const TimestampLayout = "02/01/2006, 15:04"

var genericLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	time.RFC1123,
	time.RFC1123Z,
}

// FormatDate normalizes a date cell to dd/mm/yyyy in loc. Values that already
// contain a slash pass through unchanged, as does anything unparseable.
func FormatDate(value string, loc *time.Location) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	if strings.Contains(v, "/") {
		return value
	}
	t, ok := parseGeneric(v, loc)
	if !ok {
		return value
	}
	return t.In(locOrUTC(loc)).Format(DisplayLayout)
}

// ParseDate reads a ledger date. Slash forms are always day/month/year; a
// trailing time component after the date is ignored. The result is midnight
// in loc.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}
	loc = locOrUTC(loc)
	if strings.Contains(v, "/") {
		return parseDayFirst(v, loc)
	}
	t, ok := parseGeneric(v, loc)
	if !ok {
		return time.Time{}, false
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
}

func parseDayFirst(v string, loc *time.Location) (time.Time, bool) {
	datePart := v
	if i := strings.IndexAny(v, ", T"); i >= 0 {
		datePart = v[:i]
	}
	parts := strings.Split(datePart, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// reject overflow such as 31/02
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func parseGeneric(v string, loc *time.Location) (time.Time, bool) {
	loc = locOrUTC(loc)
	for _, layout := range genericLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, true
		}
	}
	// epoch milliseconds, as serialized by the store for date cells
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil && len(v) >= 11 {
		return time.UnixMilli(ms).In(loc), true
	}
	return time.Time{}, false
}

// SameDay compares calendar days, ignoring time of day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func locOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
