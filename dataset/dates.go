package dataset

import (
	"strconv"
	"strings"
	"time"
)

// LayoutISOWeek is reported by ParseFlexibleDate for YYYY-Www values.
const LayoutISOWeek = "iso-week"

// genericLayouts are tried last, after the explicit vendor forms.
var genericLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"02 Jan 2006",
}

// ParseFlexibleDate parses the date forms that appear in vendor files,
// trying each in a fixed order: YYYY-MM-DD or YYYY/MM/DD, then the
// ISO-week form YYYY-Www, then a short list of generic layouts. The
// first match wins. It reports the layout that matched so callers can
// log which parse path a value took; a false result means "no date",
// which never equality-matches an explicit filter.
func ParseFlexibleDate(value string) (time.Time, string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, "", false
	}

	for _, layout := range []string{"2006-01-02", "2006/01/02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, layout, true
		}
	}

	if len(value) == 8 && strings.EqualFold(value[4:6], "-W") {
		year, yearErr := strconv.Atoi(value[:4])
		week, weekErr := strconv.Atoi(value[6:])
		if yearErr != nil || weekErr != nil || week < 1 || week > 53 {
			return time.Time{}, "", false
		}
		return isoWeekMonday(year, week), LayoutISOWeek, true
	}

	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, layout, true
		}
	}

	return time.Time{}, "", false
}

// isoWeekMonday resolves an ISO week number to its Monday using the
// January-4 anchor: Jan 4 always falls in week one, so the Monday of
// week one is Jan 4 minus (isoWeekday(Jan 4) - 1) days. Downstream
// consumers depend on this exact arithmetic, so it is kept as is
// rather than swapped for a standards-table lookup.
func isoWeekMonday(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday is 7 in ISO numbering
	}
	week1Monday := jan4.AddDate(0, 0, 1-weekday)
	return week1Monday.AddDate(0, 0, (week-1)*7)
}

// SameDate reports whether two parsed dates fall on the same calendar
// day, ignoring any time-of-day component a generic layout carried.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
