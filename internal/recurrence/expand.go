// Package recurrence projects stored availabilities onto the days of a visibility window.
//
// Only one rule exists: a recurring availability repeats every 7 days, forever, from
// its anchor date at the same wall-clock time. Everything here is pure; callers pass
// the window start explicitly so results are deterministic.
package recurrence

import (
	"slices"
	"sort"
	"time"

	"github.com/mschachner/drop-in/internal/model"
)

// DefaultWindowDays is the width of the window clients show.
const DefaultWindowDays = 7

const (
	secondsPerDay = 24 * 60 * 60
	daysPerWeek   = 7
)

// Window returns the first and last day of a window that starts on now's date.
// Both are midnight in now's location.
func Window(now time.Time, days int) (start, end time.Time) {
	start = Midnight(now)
	return start, start.AddDate(0, 0, days-1)
}

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Expand returns the occurrences of events that fall on one of the windowDays days
// starting at windowStart's date, in windowStart's location. The result is ordered
// by day; occurrences on the same day keep the input order.
//
// A non-recurring event yields itself when its date is inside the window. A recurring
// event yields one occurrence per 7-day step from its anchor that lands in the window,
// never earlier than the anchor. Only the occurrence on the anchor day carries joiners.
func Expand(events []model.Availability, windowStart time.Time, windowDays int) []model.Occurrence {
	if windowDays <= 0 {
		return nil
	}
	loc := windowStart.Location()
	first := civilDay(windowStart)
	last := first + int64(windowDays) - 1

	var out []model.Occurrence
	for _, ev := range events {
		local := ev.Date.In(loc)
		anchor := civilDay(local)

		if !ev.Recurring {
			if anchor >= first && anchor <= last {
				out = append(out, occurrence(ev, local, anchor, true))
			}
			continue
		}

		// jump straight to the first step on or after the window start
		var steps int64
		if anchor < first {
			steps = (first - anchor + daysPerWeek - 1) / daysPerWeek
		}
		for d := anchor + steps*daysPerWeek; d <= last; d += daysPerWeek {
			out = append(out, occurrence(ev, local, d, d == anchor))
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

func occurrence(ev model.Availability, local time.Time, day int64, original bool) model.Occurrence {
	loc := local.Location()
	y, m, d := fromCivil(day)
	o := model.Occurrence{
		Day:      time.Date(y, m, d, 0, 0, 0, 0, loc),
		Original: original,
		Event:    ev,
	}
	if original {
		o.Event.Joiners = slices.Clone(ev.Joiners)
		if o.Event.Joiners == nil {
			o.Event.Joiners = []string{}
		}
	} else {
		o.Event.Date = time.Date(y, m, d, local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), loc)
		o.Event.Joiners = []string{}
	}
	o.Key = Key(ev, o.Day)
	return o
}

// Key builds the composite occurrence key "<id>@<YYYY-MM-DD>".
func Key(ev model.Availability, day time.Time) string {
	return ev.ID.String() + "@" + day.Format(time.DateOnly)
}

// civilDay numbers t's calendar date (in t's location) as days since 1970-01-01.
// Working on civil dates keeps week steps exact across DST changes.
func civilDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

func fromCivil(day int64) (int, time.Month, int) {
	return time.Unix(day*secondsPerDay, 0).UTC().Date()
}
