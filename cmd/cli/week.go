package main

import (
	"fmt"
	"io"
	"time"

	"github.com/mschachner/drop-in/internal/ical"
	"github.com/mschachner/drop-in/internal/model"
	"github.com/mschachner/drop-in/internal/recurrence"
)

// renderWeek prints one block per day of the window, day section before evening.
// Events the viewer joined are marked with a check.
func renderWeek(w io.Writer, occ []model.Occurrence, from time.Time, days int, viewer string) {
	byDay := map[string][]model.Occurrence{}
	for _, o := range occ {
		k := o.Day.Format(time.DateOnly)
		byDay[k] = append(byDay[k], o)
	}

	start := recurrence.Midnight(from)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		fmt.Fprintf(w, "%s %s\n", day.Format("Mon"), day.Format(time.DateOnly))
		list := byDay[day.Format(time.DateOnly)]
		if len(list) == 0 {
			fmt.Fprintln(w, "  -")
			continue
		}
		for _, section := range []model.Section{model.SectionDay, model.SectionEvening} {
			for _, o := range list {
				if o.Event.Section != section {
					continue
				}
				fmt.Fprintf(w, "  %s %-7s %s", mark(o, viewer), section, ical.Summary(o.Event))
				if o.Event.Recurring {
					fmt.Fprint(w, " weekly")
				}
				if j := ical.FormatJoiners(o.Event.Joiners); j != "" {
					fmt.Fprintf(w, " - %s", j)
				}
				fmt.Fprintf(w, "  [%s]\n", o.Event.ID)
			}
		}
	}
}

func mark(o model.Occurrence, viewer string) string {
	if viewer != "" && o.Event.HasJoiner(viewer) {
		return "✓"
	}
	return " "
}
