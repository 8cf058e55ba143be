// Package ical renders a calendar's stored availabilities as an iCalendar feed.
package ical

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/mschachner/drop-in/internal/model"
)

const productID = "-//drop-in//availability feed//EN"

// WeeklyRule is the only recurrence rule a stored availability can carry.
func WeeklyRule() string {
	opt := rrule.ROption{Freq: rrule.WEEKLY}
	return opt.RRuleString()
}

// Feed serializes events as all-day VEVENTs on their anchor date in loc.
// Recurring events get a weekly RRULE; joiners are listed in the description.
func Feed(cal model.Calendar, events []model.Availability, loc *time.Location, stamp time.Time) string {
	c := ics.NewCalendar()
	c.SetMethod(ics.MethodPublish)
	c.SetProductId(productID)
	c.SetXWRCalName(cal.ID)
	c.SetXWRTimezone(loc.String())
	if cal.DefaultColor != "" {
		c.SetColor(cal.DefaultColor)
	}

	for _, ev := range events {
		day := ev.Date.In(loc)
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

		e := c.AddEvent(ev.ID.String() + "@" + cal.ID)
		e.SetDtStampTime(stamp.UTC())
		if !ev.CreatedAt.IsZero() {
			e.SetCreatedTime(ev.CreatedAt.UTC())
		}
		e.SetAllDayStartAt(start)
		e.SetAllDayEndAt(start.AddDate(0, 0, 1))
		e.SetSummary(Summary(ev))
		e.SetLocation(ev.Location)
		e.SetDescription(Description(ev))
		if ev.Color != "" {
			e.SetColor(ev.Color)
		}
		if ev.Recurring {
			e.AddRrule(WeeklyRule())
		}
	}
	return c.Serialize()
}

// Summary is the one-line title of an event.
func Summary(ev model.Availability) string {
	return fmt.Sprintf("%s @ %s (%s)", ev.Name, ev.Location, ev.TimeSlot)
}

// Description lists the section and who is joining.
func Description(ev model.Availability) string {
	var b strings.Builder
	b.WriteString(string(ev.Section))
	if j := FormatJoiners(ev.Joiners); j != "" {
		b.WriteString(": ")
		b.WriteString(j)
	}
	return b.String()
}

// FormatJoiners renders names the way people read them:
// "A will join!", "A and B will join!", "A, B, and C will join!".
func FormatJoiners(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0] + " will join!"
	case 2:
		return names[0] + " and " + names[1] + " will join!"
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1] + " will join!"
	}
}
