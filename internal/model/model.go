// Package model defines domain entities used by services and repositories.
package model

import (
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

// DefaultCalendarID is the calendar used when a request names none.
const DefaultCalendarID = "Default"

// DefaultCalendarColor is the presentation color assigned to new calendars.
const DefaultCalendarColor = "#66BB6A"

// Section is the part of the day an availability belongs to.
type Section string

// Known sections.
const (
	SectionDay     Section = "day"
	SectionEvening Section = "evening"
)

// Calendar is an isolated namespace of availabilities.
type Calendar struct {
	ID              string `validate:"required,alphanum,max=20"`
	DefaultColor    string `validate:"omitempty,rgbhex"`
	DefaultDarkMode bool
	CreatedAt       time.Time
}

// Availability is a single "I'll be here" slot posted by Name.
type Availability struct {
	ID         uuid.UUID
	CalendarID string    `validate:"required,alphanum,max=20"`
	Date       time.Time // anchor instant; recurring events repeat weekly from here
	TimeSlot   string    `validate:"required,max=100"`
	Location   string    `validate:"required,max=200"`
	Name       string    `validate:"required,max=50"` // author
	Color      string    `validate:"omitempty,rgbhex"`
	Icon       string    `validate:"max=50"`
	Recurring  bool
	Section    Section  `validate:"oneof=day evening"`
	Joiners    []string `validate:"unique,dive,required,max=50"`
	CreatedAt  time.Time
}

// Normalize trims descriptive fields and fills defaults for a new record.
func (a *Availability) Normalize() {
	a.CalendarID = strings.TrimSpace(a.CalendarID)
	if a.CalendarID == "" {
		a.CalendarID = DefaultCalendarID
	}
	a.TimeSlot = strings.TrimSpace(a.TimeSlot)
	a.Location = strings.TrimSpace(a.Location)
	a.Name = strings.TrimSpace(a.Name)
	a.Color = strings.TrimSpace(a.Color)
	a.Icon = strings.TrimSpace(a.Icon)
	if a.Section == "" {
		a.Section = SectionDay
	}
	if a.Joiners == nil {
		a.Joiners = []string{}
	}
}

// HasJoiner reports whether name is in the joiner set.
func (a *Availability) HasJoiner(name string) bool {
	for _, j := range a.Joiners {
		if j == name {
			return true
		}
	}
	return false
}

// AvailabilityPatch lists the fields an update may change. Nil means unchanged.
type AvailabilityPatch struct {
	TimeSlot  *string  `validate:"omitnil,min=1,max=100"`
	Location  *string  `validate:"omitnil,min=1,max=200"`
	Icon      *string  `validate:"omitnil,max=50"`
	Recurring *bool
	Section   *Section `validate:"omitnil,oneof=day evening"`
}

// Normalize trims the string fields that are present.
func (p *AvailabilityPatch) Normalize() {
	for _, s := range []*string{p.TimeSlot, p.Location, p.Icon} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
}

// Empty reports whether the patch changes nothing.
func (p AvailabilityPatch) Empty() bool {
	return p.TimeSlot == nil && p.Location == nil && p.Icon == nil && p.Recurring == nil && p.Section == nil
}

// Occurrence is a concrete appearance of an availability on one day of a window.
// It is derived on demand and never stored.
type Occurrence struct {
	Key      string    // "<id>@<YYYY-MM-DD>"
	Day      time.Time // local midnight of the occurrence date
	Original bool      // Day is the anchor day of Event
	Event    Availability
}

// Session carries the caller's calendar and participant identity for one request.
type Session struct {
	CalendarID  string
	Participant string
	Verified    bool // Participant came from a valid identity token
}

// Calendar returns the session calendar id, or the default one.
func (s Session) Calendar() string {
	if id := strings.TrimSpace(s.CalendarID); id != "" {
		return id
	}
	return DefaultCalendarID
}
