// Package convert maps domain models to and from the JSON wire types.
package convert

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mschachner/drop-in/internal/api"
	"github.com/mschachner/drop-in/internal/errs"
	"github.com/mschachner/drop-in/internal/model"
)

// ParseDate accepts RFC 3339 timestamps or bare YYYY-MM-DD dates (midnight in loc).
// An empty string yields the zero time.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: date %q is not RFC 3339 or YYYY-MM-DD", errs.ErrValidation, s)
}

// ToAPIAvailability converts a domain record to its wire form.
func ToAPIAvailability(a model.Availability) api.Availability {
	joiners := a.Joiners
	if joiners == nil {
		joiners = []string{}
	}
	return api.Availability{
		ID:         a.ID.String(),
		CalendarID: a.CalendarID,
		Date:       a.Date,
		TimeSlot:   a.TimeSlot,
		Location:   a.Location,
		Name:       a.Name,
		Color:      a.Color,
		Icon:       a.Icon,
		Recurring:  a.Recurring,
		Section:    string(a.Section),
		Joiners:    joiners,
		CreatedAt:  a.CreatedAt,
	}
}

// ToAPIAvailabilities converts a slice, never returning nil.
func ToAPIAvailabilities(in []model.Availability) []api.Availability {
	out := make([]api.Availability, 0, len(in))
	for _, a := range in {
		out = append(out, ToAPIAvailability(a))
	}
	return out
}

// FromAPIAvailability converts a wire record back to the domain form.
func FromAPIAvailability(in api.Availability) (model.Availability, error) {
	id, err := uuid.FromString(in.ID)
	if err != nil {
		return model.Availability{}, fmt.Errorf("invalid id %q: %w", in.ID, err)
	}
	joiners := in.Joiners
	if joiners == nil {
		joiners = []string{}
	}
	return model.Availability{
		ID:         id,
		CalendarID: in.CalendarID,
		Date:       in.Date,
		TimeSlot:   in.TimeSlot,
		Location:   in.Location,
		Name:       in.Name,
		Color:      in.Color,
		Icon:       in.Icon,
		Recurring:  in.Recurring,
		Section:    model.Section(in.Section),
		Joiners:    joiners,
		CreatedAt:  in.CreatedAt,
	}, nil
}

// FromAPIAvailabilities converts a slice of wire records.
func FromAPIAvailabilities(in []api.Availability) ([]model.Availability, error) {
	out := make([]model.Availability, 0, len(in))
	for i, a := range in {
		m, err := FromAPIAvailability(a)
		if err != nil {
			return nil, fmt.Errorf("availability[%d]: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// FromCreateRequest builds an unsaved record. Bare dates are read in loc.
func FromCreateRequest(in api.CreateAvailabilityRequest, loc *time.Location) (model.Availability, error) {
	date, err := ParseDate(in.Date, loc)
	if err != nil {
		return model.Availability{}, err
	}
	return model.Availability{
		CalendarID: in.CalendarID,
		Date:       date,
		TimeSlot:   in.TimeSlot,
		Location:   in.Location,
		Name:       in.Name,
		Color:      in.Color,
		Icon:       in.Icon,
		Recurring:  in.Recurring,
		Section:    model.Section(strings.TrimSpace(in.Section)),
	}, nil
}

// FromUpdateRequest keeps only the patchable fields.
func FromUpdateRequest(in api.UpdateAvailabilityRequest) model.AvailabilityPatch {
	p := model.AvailabilityPatch{
		TimeSlot:  in.TimeSlot,
		Location:  in.Location,
		Icon:      in.Icon,
		Recurring: in.Recurring,
	}
	if in.Section != nil {
		s := model.Section(strings.TrimSpace(*in.Section))
		p.Section = &s
	}
	return p
}

// ToAPIOccurrences converts expanded occurrences, never returning nil.
func ToAPIOccurrences(in []model.Occurrence) []api.Occurrence {
	out := make([]api.Occurrence, 0, len(in))
	for _, o := range in {
		out = append(out, api.Occurrence{
			Key:      o.Key,
			Day:      o.Day.Format(time.DateOnly),
			Original: o.Original,
			Event:    ToAPIAvailability(o.Event),
		})
	}
	return out
}

// ToAPICalendar converts a registry entry.
func ToAPICalendar(c model.Calendar) api.Calendar {
	return api.Calendar{
		CalendarID:      c.ID,
		DefaultColor:    c.DefaultColor,
		DefaultDarkMode: c.DefaultDarkMode,
		CreatedAt:       c.CreatedAt,
	}
}

// ToAPICalendars converts a slice, never returning nil.
func ToAPICalendars(in []model.Calendar) []api.Calendar {
	out := make([]api.Calendar, 0, len(in))
	for _, c := range in {
		out = append(out, ToAPICalendar(c))
	}
	return out
}

// FromCreateCalendarRequest builds an unsaved calendar.
func FromCreateCalendarRequest(in api.CreateCalendarRequest) model.Calendar {
	return model.Calendar{
		ID:              in.CalendarID,
		DefaultColor:    in.DefaultColor,
		DefaultDarkMode: in.DefaultDarkMode,
	}
}
