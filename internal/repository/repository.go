// Package repository defines storage interfaces implemented by concrete backends.
//
// Every availability operation takes the calendar id explicitly; there is no
// query path that crosses calendars.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/mschachner/drop-in/internal/model"
)

// CalendarRepository provides access to the calendar registry.
type CalendarRepository interface {
	// Create inserts a calendar; a taken id yields errs.ErrAlreadyExists.
	Create(ctx context.Context, c *model.Calendar) error
	// Ensure inserts the calendar unless it already exists. Reports whether it was created.
	Ensure(ctx context.Context, c *model.Calendar) (bool, error)
	// Get loads a calendar by id.
	Get(ctx context.Context, id string) (*model.Calendar, error)
	// List returns all calendars ordered by id.
	List(ctx context.Context) ([]model.Calendar, error)
	// Delete removes the registry row only.
	Delete(ctx context.Context, id string) error
}

// AvailabilityRepository stores availabilities partitioned by calendar id.
type AvailabilityRepository interface {
	// List returns all records of a calendar ordered by date.
	List(ctx context.Context, calendarID string) ([]model.Availability, error)
	// Get loads one record of a calendar.
	Get(ctx context.Context, calendarID string, id uuid.UUID) (*model.Availability, error)
	// Create inserts a new record and fills CreatedAt.
	Create(ctx context.Context, a *model.Availability) error
	// Update applies the non-nil patch fields and returns the new state.
	Update(ctx context.Context, calendarID string, id uuid.UUID, p model.AvailabilityPatch) (*model.Availability, error)
	// Delete removes one record.
	Delete(ctx context.Context, calendarID string, id uuid.UUID) error
	// DeleteByCalendar removes every record of a calendar and reports how many went.
	DeleteByCalendar(ctx context.Context, calendarID string) (int64, error)
}

// MembershipRepository mutates joiner sets with single atomic statements.
type MembershipRepository interface {
	// AddJoiner adds name unless present and returns the new state.
	AddJoiner(ctx context.Context, calendarID string, id uuid.UUID, name string) (*model.Availability, error)
	// RemoveJoiner removes name if present and returns the new state.
	RemoveJoiner(ctx context.Context, calendarID string, id uuid.UUID, name string) (*model.Availability, error)
	// ToggleJoiner flips membership of name and reports whether name is now a joiner.
	ToggleJoiner(ctx context.Context, calendarID string, id uuid.UUID, name string) (*model.Availability, bool, error)
}
