package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/mschachner/drop-in/internal/errs"
	"github.com/mschachner/drop-in/internal/model"
)

const availabilityColumns = `id, calendar_id, date, time_slot, location, name, color, icon, recurring, section, joiners, created_at`

// AvailabilityRepo implements AvailabilityRepository and MembershipRepository using PostgreSQL.
// Every statement is scoped by calendar_id.
type AvailabilityRepo struct{ db *DB }

// NewAvailabilityRepo constructs an availability repository.
func NewAvailabilityRepo(db *DB) *AvailabilityRepo { return &AvailabilityRepo{db: db} }

func scanAvailability(row pgx.Row, extra ...any) (*model.Availability, error) {
	var (
		a       model.Availability
		section string
	)
	dest := []any{
		&a.ID, &a.CalendarID, &a.Date, &a.TimeSlot, &a.Location, &a.Name,
		&a.Color, &a.Icon, &a.Recurring, &section, &a.Joiners, &a.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	a.Section = model.Section(section)
	if a.Joiners == nil {
		a.Joiners = []string{}
	}
	return &a, nil
}

// List returns a calendar's records ordered by anchor date.
func (r *AvailabilityRepo) List(ctx context.Context, calendarID string) ([]model.Availability, error) {
	const q = `
SELECT ` + availabilityColumns + `
FROM availabilities
WHERE calendar_id=$1
ORDER BY date ASC, created_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, calendarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Availability{}
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Get returns one record of the calendar.
func (r *AvailabilityRepo) Get(ctx context.Context, calendarID string, id uuid.UUID) (*model.Availability, error) {
	const q = `
SELECT ` + availabilityColumns + `
FROM availabilities WHERE calendar_id=$1 AND id=$2`
	return scanAvailability(r.db.Pool.QueryRow(ctx, q, calendarID, id))
}

// Create inserts a record and fills CreatedAt from the database.
func (r *AvailabilityRepo) Create(ctx context.Context, a *model.Availability) error {
	const q = `
INSERT INTO availabilities (id, calendar_id, date, time_slot, location, name, color, icon, recurring, section, joiners)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING created_at`
	joiners := a.Joiners
	if joiners == nil {
		joiners = []string{}
	}
	err := r.db.Pool.QueryRow(ctx, q,
		a.ID, a.CalendarID, a.Date, a.TimeSlot, a.Location, a.Name,
		a.Color, a.Icon, a.Recurring, string(a.Section), joiners,
	).Scan(&a.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Update applies the present patch fields in one statement.
func (r *AvailabilityRepo) Update(
	ctx context.Context, calendarID string, id uuid.UUID, p model.AvailabilityPatch,
) (*model.Availability, error) {
	const q = `
UPDATE availabilities SET
  time_slot = COALESCE($3, time_slot),
  location = COALESCE($4, location),
  icon = COALESCE($5, icon),
  recurring = COALESCE($6, recurring),
  section = COALESCE($7, section)
WHERE calendar_id=$1 AND id=$2
RETURNING ` + availabilityColumns
	var section *string
	if p.Section != nil {
		s := string(*p.Section)
		section = &s
	}
	row := r.db.Pool.QueryRow(ctx, q, calendarID, id, p.TimeSlot, p.Location, p.Icon, p.Recurring, section)
	return scanAvailability(row)
}

// Delete removes one record of the calendar.
func (r *AvailabilityRepo) Delete(ctx context.Context, calendarID string, id uuid.UUID) error {
	const q = `DELETE FROM availabilities WHERE calendar_id=$1 AND id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, calendarID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// DeleteByCalendar bulk deletes a calendar's records.
func (r *AvailabilityRepo) DeleteByCalendar(ctx context.Context, calendarID string) (int64, error) {
	const q = `DELETE FROM availabilities WHERE calendar_id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, calendarID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// AddJoiner appends name to the joiner set unless it is already there.
// The membership test and the write happen in the same UPDATE, under the row lock.
func (r *AvailabilityRepo) AddJoiner(
	ctx context.Context, calendarID string, id uuid.UUID, name string,
) (*model.Availability, error) {
	const q = `
UPDATE availabilities
SET joiners = CASE WHEN $3::text = ANY(joiners) THEN joiners ELSE array_append(joiners, $3::text) END
WHERE calendar_id=$1 AND id=$2
RETURNING ` + availabilityColumns
	return scanAvailability(r.db.Pool.QueryRow(ctx, q, calendarID, id, name))
}

// RemoveJoiner drops name from the joiner set; absent names are a no-op.
func (r *AvailabilityRepo) RemoveJoiner(
	ctx context.Context, calendarID string, id uuid.UUID, name string,
) (*model.Availability, error) {
	const q = `
UPDATE availabilities
SET joiners = array_remove(joiners, $3::text)
WHERE calendar_id=$1 AND id=$2
RETURNING ` + availabilityColumns
	return scanAvailability(r.db.Pool.QueryRow(ctx, q, calendarID, id, name))
}

// ToggleJoiner flips membership of name and reports the resulting membership.
func (r *AvailabilityRepo) ToggleJoiner(
	ctx context.Context, calendarID string, id uuid.UUID, name string,
) (*model.Availability, bool, error) {
	const q = `
UPDATE availabilities
SET joiners = CASE WHEN $3::text = ANY(joiners) THEN array_remove(joiners, $3::text) ELSE array_append(joiners, $3::text) END
WHERE calendar_id=$1 AND id=$2
RETURNING ` + availabilityColumns + `, $3::text = ANY(joiners) AS joined`
	var joined bool
	a, err := scanAvailability(r.db.Pool.QueryRow(ctx, q, calendarID, id, name), &joined)
	if err != nil {
		return nil, false, err
	}
	return a, joined, nil
}
