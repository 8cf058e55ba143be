package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/mschachner/drop-in/internal/errs"
	"github.com/mschachner/drop-in/internal/model"
)

// CalendarRepo implements CalendarRepository using PostgreSQL.
type CalendarRepo struct{ db *DB }

// NewCalendarRepo constructs a calendar repository.
func NewCalendarRepo(db *DB) *CalendarRepo { return &CalendarRepo{db: db} }

// Create inserts a calendar row. The primary key makes concurrent creates race-free.
func (r *CalendarRepo) Create(ctx context.Context, c *model.Calendar) error {
	const q = `
INSERT INTO calendars (calendar_id, default_color, default_dark_mode)
VALUES ($1, $2, $3)
RETURNING created_at`
	err := r.db.Pool.QueryRow(ctx, q, c.ID, c.DefaultColor, c.DefaultDarkMode).Scan(&c.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Ensure inserts the calendar unless a row with that id exists.
func (r *CalendarRepo) Ensure(ctx context.Context, c *model.Calendar) (bool, error) {
	const q = `
INSERT INTO calendars (calendar_id, default_color, default_dark_mode)
VALUES ($1, $2, $3)
ON CONFLICT (calendar_id) DO NOTHING`
	tag, err := r.db.Pool.Exec(ctx, q, c.ID, c.DefaultColor, c.DefaultDarkMode)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Get selects a calendar by id.
func (r *CalendarRepo) Get(ctx context.Context, id string) (*model.Calendar, error) {
	const q = `
SELECT calendar_id, default_color, default_dark_mode, created_at
FROM calendars WHERE calendar_id=$1`
	var c model.Calendar
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.DefaultColor, &c.DefaultDarkMode, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns all calendars sorted by id.
func (r *CalendarRepo) List(ctx context.Context) ([]model.Calendar, error) {
	const q = `
SELECT calendar_id, default_color, default_dark_mode, created_at
FROM calendars ORDER BY calendar_id ASC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Calendar{}
	for rows.Next() {
		var c model.Calendar
		if err = rows.Scan(&c.ID, &c.DefaultColor, &c.DefaultDarkMode, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes the registry row. Availabilities are left to the caller.
func (r *CalendarRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM calendars WHERE calendar_id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
