package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/mschachner/drop-in/internal/errs"
	"github.com/mschachner/drop-in/internal/model"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var availabilityCols = []string{
	"id", "calendar_id", "date", "time_slot", "location", "name",
	"color", "icon", "recurring", "section", "joiners", "created_at",
}

func availabilityRow(id uuid.UUID, cal string, joiners []string) *pgxmock.Rows {
	date := time.Date(2024, time.January, 1, 14, 0, 0, 0, time.UTC)
	return pgxmock.NewRows(availabilityCols).
		AddRow(id, cal, date, "2-4pm", "Library", "Ann", "#66BB6A", "", true, "evening", joiners, date)
}

func TestAvailabilityRepo_List_ScopedByCalendar(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAvailabilityRepo(db)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`FROM availabilities WHERE calendar_id=\$1 ORDER BY date ASC, created_at ASC`).
		WithArgs("team").
		WillReturnRows(availabilityRow(id, "team", []string{"Bo"}))

	out, err := r.List(context.Background(), "team")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, id, out[0].ID)
	require.Equal(t, "team", out[0].CalendarID)
	require.Equal(t, model.SectionEvening, out[0].Section)
	require.Equal(t, []string{"Bo"}, out[0].Joiners)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepo_Get_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAvailabilityRepo(db)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`FROM availabilities WHERE calendar_id=\$1 AND id=\$2`).
		WithArgs("other", id).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.Get(context.Background(), "other", id)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAvailabilityRepo_Get_NilJoinersBecomeEmpty(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAvailabilityRepo(db)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`FROM availabilities WHERE calendar_id=\$1 AND id=\$2`).
		WithArgs("Default", id).
		WillReturnRows(availabilityRow(id, "Default", nil))

	a, err := r.Get(context.Background(), "Default", id)
	require.NoError(t, err)
	require.NotNil(t, a.Joiners)
	require.Empty(t, a.Joiners)
}

func TestAvailabilityRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAvailabilityRepo(db)

	a := &model.Availability{
		ID:         uuid.Must(uuid.NewV4()),
		CalendarID: "Default",
		Date:       time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC),
		TimeSlot:   "9am",
		Location:   "Cafe",
		Name:       "Ann",
		Section:    model.SectionDay,
	}
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO availabilities \(id, calendar_id, date, time_slot, location, name, color, icon, recurring, section, joiners\)`).
		WithArgs(a.ID, "Default", a.Date, "9am", "Cafe", "Ann", "", "", false, "day", []string{}).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	require.NoError(t, r.Create(context.Background(), a))
	require.Equal(t, now, a.CreatedAt)
}

func TestAvailabilityRepo_Update_PatchesPresentFields(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAvailabilityRepo(db)
	id := uuid.Must(uuid.NewV4())

	slot := "5-7pm"
	evening := model.SectionEvening
	sectionArg := "evening"
	mock.ExpectQuery(`UPDATE availabilities SET time_slot = COALESCE\(\$3, time_slot\), .* section = COALESCE\(\$7, section\) WHERE calendar_id=\$1 AND id=\$2 RETURNING`).
		WithArgs("Default", id, &slot, (*string)(nil), (*string)(nil), (*bool)(nil), &sectionArg).
		WillReturnRows(availabilityRow(id, "Default", []string{}))

	a, err := r.Update(context.Background(), "Default", id, model.AvailabilityPatch{TimeSlot: &slot, Section: &evening})
	require.NoError(t, err)
	require.Equal(t, id, a.ID)
}

func TestAvailabilityRepo_Update_Missing(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAvailabilityRepo(db)
	id := uuid.Must(uuid.NewV4())

	rec := true
	mock.ExpectQuery(`UPDATE availabilities SET`).
		WithArgs("Default", id, (*string)(nil), (*string)(nil), (*string)(nil), &rec, (*string)(nil)).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.Update(context.Background(), "Default", id, model.AvailabilityPatch{Recurring: &rec})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAvailabilityRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAvailabilityRepo(db)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM availabilities WHERE calendar_id=\$1 AND id=\$2`).
		WithArgs("Default", id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM availabilities WHERE calendar_id=\$1 AND id=\$2`).
		WithArgs("Default", id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, r.Delete(context.Background(), "Default", id))
	require.ErrorIs(t, r.Delete(context.Background(), "Default", id), errs.ErrNotFound)
}

func TestAvailabilityRepo_DeleteByCalendar(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAvailabilityRepo(db)

	mock.ExpectExec(`DELETE FROM availabilities WHERE calendar_id=\$1`).
		WithArgs("team").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := r.DeleteByCalendar(context.Background(), "team")
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}

func TestAvailabilityRepo_AddJoiner_SingleConditionalUpdate(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAvailabilityRepo(db)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`UPDATE availabilities SET joiners = CASE WHEN \$3::text = ANY\(joiners\) THEN joiners ELSE array_append\(joiners, \$3::text\) END WHERE calendar_id=\$1 AND id=\$2 RETURNING`).
		WithArgs("Default", id, "Bo").
		WillReturnRows(availabilityRow(id, "Default", []string{"Ann", "Bo"}))

	a, err := r.AddJoiner(context.Background(), "Default", id, "Bo")
	require.NoError(t, err)
	require.Equal(t, []string{"Ann", "Bo"}, a.Joiners)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepo_AddJoiner_WrongCalendar(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAvailabilityRepo(db)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`array_append`).
		WithArgs("other", id, "Bo").
		WillReturnError(pgx.ErrNoRows)

	_, err := r.AddJoiner(context.Background(), "other", id, "Bo")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAvailabilityRepo_RemoveJoiner(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAvailabilityRepo(db)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`UPDATE availabilities SET joiners = array_remove\(joiners, \$3::text\) WHERE calendar_id=\$1 AND id=\$2`).
		WithArgs("Default", id, "Bo").
		WillReturnRows(availabilityRow(id, "Default", []string{}))

	a, err := r.RemoveJoiner(context.Background(), "Default", id, "Bo")
	require.NoError(t, err)
	require.Empty(t, a.Joiners)
}

func TestAvailabilityRepo_ToggleJoiner(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAvailabilityRepo(db)
	id := uuid.Must(uuid.NewV4())
	date := time.Date(2024, time.January, 1, 14, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`THEN array_remove\(joiners, \$3::text\) ELSE array_append\(joiners, \$3::text\) END .* AS joined`).
		WithArgs("Default", id, "Bo").
		WillReturnRows(pgxmock.NewRows(append(availabilityCols, "joined")).
			AddRow(id, "Default", date, "2-4pm", "Library", "Ann", "", "", false, "day", []string{"Bo"}, date, true))

	a, joined, err := r.ToggleJoiner(context.Background(), "Default", id, "Bo")
	require.NoError(t, err)
	require.True(t, joined)
	require.Equal(t, []string{"Bo"}, a.Joiners)
}
