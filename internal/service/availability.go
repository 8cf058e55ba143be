package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mschachner/drop-in/internal/errs"
	"github.com/mschachner/drop-in/internal/model"
	"github.com/mschachner/drop-in/internal/recurrence"
	"github.com/mschachner/drop-in/internal/repository"
)

// MaxWindowDays bounds server-side expansion requests.
const MaxWindowDays = 31

// AvailabilityService defines calendar-scoped operations over availabilities.
type AvailabilityService interface {
	// List returns the stored records of the session calendar.
	List(ctx context.Context, sess model.Session) ([]model.Availability, error)
	// Get returns one record of the session calendar.
	Get(ctx context.Context, sess model.Session, id uuid.UUID) (*model.Availability, error)
	// Create validates and stores a new record.
	Create(ctx context.Context, sess model.Session, a model.Availability) (*model.Availability, error)
	// Update applies an allow-listed patch.
	Update(ctx context.Context, sess model.Session, id uuid.UUID, p model.AvailabilityPatch) (*model.Availability, error)
	// Delete removes one record.
	Delete(ctx context.Context, sess model.Session, id uuid.UUID) error
	// Occurrences expands the calendar over a window of days starting at start.
	Occurrences(ctx context.Context, sess model.Session, start time.Time, days int) ([]model.Occurrence, error)
}

type AvailabilityServiceImpl struct {
	repo   repository.AvailabilityRepository
	policy Policy
	now    func() time.Time
}

// NewAvailabilityService constructs AvailabilityService.
func NewAvailabilityService(repo repository.AvailabilityRepository, policy Policy) *AvailabilityServiceImpl {
	return &AvailabilityServiceImpl{repo: repo, policy: policy, now: time.Now}
}

// List returns all records of the session calendar.
func (s *AvailabilityServiceImpl) List(ctx context.Context, sess model.Session) ([]model.Availability, error) {
	return s.repo.List(ctx, sess.Calendar())
}

// Get returns one record.
func (s *AvailabilityServiceImpl) Get(ctx context.Context, sess model.Session, id uuid.UUID) (*model.Availability, error) {
	return s.repo.Get(ctx, sess.Calendar(), id)
}

// Create fills defaults, validates and stores the record.
// An explicit calendar id on the record wins over the session calendar.
// A zero date means "now". Joiners always start empty.
func (s *AvailabilityServiceImpl) Create(ctx context.Context, sess model.Session, a model.Availability) (*model.Availability, error) {
	if a.CalendarID == "" {
		a.CalendarID = sess.Calendar()
	}
	a.Normalize()
	a.Joiners = []string{}
	if a.Date.IsZero() {
		a.Date = s.now()
	}
	if err := model.Validate(a); err != nil {
		return nil, err
	}
	if err := s.policy.actAs(sess, a.Name); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	a.ID = id
	if err := s.repo.Create(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Update validates the patch before touching storage. An empty patch returns the current record.
func (s *AvailabilityServiceImpl) Update(
	ctx context.Context, sess model.Session, id uuid.UUID, p model.AvailabilityPatch,
) (*model.Availability, error) {
	p.Normalize()
	if err := model.Validate(p); err != nil {
		return nil, err
	}
	cal := sess.Calendar()
	if s.policy.EnforceIdentity || p.Empty() {
		cur, err := s.repo.Get(ctx, cal, id)
		if err != nil {
			return nil, err
		}
		if err := s.policy.actAs(sess, cur.Name); err != nil {
			return nil, err
		}
		if p.Empty() {
			return cur, nil
		}
	}
	return s.repo.Update(ctx, cal, id, p)
}

// Delete removes one record; a missing record is errs.ErrNotFound.
func (s *AvailabilityServiceImpl) Delete(ctx context.Context, sess model.Session, id uuid.UUID) error {
	cal := sess.Calendar()
	if s.policy.EnforceIdentity {
		cur, err := s.repo.Get(ctx, cal, id)
		if err != nil {
			return err
		}
		if err := s.policy.actAs(sess, cur.Name); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, cal, id)
}

// Occurrences loads the calendar and projects it onto the window. days <= 0 uses the default width.
func (s *AvailabilityServiceImpl) Occurrences(
	ctx context.Context, sess model.Session, start time.Time, days int,
) ([]model.Occurrence, error) {
	if days <= 0 {
		days = recurrence.DefaultWindowDays
	}
	if days > MaxWindowDays {
		return nil, fmt.Errorf("%w: days must be at most %d", errs.ErrValidation, MaxWindowDays)
	}
	if start.IsZero() {
		start = s.now()
	}
	events, err := s.repo.List(ctx, sess.Calendar())
	if err != nil {
		return nil, err
	}
	out := recurrence.Expand(events, start, days)
	if out == nil {
		out = []model.Occurrence{}
	}
	return out, nil
}
