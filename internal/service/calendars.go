// Package service contains the application services behind the HTTP API.
package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mschachner/drop-in/internal/model"
	"github.com/mschachner/drop-in/internal/repository"
)

// CalendarService manages the calendar registry.
type CalendarService interface {
	// Create registers a new calendar id.
	Create(ctx context.Context, c model.Calendar) (*model.Calendar, error)
	// Get returns one calendar.
	Get(ctx context.Context, id string) (*model.Calendar, error)
	// List returns all calendars sorted by id.
	List(ctx context.Context) ([]model.Calendar, error)
	// Delete removes a calendar and every availability in it.
	Delete(ctx context.Context, id string) error
	// EnsureDefault creates the well-known default calendar if it is missing.
	EnsureDefault(ctx context.Context) error
}

type CalendarServiceImpl struct {
	cals   repository.CalendarRepository
	events repository.AvailabilityRepository
	log    *zap.Logger
}

// NewCalendarService constructs CalendarService.
func NewCalendarService(cals repository.CalendarRepository, events repository.AvailabilityRepository, log *zap.Logger) *CalendarServiceImpl {
	return &CalendarServiceImpl{cals: cals, events: events, log: log}
}

// Create validates the id and presentation defaults, then inserts.
func (s *CalendarServiceImpl) Create(ctx context.Context, c model.Calendar) (*model.Calendar, error) {
	c.ID = strings.TrimSpace(c.ID)
	c.DefaultColor = strings.TrimSpace(c.DefaultColor)
	if c.DefaultColor == "" {
		c.DefaultColor = model.DefaultCalendarColor
	}
	if err := model.Validate(c); err != nil {
		return nil, err
	}
	if err := s.cals.Create(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Get returns one calendar.
func (s *CalendarServiceImpl) Get(ctx context.Context, id string) (*model.Calendar, error) {
	return s.cals.Get(ctx, strings.TrimSpace(id))
}

// List returns all calendars.
func (s *CalendarServiceImpl) List(ctx context.Context) ([]model.Calendar, error) {
	return s.cals.List(ctx)
}

// Delete removes the registry row first and then bulk deletes the calendar's
// availabilities. The two steps are separate statements; if the second fails the
// orphaned records stay unreachable through the registry and the error is returned.
func (s *CalendarServiceImpl) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.cals.Delete(ctx, id); err != nil {
		return err
	}
	n, err := s.events.DeleteByCalendar(ctx, id)
	if err != nil {
		s.log.Error("calendar cascade failed", zap.String("calendar", id), zap.Error(err))
		return err
	}
	s.log.Info("calendar deleted", zap.String("calendar", id), zap.Int64("availabilities", n))
	return nil
}

// EnsureDefault inserts the default calendar unless present.
func (s *CalendarServiceImpl) EnsureDefault(ctx context.Context) error {
	created, err := s.cals.Ensure(ctx, &model.Calendar{
		ID:           model.DefaultCalendarID,
		DefaultColor: model.DefaultCalendarColor,
	})
	if err != nil {
		return err
	}
	if created {
		s.log.Info("default calendar created", zap.String("calendar", model.DefaultCalendarID))
	}
	return nil
}
