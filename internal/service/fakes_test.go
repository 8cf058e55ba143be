package service

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mschachner/drop-in/internal/errs"
	"github.com/mschachner/drop-in/internal/limiter"
	"github.com/mschachner/drop-in/internal/model"
	"github.com/mschachner/drop-in/internal/repository"
)

type eventKey struct {
	cal string
	id  uuid.UUID
}

// fakeStore mimics the row-level atomicity of the SQL primitives with one mutex.
type fakeStore struct {
	mu     sync.Mutex
	events map[eventKey]*model.Availability
	cals   map[string]*model.Calendar

	deleteCalls []string // order of registry/bulk deletes
	listErr     error
	bulkErr     error
}

var (
	_ repository.AvailabilityRepository = (*fakeStore)(nil)
	_ repository.MembershipRepository   = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{events: map[eventKey]*model.Availability{}, cals: map[string]*model.Calendar{}}
}

func clone(a *model.Availability) *model.Availability {
	c := *a
	c.Joiners = slices.Clone(a.Joiners)
	if c.Joiners == nil {
		c.Joiners = []string{}
	}
	return &c
}

func (f *fakeStore) put(a model.Availability) model.Availability {
	if a.ID == uuid.Nil {
		a.ID = uuid.Must(uuid.NewV4())
	}
	a.Normalize()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[eventKey{a.CalendarID, a.ID}] = clone(&a)
	return a
}

// --- availabilities ---

func (f *fakeStore) List(_ context.Context, cal string) ([]model.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.Availability{}
	for k, a := range f.events {
		if k.cal == cal {
			out = append(out, *clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, cal string, id uuid.UUID) (*model.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.events[eventKey{cal, id}]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return clone(a), nil
}

func (f *fakeStore) Create(_ context.Context, a *model.Availability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := eventKey{a.CalendarID, a.ID}
	if _, ok := f.events[k]; ok {
		return errs.ErrAlreadyExists
	}
	a.CreatedAt = time.Now()
	f.events[k] = clone(a)
	return nil
}

func (f *fakeStore) Update(_ context.Context, cal string, id uuid.UUID, p model.AvailabilityPatch) (*model.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.events[eventKey{cal, id}]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if p.TimeSlot != nil {
		a.TimeSlot = *p.TimeSlot
	}
	if p.Location != nil {
		a.Location = *p.Location
	}
	if p.Icon != nil {
		a.Icon = *p.Icon
	}
	if p.Recurring != nil {
		a.Recurring = *p.Recurring
	}
	if p.Section != nil {
		a.Section = *p.Section
	}
	return clone(a), nil
}

func (f *fakeStore) Delete(_ context.Context, cal string, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := eventKey{cal, id}
	if _, ok := f.events[k]; !ok {
		return errs.ErrNotFound
	}
	delete(f.events, k)
	return nil
}

func (f *fakeStore) DeleteByCalendar(_ context.Context, cal string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, "events:"+cal)
	if f.bulkErr != nil {
		return 0, f.bulkErr
	}
	var n int64
	for k := range f.events {
		if k.cal == cal {
			delete(f.events, k)
			n++
		}
	}
	return n, nil
}

// --- membership ---

func (f *fakeStore) AddJoiner(_ context.Context, cal string, id uuid.UUID, name string) (*model.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.events[eventKey{cal, id}]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if !a.HasJoiner(name) {
		a.Joiners = append(a.Joiners, name)
	}
	return clone(a), nil
}

func (f *fakeStore) RemoveJoiner(_ context.Context, cal string, id uuid.UUID, name string) (*model.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.events[eventKey{cal, id}]
	if !ok {
		return nil, errs.ErrNotFound
	}
	a.Joiners = slices.DeleteFunc(a.Joiners, func(j string) bool { return j == name })
	return clone(a), nil
}

func (f *fakeStore) ToggleJoiner(_ context.Context, cal string, id uuid.UUID, name string) (*model.Availability, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.events[eventKey{cal, id}]
	if !ok {
		return nil, false, errs.ErrNotFound
	}
	if a.HasJoiner(name) {
		a.Joiners = slices.DeleteFunc(a.Joiners, func(j string) bool { return j == name })
		return clone(a), false, nil
	}
	a.Joiners = append(a.Joiners, name)
	return clone(a), true, nil
}

// --- calendars (exposed through calendarsView to avoid method clashes) ---

type calendarsView struct{ f *fakeStore }

var _ repository.CalendarRepository = calendarsView{}

func (v calendarsView) Create(ctx context.Context, c *model.Calendar) error {
	return v.f.createCalendar(ctx, c)
}
func (v calendarsView) Ensure(ctx context.Context, c *model.Calendar) (bool, error) {
	return v.f.Ensure(ctx, c)
}
func (v calendarsView) Get(_ context.Context, id string) (*model.Calendar, error) {
	v.f.mu.Lock()
	defer v.f.mu.Unlock()
	c, ok := v.f.cals[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *c
	return &cp, nil
}
func (v calendarsView) List(_ context.Context) ([]model.Calendar, error) {
	v.f.mu.Lock()
	defer v.f.mu.Unlock()
	out := []model.Calendar{}
	for _, c := range v.f.cals {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
func (v calendarsView) Delete(_ context.Context, id string) error {
	v.f.mu.Lock()
	defer v.f.mu.Unlock()
	v.f.deleteCalls = append(v.f.deleteCalls, "calendar:"+id)
	if _, ok := v.f.cals[id]; !ok {
		return errs.ErrNotFound
	}
	delete(v.f.cals, id)
	return nil
}

func (f *fakeStore) createCalendar(_ context.Context, c *model.Calendar) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cals[c.ID]; ok {
		return errs.ErrAlreadyExists
	}
	c.CreatedAt = time.Now()
	cp := *c
	f.cals[c.ID] = &cp
	return nil
}

func (f *fakeStore) Ensure(_ context.Context, c *model.Calendar) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cals[c.ID]; ok {
		return false, nil
	}
	cp := *c
	f.cals[c.ID] = &cp
	return true, nil
}

// --- limiter ---

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, time.Minute, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, []byte) error {
	l.successCalls++
	return nil
}
func (l *fakeLimiter) Failure(context.Context, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}
