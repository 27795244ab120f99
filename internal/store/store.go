// Package store owns the canonical shift collection. Every mutation runs
// validate, mutate, persist and enqueue-broadcast under one exclusive lock, so
// events leave the store in commit order.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shiftsync/backend/internal/arbiter"
	"github.com/shiftsync/backend/internal/domain"
)

// Persistence is the durable shift storage. GetShift, UpdateShift and
// DeleteShift return domain.ErrNotFound for unknown ids. UpdateShift writes
// only when the stored version equals shift.Version and then bumps it.
// FindOverlappingAssignment returns a shift other than excludeID that overlaps
// [start, end) and on which username is assigned or awaiting a drop, or nil.
type Persistence interface {
	GetShift(ctx context.Context, id string) (*domain.Shift, error)
	ListShifts(ctx context.Context) ([]*domain.Shift, error)
	CreateShift(ctx context.Context, shift *domain.Shift) error
	UpdateShift(ctx context.Context, shift *domain.Shift) error
	DeleteShift(ctx context.Context, id string) error
	FindOverlappingAssignment(ctx context.Context, username string, start, end time.Time, excludeID string) (*domain.Shift, error)
}

// Publisher receives committed change events. Broadcast must not block.
type Publisher interface {
	Broadcast(event domain.ChangeEvent)
}

type ShiftUpdate struct {
	Title     *string
	StartTime *time.Time
	EndTime   *time.Time
}

type Store struct {
	mu        sync.RWMutex
	db        Persistence
	publisher Publisher
	now       func() time.Time
}

func New(db Persistence, publisher Publisher) *Store {
	return &Store{
		db:        db,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *Store) GetAll(ctx context.Context) ([]*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shifts, err := s.db.ListShifts(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	for _, shift := range shifts {
		shift.Normalize()
	}
	domain.SortShifts(shifts)
	return shifts, nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shift, err := s.db.GetShift(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	shift.Normalize()
	return shift, nil
}

func (s *Store) Create(ctx context.Context, actor domain.Actor, title string, start, end time.Time) (*domain.Shift, error) {
	if !actor.IsManager() {
		return nil, domain.Errorf(domain.ErrForbidden, "manager access required")
	}
	if err := domain.ValidateShiftFields(title, start, end); err != nil {
		return nil, err
	}

	shift := &domain.Shift{
		ID:        uuid.NewString(),
		Title:     title,
		StartTime: start,
		EndTime:   end,
		CreatedAt: s.now(),
	}
	shift.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.CreateShift(ctx, shift); err != nil {
		return nil, storageError(err)
	}

	s.publisher.Broadcast(domain.ShiftCreated(shift))
	return shift.Clone(), nil
}

func (s *Store) Update(ctx context.Context, actor domain.Actor, id string, fields ShiftUpdate) (*domain.Shift, error) {
	if !actor.IsManager() {
		return nil, domain.Errorf(domain.ErrForbidden, "manager access required")
	}

	return s.mutate(ctx, id, func(shift *domain.Shift) error {
		if fields.Title != nil {
			shift.Title = *fields.Title
		}
		if fields.StartTime != nil {
			shift.StartTime = *fields.StartTime
		}
		if fields.EndTime != nil {
			shift.EndTime = *fields.EndTime
		}
		return domain.ValidateShiftFields(shift.Title, shift.StartTime, shift.EndTime)
	})
}

// Delete removes the shift together with every pending, assigned and drop
// entry. It is applied regardless of requests in flight for the shift.
func (s *Store) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.IsManager() {
		return domain.Errorf(domain.ErrForbidden, "manager access required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteShift(ctx, id); err != nil {
		return storageError(err)
	}

	s.publisher.Broadcast(domain.ShiftDeleted(id))
	return nil
}

// Transition runs a claim or drop action for target on the shift.
func (s *Store) Transition(ctx context.Context, actor domain.Actor, id string, action arbiter.Action, target string) (*domain.Shift, error) {
	if err := arbiter.Authorize(actor, action, target); err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(shift *domain.Shift) error {
		if err := arbiter.Apply(shift, actor, action, target); err != nil {
			return err
		}
		// deny-drop only restores time the employee already holds
		if action == arbiter.RequestClaim || action == arbiter.ApproveClaim {
			return s.checkOverlap(ctx, shift, target)
		}
		return nil
	})
}

func (s *Store) checkOverlap(ctx context.Context, shift *domain.Shift, username string) error {
	other, err := s.db.FindOverlappingAssignment(ctx, username, shift.StartTime, shift.EndTime, shift.ID)
	if err != nil {
		return storageError(err)
	}
	if other != nil {
		return domain.Errorf(domain.ErrScheduleConflict, "%s is already working %q during this time", username, other.Title)
	}
	return nil
}

// mutate loads the shift, lets fn change a private copy and, if fn succeeds,
// persists the copy and broadcasts it. The caller never sees a half-applied
// shift.
func (s *Store) mutate(ctx context.Context, id string, fn func(shift *domain.Shift) error) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.db.GetShift(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	current.Normalize()

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	if err := s.db.UpdateShift(ctx, next); err != nil {
		return nil, storageError(err)
	}

	s.publisher.Broadcast(domain.ShiftUpdated(next))
	return next.Clone(), nil
}

func storageError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrTransientStorage),
		errors.Is(err, domain.ErrScheduleConflict):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrTransientStorage, err)
	}
}
