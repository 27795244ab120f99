// Package projection keeps a client's local, eventually consistent copy of
// the shift collection.
//
// Live events and snapshots may overlap while a client connects. Both go
// through the same upsert, which ignores anything older than what is held,
// and deleted ids are remembered so a late snapshot cannot bring them back.
package projection

import (
	"sync"

	"github.com/shiftsync/backend/internal/domain"
)

type Projection struct {
	mu      sync.RWMutex
	shifts  map[string]*domain.Shift
	deleted map[string]struct{}
}

func New() *Projection {
	return &Projection{
		shifts:  make(map[string]*domain.Shift),
		deleted: make(map[string]struct{}),
	}
}

// Apply merges one change event and reports whether the view changed.
func (p *Projection) Apply(event domain.ChangeEvent) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.Action {
	case domain.ActionNewShift, domain.ActionUpdateShift:
		if event.Shift == nil {
			return false
		}
		return p.upsert(event.Shift)
	case domain.ActionDeleteShift:
		return p.remove(event.TargetID())
	default:
		return false
	}
}

// ApplySnapshot merges a full listing fetched over REST.
func (p *Projection) ApplySnapshot(shifts []*domain.Shift) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	changed := false
	for _, s := range shifts {
		if p.upsert(s) {
			changed = true
		}
	}
	return changed
}

func (p *Projection) upsert(s *domain.Shift) bool {
	if _, gone := p.deleted[s.ID]; gone {
		return false
	}
	if held, ok := p.shifts[s.ID]; ok && held.Version >= s.Version {
		return false
	}
	p.shifts[s.ID] = s.Clone()
	return true
}

func (p *Projection) remove(id string) bool {
	if id == "" {
		return false
	}
	p.deleted[id] = struct{}{}
	if _, ok := p.shifts[id]; !ok {
		return false
	}
	delete(p.shifts, id)
	return true
}

func (p *Projection) Get(id string) (*domain.Shift, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.shifts[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Shifts returns the current view ordered by start time.
func (p *Projection) Shifts() []*domain.Shift {
	p.mu.RLock()
	defer p.mu.RUnlock()

	shifts := make([]*domain.Shift, 0, len(p.shifts))
	for _, s := range p.shifts {
		shifts = append(shifts, s.Clone())
	}
	domain.SortShifts(shifts)
	return shifts
}

func (p *Projection) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.shifts)
}
