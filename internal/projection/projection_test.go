package projection

import (
	"testing"
	"time"

	"github.com/shiftsync/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shift(id string, version int32, assigned ...string) *domain.Shift {
	start := time.Date(2026, 2, 21, 8, 0, 0, 0, time.UTC)
	s := &domain.Shift{ID: id, Title: "shift " + id, StartTime: start, EndTime: start.Add(4 * time.Hour), Version: version}
	s.Normalize()
	for _, u := range assigned {
		s.SetMembership(u, domain.MembershipAssigned)
	}
	return s
}

func TestApplyIsIdempotent(t *testing.T) {
	events := []domain.ChangeEvent{
		domain.ShiftCreated(shift("a", 1)),
		domain.ShiftCreated(shift("b", 1)),
		domain.ShiftUpdated(shift("a", 2, "alice")),
		domain.ShiftDeleted("b"),
	}

	once := New()
	twice := New()
	for _, e := range events {
		once.Apply(e)
		twice.Apply(e)
		assert.False(t, twice.Apply(e), "second apply of %s changed the view", e.Action)
	}

	assert.Equal(t, once.Shifts(), twice.Shifts())
	require.Equal(t, 1, twice.Len())
	got, ok := twice.Get("a")
	require.True(t, ok)
	assert.Equal(t, []string{"alice"}, got.AssignedEmployees)
}

func TestStaleSnapshotDoesNotRegress(t *testing.T) {
	p := New()

	// a live event overtakes the snapshot request
	assert.True(t, p.Apply(domain.ShiftUpdated(shift("a", 3, "alice"))))
	assert.False(t, p.Apply(domain.ShiftDeleted("b")))

	changed := p.ApplySnapshot([]*domain.Shift{shift("a", 2), shift("b", 1), shift("c", 1)})
	assert.True(t, changed)

	got, ok := p.Get("a")
	require.True(t, ok)
	assert.Equal(t, int32(3), got.Version)
	assert.Equal(t, []string{"alice"}, got.AssignedEmployees)

	_, ok = p.Get("b")
	assert.False(t, ok, "deleted shift came back from the snapshot")

	_, ok = p.Get("c")
	assert.True(t, ok)
}

func TestDeleteRemoves(t *testing.T) {
	p := New()
	p.Apply(domain.ShiftCreated(shift("a", 1)))
	assert.True(t, p.Apply(domain.ShiftDeleted("a")))
	assert.Equal(t, 0, p.Len())

	// a delayed update for a deleted shift is ignored
	assert.False(t, p.Apply(domain.ShiftUpdated(shift("a", 2))))
	assert.Equal(t, 0, p.Len())
}

func TestShiftsAreOrderedAndCopied(t *testing.T) {
	p := New()
	late := shift("late", 1)
	late.StartTime = late.StartTime.Add(24 * time.Hour)
	late.EndTime = late.EndTime.Add(24 * time.Hour)
	p.ApplySnapshot([]*domain.Shift{late, shift("early", 1)})

	shifts := p.Shifts()
	require.Len(t, shifts, 2)
	assert.Equal(t, "early", shifts[0].ID)
	assert.Equal(t, "late", shifts[1].ID)

	shifts[0].Title = "mutated"
	got, _ := p.Get("early")
	assert.Equal(t, "shift early", got.Title)
}
