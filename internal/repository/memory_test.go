package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shiftsync/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedShift(t *testing.T, m *Memory, id string, start time.Time, hours int, assigned ...string) *domain.Shift {
	t.Helper()
	s := &domain.Shift{ID: id, Title: "shift " + id, StartTime: start, EndTime: start.Add(time.Duration(hours) * time.Hour)}
	s.Normalize()
	require.NoError(t, m.CreateShift(context.Background(), s))
	for _, u := range assigned {
		s.SetMembership(u, domain.MembershipAssigned)
	}
	require.NoError(t, m.UpdateShift(context.Background(), s))
	return s
}

func TestMemoryUpdateChecksVersion(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	s := seedShift(t, m, "a", time.Now(), 2)
	assert.Equal(t, int32(2), s.Version)

	stale := s.Clone()
	stale.Version = 1
	require.Error(t, m.UpdateShift(ctx, stale))

	require.ErrorIs(t, m.UpdateShift(ctx, &domain.Shift{ID: "missing"}), domain.ErrNotFound)
	require.ErrorIs(t, m.DeleteShift(ctx, "missing"), domain.ErrNotFound)
}

func TestMemoryOverlap(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	seedShift(t, m, "a", base, 4, "alice")

	other, err := m.FindOverlappingAssignment(ctx, "alice", base.Add(3*time.Hour), base.Add(6*time.Hour), "b")
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Equal(t, "a", other.ID)

	// touching ranges do not overlap
	other, err = m.FindOverlappingAssignment(ctx, "alice", base.Add(4*time.Hour), base.Add(6*time.Hour), "b")
	require.NoError(t, err)
	assert.Nil(t, other)

	other, err = m.FindOverlappingAssignment(ctx, "alice", base, base.Add(time.Hour), "a")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestMemoryOverlapCountsPendingDrops(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	shift := seedShift(t, m, "a", base, 4, "alice")

	shift.SetMembership("alice", domain.MembershipDropRequested)
	require.NoError(t, m.UpdateShift(ctx, shift))

	other, err := m.FindOverlappingAssignment(ctx, "alice", base.Add(time.Hour), base.Add(2*time.Hour), "b")
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Equal(t, "a", other.ID)

	shift, err = m.GetShift(ctx, "a")
	require.NoError(t, err)
	shift.SetMembership("alice", domain.MembershipPending)
	require.NoError(t, m.UpdateShift(ctx, shift))

	other, err = m.FindOverlappingAssignment(ctx, "alice", base.Add(time.Hour), base.Add(2*time.Hour), "b")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestMemoryEmployeeHours(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	seedShift(t, m, "a", base, 4, "alice", "bob")
	seedShift(t, m, "b", base.Add(24*time.Hour), 8, "bob")

	stats, err := m.GetEmployeeHours(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.EmployeeHours{
		{Employee: "bob", TotalShiftsClaimed: 2, TotalHours: 12},
		{Employee: "alice", TotalShiftsClaimed: 1, TotalHours: 4},
	}, stats)
}

func TestMemoryUsersAndAuditLogs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.CreateUser(ctx, &domain.User{Username: "alice", Role: domain.RoleEmployee}))
	require.ErrorIs(t, m.CreateUser(ctx, &domain.User{Username: "alice"}), domain.ErrDuplicateUsername)

	u, err := m.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, u.Role)

	_, err = m.GetUserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	for _, action := range []string{"Created Shift", "Requested Shift", "Deleted Shift"} {
		require.NoError(t, m.CreateAuditLog(ctx, &domain.AuditLog{Action: action, User: "alice"}))
	}
	logs, err := m.GetAuditLogs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Deleted Shift", logs[0].Action)
	assert.Equal(t, "Requested Shift", logs[1].Action)
}
