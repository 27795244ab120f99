package repository

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shiftsync/backend/internal/domain"
)

// Memory keeps everything in process. It backs DATABASE_DRIVER=memory and the
// tests; data is lost on restart.
type Memory struct {
	mu         sync.Mutex
	shifts     map[string]*domain.Shift
	users      map[string]*domain.User
	auditLogs  []*domain.AuditLog
	nextUserID int64
}

func NewMemory() *Memory {
	return &Memory{
		shifts: make(map[string]*domain.Shift),
		users:  make(map[string]*domain.User),
	}
}

func (m *Memory) ListShifts(ctx context.Context) ([]*domain.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	shifts := make([]*domain.Shift, 0, len(m.shifts))
	for _, s := range m.shifts {
		shifts = append(shifts, s.Clone())
	}
	domain.SortShifts(shifts)
	return shifts, nil
}

func (m *Memory) GetShift(ctx context.Context, id string) (*domain.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shifts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.Clone(), nil
}

func (m *Memory) CreateShift(ctx context.Context, shift *domain.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.shifts[shift.ID]; ok {
		return errors.New("duplicate shift id")
	}
	shift.Version = 1
	m.shifts[shift.ID] = shift.Clone()
	return nil
}

func (m *Memory) UpdateShift(ctx context.Context, shift *domain.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.shifts[shift.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != shift.Version {
		return errors.New("shift was modified concurrently, please retry")
	}
	shift.Version++
	m.shifts[shift.ID] = shift.Clone()
	return nil
}

func (m *Memory) DeleteShift(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.shifts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.shifts, id)
	return nil
}

func (m *Memory) FindOverlappingAssignment(ctx context.Context, username string, start, end time.Time, excludeID string) (*domain.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.shifts {
		if id == excludeID || !s.Overlaps(start, end) {
			continue
		}
		switch s.MembershipOf(username) {
		case domain.MembershipAssigned, domain.MembershipDropRequested:
			return s.Clone(), nil
		}
	}
	return nil, nil
}

func (m *Memory) CreateUser(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Username]; ok {
		return domain.ErrDuplicateUsername
	}
	m.nextUserID++
	user.ID = m.nextUserID
	user.CreatedAt = time.Now()
	user.Version = 1

	stored := *user
	m.users[user.Username] = &stored
	return nil
}

func (m *Memory) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user := *u
	return &user, nil
}

func (m *Memory) CreateAuditLog(ctx context.Context, entry *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry.ID = int64(len(m.auditLogs) + 1)
	stored := *entry
	m.auditLogs = append(m.auditLogs, &stored)
	return nil
}

func (m *Memory) GetAuditLogs(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	logs := make([]*domain.AuditLog, 0, min(limit, len(m.auditLogs)))
	for i := len(m.auditLogs) - 1; i >= 0 && len(logs) < limit; i-- {
		entry := *m.auditLogs[i]
		logs = append(logs, &entry)
	}
	return logs, nil
}

func (m *Memory) GetEmployeeHours(ctx context.Context) ([]domain.EmployeeHours, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byEmployee := make(map[string]*domain.EmployeeHours)
	for _, s := range m.shifts {
		for _, username := range s.AssignedEmployees {
			h, ok := byEmployee[username]
			if !ok {
				h = &domain.EmployeeHours{Employee: username}
				byEmployee[username] = h
			}
			h.TotalShiftsClaimed++
			h.TotalHours += s.Hours()
		}
	}

	stats := make([]domain.EmployeeHours, 0, len(byEmployee))
	for _, h := range byEmployee {
		stats = append(stats, *h)
	}
	slices.SortFunc(stats, func(a, b domain.EmployeeHours) int {
		switch {
		case a.TotalHours > b.TotalHours:
			return -1
		case a.TotalHours < b.TotalHours:
			return 1
		default:
			return strings.Compare(a.Employee, b.Employee)
		}
	})
	return stats, nil
}
