package domain

import (
	"slices"
	"strings"
	"time"
)

type Membership string

const (
	MembershipNone          Membership = "none"
	MembershipPending       Membership = "pending"
	MembershipAssigned      Membership = "assigned"
	MembershipDropRequested Membership = "drop_requested"
)

// Shift membership sets are kept sorted and duplicate free. A username is in at
// most one of them.
type Shift struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	AssignedEmployees []string  `json:"assigned_employees"`
	PendingEmployees  []string  `json:"pending_employees"`
	DropRequests      []string  `json:"drop_requests"`
	CreatedAt         time.Time `json:"created_at"`
	Version           int32     `json:"version"`
}

func (s *Shift) Clone() *Shift {
	c := *s
	c.AssignedEmployees = slices.Clone(s.AssignedEmployees)
	c.PendingEmployees = slices.Clone(s.PendingEmployees)
	c.DropRequests = slices.Clone(s.DropRequests)
	return &c
}

// Normalize replaces nil sets with empty ones so they encode as [] instead of null.
func (s *Shift) Normalize() {
	if s.AssignedEmployees == nil {
		s.AssignedEmployees = []string{}
	}
	if s.PendingEmployees == nil {
		s.PendingEmployees = []string{}
	}
	if s.DropRequests == nil {
		s.DropRequests = []string{}
	}
}

func (s *Shift) MembershipOf(username string) Membership {
	switch {
	case contains(s.AssignedEmployees, username):
		return MembershipAssigned
	case contains(s.PendingEmployees, username):
		return MembershipPending
	case contains(s.DropRequests, username):
		return MembershipDropRequested
	default:
		return MembershipNone
	}
}

// SetMembership moves username into the set for m, removing it from every other set.
func (s *Shift) SetMembership(username string, m Membership) {
	s.AssignedEmployees = remove(s.AssignedEmployees, username)
	s.PendingEmployees = remove(s.PendingEmployees, username)
	s.DropRequests = remove(s.DropRequests, username)

	switch m {
	case MembershipAssigned:
		s.AssignedEmployees = insert(s.AssignedEmployees, username)
	case MembershipPending:
		s.PendingEmployees = insert(s.PendingEmployees, username)
	case MembershipDropRequested:
		s.DropRequests = insert(s.DropRequests, username)
	}
}

func (s *Shift) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && s.EndTime.After(start)
}

func (s *Shift) Hours() float64 {
	return s.EndTime.Sub(s.StartTime).Hours()
}

// ValidateShiftFields checks the title and time range of a shift.
func ValidateShiftFields(title string, start, end time.Time) error {
	if strings.TrimSpace(title) == "" {
		return Errorf(ErrInvalidArgument, "title must not be empty")
	}
	if !end.After(start) {
		return Errorf(ErrInvalidArgument, "end time must be after start time")
	}
	return nil
}

// SortShifts orders shifts by start time, then by id.
func SortShifts(shifts []*Shift) {
	slices.SortFunc(shifts, func(a, b *Shift) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func contains(set []string, v string) bool {
	_, found := slices.BinarySearch(set, v)
	return found
}

func insert(set []string, v string) []string {
	i, found := slices.BinarySearch(set, v)
	if found {
		return set
	}
	return slices.Insert(set, i, v)
}

func remove(set []string, v string) []string {
	i, found := slices.BinarySearch(set, v)
	if !found {
		if set == nil {
			return []string{}
		}
		return set
	}
	return slices.Delete(set, i, i+1)
}
