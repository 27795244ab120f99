package arbiter

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shiftsync/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice   = domain.Actor{Username: "alice", Role: domain.RoleEmployee}
	bob     = domain.Actor{Username: "bob", Role: domain.RoleEmployee}
	manager = domain.Actor{Username: "boss", Role: domain.RoleManager}
)

func newShift() *domain.Shift {
	start := time.Date(2026, 2, 21, 8, 0, 0, 0, time.UTC)
	s := &domain.Shift{ID: "s1", Title: "Morning Barista", StartTime: start, EndTime: start.Add(4 * time.Hour)}
	s.Normalize()
	return s
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		name   string
		from   domain.Membership
		actor  domain.Actor
		action Action
		want   domain.Membership
	}{
		{"request claim", domain.MembershipNone, alice, RequestClaim, domain.MembershipPending},
		{"cancel claim", domain.MembershipPending, alice, CancelClaim, domain.MembershipNone},
		{"approve claim", domain.MembershipPending, manager, ApproveClaim, domain.MembershipAssigned},
		{"deny claim", domain.MembershipPending, manager, DenyClaim, domain.MembershipNone},
		{"request drop", domain.MembershipAssigned, alice, RequestDrop, domain.MembershipDropRequested},
		{"approve drop", domain.MembershipDropRequested, manager, ApproveDrop, domain.MembershipNone},
		{"deny drop", domain.MembershipDropRequested, manager, DenyDrop, domain.MembershipAssigned},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newShift()
			s.SetMembership("alice", tc.from)

			require.NoError(t, Apply(s, tc.actor, tc.action, "alice"))
			assert.Equal(t, tc.want, s.MembershipOf("alice"))
			assert.Equal(t, tc.want, tc.action.Result())
		})
	}
}

func TestInvalidTransitionLeavesShiftUnchanged(t *testing.T) {
	memberships := []domain.Membership{
		domain.MembershipNone,
		domain.MembershipPending,
		domain.MembershipAssigned,
		domain.MembershipDropRequested,
	}
	actions := []Action{RequestClaim, CancelClaim, ApproveClaim, DenyClaim, RequestDrop, ApproveDrop, DenyDrop}

	for _, from := range memberships {
		for _, action := range actions {
			if rules[action].from == from {
				continue
			}
			s := newShift()
			s.SetMembership("alice", from)
			before := s.Clone()

			actor := alice
			if action.IsReview() {
				actor = manager
			}
			err := Apply(s, actor, action, "alice")
			require.ErrorIs(t, err, domain.ErrInvalidTransition, "%s from %s", action, from)
			assert.Equal(t, before, s)
		}
	}
}

func TestAuthorization(t *testing.T) {
	s := newShift()
	s.SetMembership("alice", domain.MembershipPending)

	// employees cannot review
	err := Apply(s, bob, ApproveClaim, "alice")
	require.ErrorIs(t, err, domain.ErrForbidden)

	// employees cannot touch someone else's entry
	err = Apply(s, bob, CancelClaim, "alice")
	require.ErrorIs(t, err, domain.ErrForbidden)

	// managers do not claim shifts
	err = Apply(s, manager, RequestClaim, "boss")
	require.ErrorIs(t, err, domain.ErrForbidden)

	// forbidden wins over an invalid state
	err = Apply(s, bob, RequestDrop, "alice")
	require.ErrorIs(t, err, domain.ErrForbidden)

	err = Apply(s, manager, ApproveClaim, "")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	err = Apply(s, manager, Action("steal"), "alice")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	assert.Equal(t, domain.MembershipPending, s.MembershipOf("alice"))
}

func TestScenarioClaimApproved(t *testing.T) {
	s := newShift()

	require.NoError(t, Apply(s, alice, RequestClaim, "alice"))
	assert.Equal(t, []string{"alice"}, s.PendingEmployees)

	require.NoError(t, Apply(s, manager, ApproveClaim, "alice"))
	assert.Equal(t, []string{"alice"}, s.AssignedEmployees)
	assert.Empty(t, s.PendingEmployees)
}

func TestScenarioDropDenied(t *testing.T) {
	s := newShift()
	s.SetMembership("alice", domain.MembershipAssigned)

	require.NoError(t, Apply(s, alice, RequestDrop, "alice"))
	assert.Empty(t, s.AssignedEmployees)
	assert.Equal(t, []string{"alice"}, s.DropRequests)

	require.NoError(t, Apply(s, manager, DenyDrop, "alice"))
	assert.Equal(t, []string{"alice"}, s.AssignedEmployees)
	assert.Empty(t, s.DropRequests)
}

func TestRandomSequencesKeepMembershipExclusive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	employees := []domain.Actor{
		alice,
		bob,
		{Username: "carol", Role: domain.RoleEmployee},
	}
	actions := []Action{RequestClaim, CancelClaim, ApproveClaim, DenyClaim, RequestDrop, ApproveDrop, DenyDrop}

	s := newShift()
	for i := 0; i < 2000; i++ {
		target := employees[rng.Intn(len(employees))]
		action := actions[rng.Intn(len(actions))]
		actor := target
		if action.IsReview() {
			actor = manager
		}

		before := s.Clone()
		if err := Apply(s, actor, action, target.Username); err != nil {
			require.ErrorIs(t, err, domain.ErrInvalidTransition)
			require.Equal(t, before, s)
		}

		seen := map[string]int{}
		for _, set := range [][]string{s.AssignedEmployees, s.PendingEmployees, s.DropRequests} {
			for _, u := range set {
				seen[u]++
			}
		}
		for u, n := range seen {
			require.Equal(t, 1, n, "%s is in %d sets after step %d", u, n, i)
		}
	}
}
