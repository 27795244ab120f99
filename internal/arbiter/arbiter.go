// Package arbiter decides whether a claim or drop action is legal for one shift
// and applies it to the shift's membership sets.
package arbiter

import (
	"github.com/shiftsync/backend/internal/domain"
)

type Action string

const (
	RequestClaim Action = "request-claim"
	CancelClaim  Action = "cancel-claim"
	ApproveClaim Action = "approve-claim"
	DenyClaim    Action = "deny-claim"
	RequestDrop  Action = "request-drop"
	ApproveDrop  Action = "approve-drop"
	DenyDrop     Action = "deny-drop"
)

type rule struct {
	from        domain.Membership
	to          domain.Membership
	managerOnly bool
}

var rules = map[Action]rule{
	RequestClaim: {from: domain.MembershipNone, to: domain.MembershipPending},
	CancelClaim:  {from: domain.MembershipPending, to: domain.MembershipNone},
	ApproveClaim: {from: domain.MembershipPending, to: domain.MembershipAssigned, managerOnly: true},
	DenyClaim:    {from: domain.MembershipPending, to: domain.MembershipNone, managerOnly: true},
	RequestDrop:  {from: domain.MembershipAssigned, to: domain.MembershipDropRequested},
	ApproveDrop:  {from: domain.MembershipDropRequested, to: domain.MembershipNone, managerOnly: true},
	DenyDrop:     {from: domain.MembershipDropRequested, to: domain.MembershipAssigned, managerOnly: true},
}

func (a Action) Valid() bool {
	_, ok := rules[a]
	return ok
}

// IsReview reports whether a is a manager decision on someone else's request.
func (a Action) IsReview() bool {
	return rules[a].managerOnly
}

// Result is the membership of the target user once the action is applied.
func (a Action) Result() domain.Membership {
	return rules[a].to
}

// Authorize checks that actor may perform action on target's membership.
// Review actions need a manager; self-service actions need the employee
// acting on their own entry.
func Authorize(actor domain.Actor, action Action, target string) error {
	r, ok := rules[action]
	if !ok {
		return domain.Errorf(domain.ErrInvalidArgument, "unknown action %q", action)
	}
	if target == "" {
		return domain.Errorf(domain.ErrInvalidArgument, "employee name is required")
	}

	if r.managerOnly {
		if !actor.IsManager() {
			return domain.Errorf(domain.ErrForbidden, "manager access required")
		}
		return nil
	}

	if actor.Role != domain.RoleEmployee {
		return domain.Errorf(domain.ErrForbidden, "only employees can %s", action)
	}
	if actor.Username != target {
		return domain.Errorf(domain.ErrForbidden, "employees can only act on their own requests")
	}
	return nil
}

// Apply authorizes and performs action on shift in place. On error the shift
// is left untouched.
func Apply(shift *domain.Shift, actor domain.Actor, action Action, target string) error {
	if err := Authorize(actor, action, target); err != nil {
		return err
	}

	r := rules[action]
	current := shift.MembershipOf(target)
	if current != r.from {
		return domain.Errorf(domain.ErrInvalidTransition, "cannot %s: %s is %s on this shift", action, target, current)
	}

	shift.SetMembership(target, r.to)
	return nil
}
