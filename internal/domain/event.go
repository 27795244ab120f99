package domain

type EventAction string

const (
	ActionNewShift    EventAction = "NEW_SHIFT"
	ActionUpdateShift EventAction = "UPDATE_SHIFT"
	ActionDeleteShift EventAction = "DELETE_SHIFT"
)

// ChangeEvent is the unit pushed to connected clients. Shift is set for
// NEW_SHIFT and UPDATE_SHIFT, ShiftID for DELETE_SHIFT.
type ChangeEvent struct {
	Action  EventAction `json:"action"`
	Shift   *Shift      `json:"shift,omitempty"`
	ShiftID string      `json:"shift_id,omitempty"`
}

func ShiftCreated(s *Shift) ChangeEvent {
	return ChangeEvent{Action: ActionNewShift, Shift: s.Clone()}
}

func ShiftUpdated(s *Shift) ChangeEvent {
	return ChangeEvent{Action: ActionUpdateShift, Shift: s.Clone()}
}

func ShiftDeleted(id string) ChangeEvent {
	return ChangeEvent{Action: ActionDeleteShift, ShiftID: id}
}

// TargetID returns the id of the shift the event refers to.
func (e ChangeEvent) TargetID() string {
	if e.Shift != nil {
		return e.Shift.ID
	}
	return e.ShiftID
}
