package domain

import "time"

type AuditLog struct {
	ID            int64     `json:"id"`
	Action        string    `json:"action"`
	User          string    `json:"user"`
	TargetShiftID string    `json:"target_shift_id"`
	Timestamp     time.Time `json:"timestamp"`
}

type EmployeeHours struct {
	Employee           string  `json:"employee"`
	TotalShiftsClaimed int64   `json:"total_shifts_claimed"`
	TotalHours         float64 `json:"total_hours"`
}
