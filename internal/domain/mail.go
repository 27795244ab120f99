package domain

import "time"

const (
	MailTypeClaimReviewed = "claim_reviewed"
	MailTypeDropReviewed  = "drop_reviewed"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type ReviewMailData struct {
	Username   string    `json:"username"`
	ShiftTitle string    `json:"shift_title"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Approved   bool      `json:"approved"`
	Reviewer   string    `json:"reviewer"`
}
