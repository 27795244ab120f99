package domain

import (
	"time"
)

type Role string

const (
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	Version      int32     `json:"-"`
}

// Actor is the verified identity behind a request.
type Actor struct {
	Username string
	Role     Role
}

func (a Actor) IsManager() bool {
	return a.Role == RoleManager
}
