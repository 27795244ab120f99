package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("shift not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrTransientStorage  = errors.New("storage unavailable")
	ErrScheduleConflict  = errors.New("schedule conflict")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrUserNotFound      = errors.New("user not found")
)

// Errorf wraps kind with a formatted detail, keeping errors.Is(err, kind) true.
func Errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
