package domain

import "errors"

// Signaling error taxonomy. Guard failures are reported to the offending
// sender only and never mutate session state.
var (
	ErrUnauthorized      = errors.New("sender is not a session participant")
	ErrNotFound          = errors.New("unknown call id")
	ErrSessionConflict   = errors.New("active session already exists for this pair")
	ErrInvalidTransition = errors.New("event not valid for current call state")
	ErrCalleeUnavailable = errors.New("callee has no live connections")
)

// ErrorCode maps a taxonomy error to the wire code used in call:error frames.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSessionConflict):
		return "session_conflict"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrCalleeUnavailable):
		return "callee_unavailable"
	default:
		return "internal"
	}
}
