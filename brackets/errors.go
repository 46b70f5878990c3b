package brackets

import "errors"

var (
	ErrInvalidEntrantCount = errors.New("invalid entrant count")
	ErrTopologyMismatch    = errors.New("bracket topology mismatch")
	ErrInvalidScore        = errors.New("invalid score")

	ErrInvalidTransition  = errors.New("invalid match status transition")
	ErrMatchNotReady      = errors.New("match participants are not known yet")
	ErrNotAuthorized      = errors.New("actor is not allowed to act on this match")
	ErrMatchNotFound      = errors.New("match not found in tournament")
	ErrMatchNotConfirmed  = errors.New("match result is not confirmed")
	ErrWinnerNotInMatch   = errors.New("winner is not a participant of the match")
	ErrSlotConflict       = errors.New("destination slot already holds a different entrant")
	ErrInvariantViolation = errors.New("bracket invariant violated")
)
