package services

import "errors"

// Domain failure categories. Every expected failure returned by a service
// wraps exactly one of these, so callers can branch with errors.Is while
// the message itself tells the user which precondition was violated.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidState     = errors.New("invalid state")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrAlreadyComplete  = errors.New("already complete")
	ErrNoMatch          = errors.New("no match")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrUnsupported      = errors.New("unsupported")
	ErrInvalidInput     = errors.New("invalid input")
)
