package coordinator

import (
	"errors"

	"LocalBoard/internal/protocol"
	"LocalBoard/internal/state"
)

// maxIdentityAttempts bounds how often Connect asks the IdentityFunc for an unused id.
const maxIdentityAttempts = 8

// ErrIdentityExhausted is returned by Connect when no unused id could be allocated.
var ErrIdentityExhausted = errors.New("no unused user id available")

// Errors returned by Handle and HandleMessage. None of them ends a session.
var (
	ErrUnknownUser    = state.ErrUnknownUser
	ErrEmptyHistory   = state.ErrEmptyHistory
	ErrInvalidStroke  = state.ErrInvalidStroke
	ErrMalformedEvent = protocol.ErrMalformedEvent
)

// Expected reports whether err is part of normal operation (an undo with nothing to undo,
// a late event from a departed user) rather than a misbehaving client.
func Expected(err error) bool {
	return errors.Is(err, ErrEmptyHistory) || errors.Is(err, ErrUnknownUser)
}
