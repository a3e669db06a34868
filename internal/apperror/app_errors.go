package apperror

import "errors"

var (
	ErrMalformedRequest = errors.New("malformed request")
	ErrUnknownPlayer    = errors.New("unknown player")
	ErrUnknownGame      = errors.New("unknown game")
	ErrNotAParticipant  = errors.New("player is not a participant of the game")
	ErrInvalidState     = errors.New("game is not in the expected state")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrIllegalMove      = errors.New("illegal move")
)
