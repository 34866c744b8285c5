package apperror

import "errors"

var (
	ErrNotFound    = errors.New("session not found")
	ErrAlreadyFull = errors.New("session already has a guest")
	ErrSelfJoin    = errors.New("host can't join own session")
	ErrNotYourTurn = errors.New("it's not your turn")

	ErrSessionClosed  = errors.New("session is already finished or aborted")
	ErrNotReady       = errors.New("session has no guest yet")
	ErrNotParticipant = errors.New("player is not a participant of the session")
	ErrEmptyIdentity  = errors.New("player name is empty")

	ErrInvalidDocument = errors.New("invalid document")

	ErrVersionConflict    = errors.New("session was modified concurrently")
	ErrCodeTaken          = errors.New("session code is already taken")
	ErrCodeSpaceExhausted = errors.New("could not reserve a free session code")
)
