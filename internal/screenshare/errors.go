package screenshare

import "errors"

var (
	ErrUnauthorizedParticipant = errors.New("not a room participant")
	// ErrInUse is returned when another participant already holds the lock.
	ErrInUse     = errors.New("screen share already in use")
	ErrNotActive = errors.New("no active screen share")
	// ErrUnauthorizedStop is returned when a participant tries to release a
	// lock held by someone else.
	ErrUnauthorizedStop = errors.New("only the owner may stop the screen share")
)
