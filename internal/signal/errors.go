package signal

import (
	"errors"
	"fmt"
)

var (
	ErrRateLimited = errors.New("signaling rate limit exceeded")
	// ErrUnauthorizedSender means the sending connection owns no live
	// participant in the room.
	ErrUnauthorizedSender = errors.New("sender is not a room participant")
)

// ValidationError reports a malformed message, caught before any state
// access. Self-addressed messages also land here.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid signaling message: " + e.Reason
}

// InvalidDestinationError carries the id that failed to resolve.
type InvalidDestinationError struct {
	ParticipantID string
}

func (e *InvalidDestinationError) Error() string {
	return fmt.Sprintf("destination participant %q not found", e.ParticipantID)
}

// ParticipantDisconnectedError means the destination is still in the registry
// but its transport connection has already closed.
type ParticipantDisconnectedError struct {
	ParticipantID string
}

func (e *ParticipantDisconnectedError) Error() string {
	return fmt.Sprintf("destination participant %q has disconnected", e.ParticipantID)
}
