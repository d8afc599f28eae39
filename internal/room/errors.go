package room

import "errors"

var (
	ErrInvalidConnectionID = errors.New("connection id must not be empty")
	ErrRoomFull            = errors.New("room is full")
	// ErrDuplicateConnection is returned when a connection that already owns
	// a live participant attempts a second join.
	ErrDuplicateConnection = errors.New("connection already joined")
)
