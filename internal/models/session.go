package models

import "time"

// SessionRecord is the audit row persisted for one participant's stay in the
// room. Written on join with a null LeftAt, updated in place on leave. The
// core never reads these back.
type SessionRecord struct {
	ParticipantID string             `bson:"participantId"`
	ConnectionID  string             `bson:"connectionId"`
	RoomID        string             `bson:"roomId"`
	JoinedAt      time.Time          `bson:"joinedAt"`
	LeftAt        *time.Time         `bson:"leftAt"`
	Metadata      ConnectionMetadata `bson:"metadata"`
}

// RoomMetadata is the operator-facing view of a room, stored in Redis and
// served by the rooms API.
type RoomMetadata struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"createdAt"`
	MaxParticipants  int       `json:"maxParticipants"`
	ParticipantCount int       `json:"participantCount"`
}
