package models

import "time"

// ConnectionQuality is the coarse health rating of a participant's transport.
type ConnectionQuality string

const (
	QualityGood ConnectionQuality = "good"
	QualityFair ConnectionQuality = "fair"
	QualityPoor ConnectionQuality = "poor"
)

// Participant is one admitted room member. The ID is assigned at admission
// and never changes; ConnectionID ties the participant to its transport
// connection (a reconnect is a brand-new connection and a brand-new join).
type Participant struct {
	ID                string            `json:"id"`
	ConnectionID      string            `json:"connectionId"`
	JoinedAt          time.Time         `json:"joinedAt"`
	IsMuted           bool              `json:"isMuted"`
	IsSharingScreen   bool              `json:"isSharingScreen"`
	ConnectionQuality ConnectionQuality `json:"connectionQuality"`
}

// ConnectionMetadata carries opaque transport details recorded for auditing.
type ConnectionMetadata struct {
	UserAgent     string `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
	RemoteAddress string `json:"remoteAddress,omitempty" bson:"remoteAddress,omitempty"`
}
