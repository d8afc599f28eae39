package models

import "encoding/json"

// SignalType represents the type of WebRTC signaling message
type SignalType string

const (
	SignalTypeOffer     SignalType = "offer"
	SignalTypeAnswer    SignalType = "answer"
	SignalTypeCandidate SignalType = "ice-candidate"
)

// SignalMessage is one WebRTC handshake message relayed between two
// participants. The payload is opaque: the core never parses SDP or
// candidate lines, it only moves them.
type SignalMessage struct {
	Type      SignalType      `json:"type"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to"`
	SDP       string          `json:"sdpPayload,omitempty"`
	Candidate json.RawMessage `json:"candidatePayload,omitempty"`
}

// Inbound event names (client -> core).
const (
	EventJoin               = "join"
	EventLeave              = "leave"
	EventToggleMute         = "toggle-mute"
	EventRequestScreenShare = "request-screen-share"
	EventStopScreenShare    = "stop-screen-share"
)

// Outbound event names (core -> client(s)).
const (
	EventJoined             = "joined"
	EventParticipantJoined  = "participant-joined"
	EventParticipantLeft    = "participant-left"
	EventMuteChanged        = "mute-changed"
	EventScreenShareStarted = "screen-share-started"
	EventScreenShareStopped = "screen-share-stopped"
	EventError              = "error"
)

// ClientEnvelope is the frame every inbound WebSocket message arrives in.
type ClientEnvelope struct {
	Event     string          `json:"event"`
	To        string          `json:"to,omitempty"`
	SDP       string          `json:"sdpPayload,omitempty"`
	Candidate json.RawMessage `json:"candidatePayload,omitempty"`
	Muted     bool            `json:"muted,omitempty"`
}

// JoinedPayload is sent to the joiner only.
type JoinedPayload struct {
	Participant  *Participant  `json:"participant"`
	Participants []Participant `json:"participants"`
}

// ParticipantJoinedPayload is broadcast to everyone else on admission.
type ParticipantJoinedPayload struct {
	Participant *Participant `json:"participant"`
}

// ParticipantLeftPayload is broadcast after removal.
type ParticipantLeftPayload struct {
	ParticipantID string `json:"participantId"`
}

// MuteChangedPayload is broadcast when a participant toggles their mute flag.
type MuteChangedPayload struct {
	ParticipantID string `json:"participantId"`
	Muted         bool   `json:"muted"`
}

// ScreenSharePayload is broadcast on screen-share-started/-stopped.
type ScreenSharePayload struct {
	ParticipantID string `json:"participantId"`
}
