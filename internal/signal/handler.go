// Package signal validates and relays WebRTC handshake messages between two
// named participants. The handler holds no state beyond per-sender rate
// counters; a rejected message is dropped, never partially applied.
package signal

import (
	"log/slog"

	"github.com/voxroom/voxroom/internal/models"
)

// Registry is the slice of the room registry the handler reads. It never
// mutates it.
type Registry interface {
	LookupByConnection(connectionID string) (models.Participant, bool)
	Lookup(participantID string) (models.Participant, bool)
}

// Sender is the outbound transport port.
type Sender interface {
	SendTo(connectionID, event string, payload any)
	IsConnected(connectionID string) bool
}

// Limiter is the per-sender rate limit, keyed by connection id.
type Limiter interface {
	Allow(key string) bool
	Forget(key string)
}

type Handler struct {
	registry Registry
	sender   Sender
	limiter  Limiter
}

func NewHandler(registry Registry, sender Sender, limiter Limiter) *Handler {
	return &Handler{
		registry: registry,
		sender:   sender,
		limiter:  limiter,
	}
}

// Relay validates msg from the given sending connection and, on success,
// delivers it verbatim to the destination participant's connection.
//
// The checks run in a fixed order and short-circuit: field validation, rate
// limit, sender resolution, self-signal, destination resolution, delivery.
// A malformed and self-addressed message therefore reports the field problem,
// not the self-signal.
func (h *Handler) Relay(senderConnectionID string, msg models.SignalMessage) error {
	if err := validate(msg); err != nil {
		return err
	}

	if !h.limiter.Allow(senderConnectionID) {
		slog.Warn("signaling rate limit hit", "connectionId", senderConnectionID)
		return ErrRateLimited
	}

	sender, ok := h.registry.LookupByConnection(senderConnectionID)
	if !ok {
		return ErrUnauthorizedSender
	}

	if sender.ID == msg.To {
		return &ValidationError{Reason: "cannot signal yourself"}
	}

	dest, ok := h.registry.Lookup(msg.To)
	if !ok {
		return &InvalidDestinationError{ParticipantID: msg.To}
	}
	if !h.sender.IsConnected(dest.ConnectionID) {
		return &ParticipantDisconnectedError{ParticipantID: msg.To}
	}

	out := msg
	out.From = sender.ID
	h.sender.SendTo(dest.ConnectionID, string(msg.Type), out)

	slog.Debug("relayed signaling message",
		"type", msg.Type, "from", sender.ID, "to", dest.ID)
	return nil
}

// OnDisconnect drops the sender's rate counter.
func (h *Handler) OnDisconnect(connectionID string) {
	h.limiter.Forget(connectionID)
}

func validate(msg models.SignalMessage) error {
	if msg.To == "" {
		return &ValidationError{Reason: "missing destination"}
	}
	switch msg.Type {
	case models.SignalTypeOffer, models.SignalTypeAnswer:
		if msg.SDP == "" {
			return &ValidationError{Reason: "missing sdp payload"}
		}
	case models.SignalTypeCandidate:
		if len(msg.Candidate) == 0 || string(msg.Candidate) == `""` || string(msg.Candidate) == "null" {
			return &ValidationError{Reason: "missing candidate payload"}
		}
	default:
		return &ValidationError{Reason: "unsupported message type"}
	}
	return nil
}
