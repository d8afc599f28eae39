package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/voxroom/voxroom/config"
	"github.com/voxroom/voxroom/internal/connmgr"
	"github.com/voxroom/voxroom/internal/hub"
	"github.com/voxroom/voxroom/internal/models"
	"github.com/voxroom/voxroom/internal/room"
	"github.com/voxroom/voxroom/internal/screenshare"
	"github.com/voxroom/voxroom/internal/signal"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by middleware
		return true
	},
}

// Transport is the outbound port the session handler drives. *hub.Hub is the
// production implementation; tests substitute a sink.
type Transport interface {
	Register(c *hub.Client)
	Unregister(connectionID string)
	IsConnected(connectionID string) bool
	SendTo(connectionID, event string, payload any)
	BroadcastAll(event string, payload any)
	BroadcastExcept(excludeConnectionID, event string, payload any)
}

// Signaling owns the WebSocket session lifecycle: transport admission, event
// dispatch into the coordination core, and the disconnect cascade.
type Signaling struct {
	cfg    *config.Config
	conns  *connmgr.Manager
	rooms  *room.Manager
	relay  *signal.Handler
	shares *screenshare.Manager
	hub    Transport
}

func NewSignaling(cfg *config.Config, conns *connmgr.Manager, rooms *room.Manager, relay *signal.Handler, shares *screenshare.Manager, h Transport) *Signaling {
	return &Signaling{
		cfg:    cfg,
		conns:  conns,
		rooms:  rooms,
		relay:  relay,
		shares: shares,
		hub:    h,
	}
}

// Handle upgrades the connection and runs its read loop to completion.
func (s *Signaling) Handle(c *gin.Context) {
	roomID := c.Param("roomId")
	if roomID != s.cfg.Room.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("failed to upgrade connection", "error", err)
		return
	}

	connectionID := uuid.New().String()
	meta := models.ConnectionMetadata{
		UserAgent:     c.Request.UserAgent(),
		RemoteAddress: c.ClientIP(),
	}

	if !s.conns.Add(connectionID, meta) {
		// Over the global ceiling. Tell the client why before hanging up.
		frame, _ := json.Marshal(hub.Envelope{
			Event: models.EventError,
			Payload: models.ErrorPayload{
				Code:    models.CodeConnectionLimit,
				Message: "server connection limit reached",
			},
		})
		conn.WriteMessage(websocket.TextMessage, frame)
		conn.Close()
		slog.Warn("connection rejected at ceiling", "remote", meta.RemoteAddress)
		return
	}

	client := hub.NewClient(connectionID, conn)
	s.hub.Register(client)
	slog.Info("connection established", "connectionId", connectionID, "remote", meta.RemoteAddress)

	go client.WritePump()
	client.ReadPump(
		func(raw []byte) { s.dispatch(c.Request.Context(), connectionID, meta, raw) },
		func() { s.conns.Touch(connectionID) },
	)

	// ReadPump returned: the transport is gone.
	s.disconnect(connectionID)
}

// dispatch routes one inbound frame. Every failure is answered with a typed
// error event to the sender only; no frame ever kills the connection.
func (s *Signaling) dispatch(ctx context.Context, connectionID string, meta models.ConnectionMetadata, raw []byte) {
	var env models.ClientEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.sendError(connectionID, models.CodeValidation, "malformed message", err.Error())
		return
	}

	switch env.Event {
	case models.EventJoin:
		s.handleJoin(ctx, connectionID, meta)

	case models.EventLeave:
		s.handleLeave(ctx, connectionID)

	case string(models.SignalTypeOffer), string(models.SignalTypeAnswer), string(models.SignalTypeCandidate):
		msg := models.SignalMessage{
			Type:      models.SignalType(env.Event),
			To:        env.To,
			SDP:       env.SDP,
			Candidate: env.Candidate,
		}
		if err := s.relay.Relay(connectionID, msg); err != nil {
			code, details := relayErrorCode(err)
			s.sendError(connectionID, code, err.Error(), details)
		}

	case models.EventToggleMute:
		s.handleToggleMute(connectionID, env.Muted)

	case models.EventRequestScreenShare:
		s.handleScreenShareRequest(ctx, connectionID)

	case models.EventStopScreenShare:
		s.handleScreenShareStop(connectionID)

	default:
		s.sendError(connectionID, models.CodeValidation, "unknown event", env.Event)
	}
}

func (s *Signaling) handleJoin(ctx context.Context, connectionID string, meta models.ConnectionMetadata) {
	p, err := s.rooms.Join(ctx, connectionID, meta)
	if err != nil {
		switch {
		case errors.Is(err, room.ErrRoomFull):
			s.sendError(connectionID, models.CodeRoomFull, err.Error(), "")
		case errors.Is(err, room.ErrDuplicateConnection):
			s.sendError(connectionID, models.CodeDuplicateConnection, err.Error(), "")
		case errors.Is(err, room.ErrInvalidConnectionID):
			s.sendError(connectionID, models.CodeValidation, err.Error(), "")
		default:
			s.sendError(connectionID, models.CodePersistence, "failed to record session", err.Error())
		}
		return
	}

	s.hub.SendTo(connectionID, models.EventJoined, models.JoinedPayload{
		Participant:  p,
		Participants: s.rooms.Participants(),
	})
	s.hub.BroadcastExcept(connectionID, models.EventParticipantJoined, models.ParticipantJoinedPayload{Participant: p})
}

// handleLeave is the explicit-leave path. It shares removeParticipant with
// the transport disconnect so the two racing paths converge on the room
// manager's idempotent Leave.
func (s *Signaling) handleLeave(ctx context.Context, connectionID string) {
	p, ok := s.rooms.LookupByConnection(connectionID)
	if !ok {
		return
	}
	s.removeParticipant(ctx, p)
}

func (s *Signaling) handleToggleMute(connectionID string, muted bool) {
	p, ok := s.rooms.LookupByConnection(connectionID)
	if !ok {
		s.sendError(connectionID, models.CodeUnauthorizedParticipant, "join the room first", "")
		return
	}
	updated, ok := s.rooms.SetMuted(p.ID, muted)
	if !ok {
		return
	}
	s.hub.BroadcastAll(models.EventMuteChanged, models.MuteChangedPayload{
		ParticipantID: updated.ID,
		Muted:         updated.IsMuted,
	})
}

func (s *Signaling) handleScreenShareRequest(ctx context.Context, connectionID string) {
	ev, err := s.shares.Request(ctx, connectionID)
	if err != nil {
		switch {
		case errors.Is(err, screenshare.ErrUnauthorizedParticipant):
			s.sendError(connectionID, models.CodeUnauthorizedParticipant, err.Error(), "")
		case errors.Is(err, screenshare.ErrInUse):
			s.sendError(connectionID, models.CodeScreenShareInUse, err.Error(), s.shares.CurrentOwner())
		default:
			s.sendError(connectionID, models.CodePersistence, "failed to record screen share", err.Error())
		}
		return
	}
	s.rooms.SetSharingScreen(ev.ParticipantID, true)
	s.hub.BroadcastAll(ev.Name, models.ScreenSharePayload{ParticipantID: ev.ParticipantID})
}

func (s *Signaling) handleScreenShareStop(connectionID string) {
	ev, err := s.shares.Stop(connectionID)
	if err != nil {
		switch {
		case errors.Is(err, screenshare.ErrUnauthorizedParticipant):
			s.sendError(connectionID, models.CodeUnauthorizedParticipant, err.Error(), "")
		case errors.Is(err, screenshare.ErrNotActive):
			s.sendError(connectionID, models.CodeScreenShareNotActive, err.Error(), "")
		case errors.Is(err, screenshare.ErrUnauthorizedStop):
			s.sendError(connectionID, models.CodeUnauthorizedStop, err.Error(), "")
		default:
			s.sendError(connectionID, models.CodePersistence, err.Error(), "")
		}
		return
	}
	s.rooms.SetSharingScreen(ev.ParticipantID, false)
	s.hub.BroadcastAll(ev.Name, models.ScreenSharePayload{ParticipantID: ev.ParticipantID})
}

// disconnect runs the transport-level teardown cascade. The participant may
// already be gone via an explicit leave; every step tolerates that.
func (s *Signaling) disconnect(connectionID string) {
	s.hub.Unregister(connectionID)
	s.conns.Remove(connectionID)
	s.relay.OnDisconnect(connectionID)

	if p, ok := s.rooms.LookupByConnection(connectionID); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.removeParticipant(ctx, p)
	}
	slog.Info("connection closed", "connectionId", connectionID)
}

// removeParticipant removes p from the room and broadcasts the fallout:
// the forced screen-share release first (if p held the lock), then the
// departure itself.
func (s *Signaling) removeParticipant(ctx context.Context, p models.Participant) {
	if ev, released := s.shares.OnParticipantDisconnected(p.ID); released {
		s.hub.BroadcastAll(ev.Name, models.ScreenSharePayload{ParticipantID: ev.ParticipantID})
	}
	if err := s.rooms.Leave(ctx, p.ID); err != nil {
		slog.Error("leave failed", "participantId", p.ID, "error", err)
	}
	s.hub.BroadcastAll(models.EventParticipantLeft, models.ParticipantLeftPayload{ParticipantID: p.ID})
}

func (s *Signaling) sendError(connectionID string, code models.ErrorCode, message, details string) {
	s.hub.SendTo(connectionID, models.EventError, models.ErrorPayload{
		Code:    code,
		Message: message,
		Details: details,
	})
}

func relayErrorCode(err error) (models.ErrorCode, string) {
	var (
		ve  *signal.ValidationError
		ide *signal.InvalidDestinationError
		pde *signal.ParticipantDisconnectedError
	)
	switch {
	case errors.As(err, &ve):
		return models.CodeValidation, ""
	case errors.Is(err, signal.ErrRateLimited):
		return models.CodeRateLimitExceeded, ""
	case errors.Is(err, signal.ErrUnauthorizedSender):
		return models.CodeUnauthorizedSender, ""
	case errors.As(err, &ide):
		return models.CodeInvalidDestination, ide.ParticipantID
	case errors.As(err, &pde):
		return models.CodeParticipantDisconnected, pde.ParticipantID
	default:
		return models.CodeValidation, ""
	}
}
