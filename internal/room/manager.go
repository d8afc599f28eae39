// Package room owns the authoritative participant registry for the single
// room this server instance hosts. Every membership change is mirrored to the
// session store; a failed insert rolls the in-memory change back so registry
// and audit trail never diverge on a failed join.
package room

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxroom/voxroom/internal/models"
	"github.com/voxroom/voxroom/internal/store"
)

// PresenceMirror receives best-effort membership updates (the Redis mirror
// behind the operator API). Failures are logged, never propagated.
type PresenceMirror interface {
	AddPeer(ctx context.Context, roomID, participantID string) error
	RemovePeer(ctx context.Context, roomID, participantID string) error
}

// Options tunes a Manager beyond its required collaborators.
type Options struct {
	// MaxCapacity bounds live participants. Zero falls back to 10.
	MaxCapacity int
	// ConnectionIDMaxLen truncates over-long connection ids. Zero falls
	// back to 128.
	ConnectionIDMaxLen int
	// Presence is optional.
	Presence PresenceMirror
}

// Manager is the participant registry. One mutex serializes every
// capacity-check-then-insert so two racing joins can never both slip past the
// capacity boundary.
type Manager struct {
	mu sync.Mutex

	roomID       string
	maxCapacity  int
	maxConnIDLen int
	createdAt    time.Time

	store    store.SessionStore
	presence PresenceMirror

	participants map[string]*models.Participant // participant id -> participant
	byConnection map[string]string              // connection id -> participant id
}

func NewManager(roomID string, sessions store.SessionStore, opts Options) *Manager {
	maxCapacity := opts.MaxCapacity
	if maxCapacity <= 0 {
		maxCapacity = 10
	}
	maxConnIDLen := opts.ConnectionIDMaxLen
	if maxConnIDLen <= 0 {
		maxConnIDLen = 128
	}
	return &Manager{
		roomID:       roomID,
		maxCapacity:  maxCapacity,
		maxConnIDLen: maxConnIDLen,
		createdAt:    time.Now(),
		store:        sessions,
		presence:     opts.Presence,
		participants: make(map[string]*models.Participant),
		byConnection: make(map[string]string),
	}
}

// RoomID returns the id this registry is scoped to.
func (m *Manager) RoomID() string { return m.roomID }

// CreatedAt returns when this registry was constructed.
func (m *Manager) CreatedAt() time.Time { return m.createdAt }

// Join admits a new participant for connectionID. The in-memory insert is
// provisional until the session store accepts the audit row; a store failure
// undoes the insert and the store's error is returned unchanged.
func (m *Manager) Join(ctx context.Context, connectionID string, meta models.ConnectionMetadata) (*models.Participant, error) {
	if connectionID == "" {
		return nil, ErrInvalidConnectionID
	}
	// Over-long ids are truncated, not rejected. Lossy but non-fatal.
	if len(connectionID) > m.maxConnIDLen {
		connectionID = connectionID[:m.maxConnIDLen]
	}

	p := &models.Participant{
		ID:                uuid.New().String(),
		ConnectionID:      connectionID,
		JoinedAt:          time.Now(),
		ConnectionQuality: models.QualityGood,
	}

	m.mu.Lock()
	if len(m.participants) >= m.maxCapacity {
		m.mu.Unlock()
		return nil, ErrRoomFull
	}
	if _, ok := m.byConnection[connectionID]; ok {
		m.mu.Unlock()
		return nil, ErrDuplicateConnection
	}
	m.participants[p.ID] = p
	m.byConnection[connectionID] = p.ID
	m.mu.Unlock()

	rec := models.SessionRecord{
		ParticipantID: p.ID,
		ConnectionID:  connectionID,
		RoomID:        m.roomID,
		JoinedAt:      p.JoinedAt,
		Metadata:      meta,
	}
	if err := m.store.InsertSession(ctx, rec); err != nil {
		m.mu.Lock()
		delete(m.participants, p.ID)
		delete(m.byConnection, connectionID)
		m.mu.Unlock()
		slog.Error("join rolled back, session insert failed",
			"roomId", m.roomID, "participantId", p.ID, "error", err)
		return nil, err
	}

	if m.presence != nil {
		if err := m.presence.AddPeer(ctx, m.roomID, p.ID); err != nil {
			slog.Warn("presence mirror add failed", "participantId", p.ID, "error", err)
		}
	}

	slog.Info("participant joined", "roomId", m.roomID,
		"participantId", p.ID, "connectionId", connectionID,
		"count", m.Count())

	out := *p
	return &out, nil
}

// Leave removes a participant. Calling it for an id that is absent (never
// joined, or already removed by the disconnect race) is a no-op success.
// Removal is authoritative: the session-store update fires asynchronously and
// its failure is logged, never rolled back.
func (m *Manager) Leave(ctx context.Context, participantID string) error {
	m.mu.Lock()
	p, ok := m.participants[participantID]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	delete(m.participants, participantID)
	delete(m.byConnection, p.ConnectionID)
	remaining := len(m.participants)
	m.mu.Unlock()

	connectionID := p.ConnectionID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.store.MarkSessionEnded(ctx, connectionID); err != nil {
			slog.Error("failed to mark session ended",
				"connectionId", connectionID, "participantId", participantID, "error", err)
		}
	}()

	if m.presence != nil {
		if err := m.presence.RemovePeer(ctx, m.roomID, participantID); err != nil {
			slog.Warn("presence mirror remove failed", "participantId", participantID, "error", err)
		}
	}

	slog.Info("participant left", "roomId", m.roomID,
		"participantId", participantID, "count", remaining)
	return nil
}

// Lookup returns a copy of the participant with the given id.
func (m *Manager) Lookup(participantID string) (models.Participant, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[participantID]
	if !ok {
		return models.Participant{}, false
	}
	return *p, true
}

// LookupByConnection resolves a connection id to its participant.
func (m *Manager) LookupByConnection(connectionID string) (models.Participant, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byConnection[connectionID]
	if !ok {
		return models.Participant{}, false
	}
	return *m.participants[id], true
}

// Participants returns a snapshot of current members.
func (m *Manager) Participants() []models.Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Participant, 0, len(m.participants))
	for _, p := range m.participants {
		out = append(out, *p)
	}
	return out
}

// Count returns the number of live participants.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.participants)
}

// Capacity returns the configured participant ceiling.
func (m *Manager) Capacity() int { return m.maxCapacity }

// IsFull reports whether the room is at capacity.
func (m *Manager) IsFull() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.participants) >= m.maxCapacity
}

// AvailableSlots returns how many more participants may join.
func (m *Manager) AvailableSlots() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxCapacity - len(m.participants)
}

// SetMuted flips a participant's mute flag, reporting whether it was found.
func (m *Manager) SetMuted(participantID string, muted bool) (models.Participant, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[participantID]
	if !ok {
		return models.Participant{}, false
	}
	p.IsMuted = muted
	return *p, true
}

// SetSharingScreen keeps the registry's view of the screen-share flag in
// step with the screen-share lock.
func (m *Manager) SetSharingScreen(participantID string, sharing bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[participantID]
	if !ok {
		return false
	}
	p.IsSharingScreen = sharing
	return true
}

// SetConnectionQuality updates a participant's transport health rating.
func (m *Manager) SetConnectionQuality(participantID string, q models.ConnectionQuality) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[participantID]
	if !ok {
		return false
	}
	p.ConnectionQuality = q
	return true
}
