// Package screenshare arbitrates the room-wide exclusive right to present.
// The lock cell is Idle or Active(owner); at most one owner exists at any
// instant. The manager returns event descriptors, broadcasting them is the
// transport's job.
package screenshare

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/voxroom/voxroom/internal/models"
)

// Registry is the read-only slice of the room registry this manager consumes.
type Registry interface {
	LookupByConnection(connectionID string) (models.Participant, bool)
	Lookup(participantID string) (models.Participant, bool)
}

// Audit receives one write per successful grant. A failed write refuses the
// grant, mirroring the room manager's join discipline.
type Audit interface {
	RecordScreenShare(ctx context.Context, roomID, participantID string) error
}

// Event is the broadcast descriptor produced by a lock transition.
type Event struct {
	Name          string
	ParticipantID string
}

type Manager struct {
	mu sync.Mutex

	roomID   string
	registry Registry
	audit    Audit

	ownerID     string // empty means unheld
	activatedAt time.Time
}

func NewManager(roomID string, registry Registry, audit Audit) *Manager {
	return &Manager{
		roomID:   roomID,
		registry: registry,
		audit:    audit,
	}
}

// Request asks for the lock on behalf of connectionID.
//
// The grant is provisional until the audit write lands: the owner cell is
// claimed first so a concurrent request sees Active, then rolled back to its
// prior value if the write fails.
func (m *Manager) Request(ctx context.Context, connectionID string) (Event, error) {
	p, ok := m.registry.LookupByConnection(connectionID)
	if !ok {
		return Event{}, ErrUnauthorizedParticipant
	}

	m.mu.Lock()
	switch m.ownerID {
	case p.ID:
		// Same owner re-requesting. No new audit row, no state change.
		m.mu.Unlock()
		return Event{Name: models.EventScreenShareStarted, ParticipantID: p.ID}, nil
	case "":
		m.ownerID = p.ID
		m.activatedAt = time.Now()
		m.mu.Unlock()
	default:
		m.mu.Unlock()
		return Event{}, ErrInUse
	}

	if m.audit != nil {
		if err := m.audit.RecordScreenShare(ctx, m.roomID, p.ID); err != nil {
			m.mu.Lock()
			if m.ownerID == p.ID {
				m.ownerID = ""
				m.activatedAt = time.Time{}
			}
			m.mu.Unlock()
			slog.Error("screen share grant rolled back, audit write failed",
				"roomId", m.roomID, "participantId", p.ID, "error", err)
			return Event{}, err
		}
	}

	slog.Info("screen share started", "roomId", m.roomID, "participantId", p.ID)
	return Event{Name: models.EventScreenShareStarted, ParticipantID: p.ID}, nil
}

// Stop releases the lock. Only the current owner may release it.
func (m *Manager) Stop(connectionID string) (Event, error) {
	p, ok := m.registry.LookupByConnection(connectionID)
	if !ok {
		return Event{}, ErrUnauthorizedParticipant
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.ownerID {
	case "":
		return Event{}, ErrNotActive
	case p.ID:
		m.ownerID = ""
		m.activatedAt = time.Time{}
		slog.Info("screen share stopped", "roomId", m.roomID, "participantId", p.ID)
		return Event{Name: models.EventScreenShareStopped, ParticipantID: p.ID}, nil
	default:
		return Event{}, ErrUnauthorizedStop
	}
}

// OnParticipantDisconnected forcibly releases the lock when its owner drops.
// The returned bool reports whether a stop event was produced; callers
// broadcast it exactly once.
func (m *Manager) OnParticipantDisconnected(participantID string) (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ownerID != participantID {
		return Event{}, false
	}
	m.ownerID = ""
	m.activatedAt = time.Time{}
	slog.Info("screen share force-released on disconnect",
		"roomId", m.roomID, "participantId", participantID)
	return Event{Name: models.EventScreenShareStopped, ParticipantID: participantID}, true
}

// IsActive reports whether the lock is held.
func (m *Manager) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ownerID != ""
}

// CurrentOwner returns the holder's participant id, or empty when unheld.
func (m *Manager) CurrentOwner() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ownerID
}

// ActivatedAt returns when the current grant began.
func (m *Manager) ActivatedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activatedAt
}
