// Package connmgr tracks raw transport connections process-wide. It knows
// nothing about rooms or participants; it only enforces the global connection
// ceiling and keeps last-activity bookkeeping for the idle sweep.
package connmgr

import (
	"log/slog"
	"sync"
	"time"

	"github.com/voxroom/voxroom/internal/models"
	"github.com/voxroom/voxroom/internal/ratelimit"
)

type connection struct {
	id          string
	metadata    models.ConnectionMetadata
	connectedAt time.Time
	lastActive  time.Time
}

// Manager tracks live transport connections against a configured maximum.
type Manager struct {
	mu sync.Mutex

	clock ratelimit.Clock
	max   int

	conns map[string]*connection
}

// Stats is a read-only snapshot for observability.
type Stats struct {
	Total     int           `json:"total"`
	Max       int           `json:"max"`
	Available int           `json:"available"`
	Oldest    time.Time     `json:"oldest,omitzero"`
	Newest    time.Time     `json:"newest,omitzero"`
	AvgAge    time.Duration `json:"avgAgeNs"`
}

func New(clock ratelimit.Clock, max int) *Manager {
	if clock == nil {
		clock = ratelimit.RealClock{}
	}
	return &Manager{
		clock: clock,
		max:   max,
		conns: make(map[string]*connection),
	}
}

// Add records a connection. It returns false, with no side effects, when the
// ceiling is reached. Re-adding an existing id refreshes its last-activity
// timestamp and succeeds.
func (m *Manager) Add(id string, meta models.ConnectionMetadata) bool {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.conns[id]; ok {
		c.lastActive = now
		return true
	}

	if m.max > 0 && len(m.conns) >= m.max {
		return false
	}

	m.conns[id] = &connection{
		id:          id,
		metadata:    meta,
		connectedAt: now,
		lastActive:  now,
	}
	return true
}

// Remove deletes a tracked connection, reporting whether it was present.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conns[id]; !ok {
		return false
	}
	delete(m.conns, id)
	return true
}

// Touch refreshes a connection's last-activity timestamp.
func (m *Manager) Touch(id string) {
	now := m.clock.Now()

	m.mu.Lock()
	if c, ok := m.conns[id]; ok {
		c.lastActive = now
	}
	m.mu.Unlock()
}

// Count returns the number of tracked connections.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// Stats snapshots the connection table.
func (m *Manager) Stats() Stats {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		Total: len(m.conns),
		Max:   m.max,
	}
	if m.max > 0 {
		s.Available = m.max - len(m.conns)
	}

	var totalAge time.Duration
	for _, c := range m.conns {
		if s.Oldest.IsZero() || c.connectedAt.Before(s.Oldest) {
			s.Oldest = c.connectedAt
		}
		if c.connectedAt.After(s.Newest) {
			s.Newest = c.connectedAt
		}
		totalAge += now.Sub(c.connectedAt)
	}
	if len(m.conns) > 0 {
		s.AvgAge = totalAge / time.Duration(len(m.conns))
	}
	return s
}

// CleanupIdle removes connections whose last activity exceeds maxIdle and
// returns how many were removed.
func (m *Manager) CleanupIdle(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, c := range m.conns {
		if now.Sub(c.lastActive) > maxIdle {
			delete(m.conns, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("cleaned up idle connections", "removed", removed, "remaining", len(m.conns))
	}
	return removed
}
