// Package store is the persistence port for session auditing. The core only
// ever writes through it; nothing here is read back on the hot path.
package store

import (
	"context"

	"github.com/voxroom/voxroom/internal/models"
)

// SessionStore records participant sessions and screen-share grants.
type SessionStore interface {
	// InsertSession writes the audit row for a fresh join (LeftAt null).
	InsertSession(ctx context.Context, rec models.SessionRecord) error

	// MarkSessionEnded sets LeftAt on the open session for connectionID.
	MarkSessionEnded(ctx context.Context, connectionID string) error

	// RecordScreenShare writes one audit event per screen-share grant.
	RecordScreenShare(ctx context.Context, roomID, participantID string) error
}
