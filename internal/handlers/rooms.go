package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxroom/voxroom/internal/connmgr"
	"github.com/voxroom/voxroom/internal/models"
	"github.com/voxroom/voxroom/internal/redis"
	"github.com/voxroom/voxroom/internal/room"
	"github.com/voxroom/voxroom/internal/screenshare"
)

// Rooms serves the operator-facing room API. Metadata comes from the Redis
// mirror; the live participant count comes from the in-memory registry, which
// is authoritative.
type Rooms struct {
	rooms    *room.Manager
	conns    *connmgr.Manager
	shares   *screenshare.Manager
	presence *redis.Presence
}

func NewRooms(rooms *room.Manager, conns *connmgr.Manager, shares *screenshare.Manager, presence *redis.Presence) *Rooms {
	return &Rooms{rooms: rooms, conns: conns, shares: shares, presence: presence}
}

// GetRoom returns room information (public).
func (h *Rooms) GetRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	if roomID != h.rooms.RoomID() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}

	meta := models.RoomMetadata{
		ID:               h.rooms.RoomID(),
		CreatedAt:        h.rooms.CreatedAt(),
		MaxParticipants:  h.rooms.Capacity(),
		ParticipantCount: h.rooms.Count(),
	}

	if h.presence != nil {
		if data, err := h.presence.GetRoomInfo(c.Request.Context(), roomID); err == nil {
			var stored models.RoomMetadata
			if err := json.Unmarshal(data, &stored); err == nil {
				meta.CreatedAt = stored.CreatedAt
			}
		} else {
			slog.Debug("room metadata not in redis", "roomId", roomID, "error", err)
		}
	}

	c.JSON(http.StatusOK, meta)
}

// GetStats returns connection and room statistics (requires authentication).
func (h *Rooms) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connections":       h.conns.Stats(),
		"participants":      h.rooms.Count(),
		"capacity":          h.rooms.Capacity(),
		"availableSlots":    h.rooms.AvailableSlots(),
		"screenShareActive": h.shares.IsActive(),
		"screenShareOwner":  h.shares.CurrentOwner(),
	})
}
