package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voxroom/voxroom/config"
)

const presenceTTL = 24 * time.Hour

// Presence mirrors room metadata and live membership into Redis for the
// operator API. Every write is best-effort: the room registry in memory is
// authoritative and callers log (never fail on) Presence errors.
type Presence struct {
	client *redis.Client
}

// Connect initializes the Redis client and verifies the connection.
func Connect(ctx context.Context, cfg config.RedisConfig) (*Presence, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Presence{client: client}, nil
}

// Close closes the Redis connection
func (p *Presence) Close() error {
	return p.client.Close()
}

func roomKey(roomID string) string  { return "room:" + roomID }
func peersKey(roomID string) string { return "room:" + roomID + ":peers" }

// PutRoomInfo stores room metadata served by GET /api/rooms/:roomId.
func (p *Presence) PutRoomInfo(ctx context.Context, roomID string, data []byte) error {
	return p.client.Set(ctx, roomKey(roomID), data, presenceTTL).Err()
}

// GetRoomInfo fetches stored room metadata.
func (p *Presence) GetRoomInfo(ctx context.Context, roomID string) ([]byte, error) {
	return p.client.Get(ctx, roomKey(roomID)).Bytes()
}

// AddPeer mirrors a participant into the room's presence set.
func (p *Presence) AddPeer(ctx context.Context, roomID, participantID string) error {
	if err := p.client.SAdd(ctx, peersKey(roomID), participantID).Err(); err != nil {
		return err
	}
	return p.client.Expire(ctx, peersKey(roomID), presenceTTL).Err()
}

// RemovePeer drops a participant from the room's presence set.
func (p *Presence) RemovePeer(ctx context.Context, roomID, participantID string) error {
	return p.client.SRem(ctx, peersKey(roomID), participantID).Err()
}

// PeerCount returns the mirrored membership size.
func (p *Presence) PeerCount(ctx context.Context, roomID string) (int, error) {
	n, err := p.client.SCard(ctx, peersKey(roomID)).Result()
	return int(n), err
}
