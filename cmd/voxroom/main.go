package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voxroom/voxroom/config"
	"github.com/voxroom/voxroom/internal/connmgr"
	"github.com/voxroom/voxroom/internal/handlers"
	"github.com/voxroom/voxroom/internal/hub"
	"github.com/voxroom/voxroom/internal/logging"
	"github.com/voxroom/voxroom/internal/middleware"
	"github.com/voxroom/voxroom/internal/models"
	"github.com/voxroom/voxroom/internal/ratelimit"
	"github.com/voxroom/voxroom/internal/redis"
	"github.com/voxroom/voxroom/internal/room"
	"github.com/voxroom/voxroom/internal/screenshare"
	"github.com/voxroom/voxroom/internal/signal"
	"github.com/voxroom/voxroom/internal/store"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.Environment)

	ctx := context.Background()

	// Session audit store (MongoDB).
	sessions, err := store.NewMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		slog.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer sessions.Close(ctx)
	slog.Info("MongoDB connection established", "database", cfg.Mongo.Database)

	// Presence mirror (Redis).
	presence, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer presence.Close()
	slog.Info("Redis connection established")

	// Coordination core.
	clock := ratelimit.RealClock{}
	conns := connmgr.New(clock, cfg.Limits.MaxConnections)
	rooms := room.NewManager(cfg.Room.ID, sessions, room.Options{
		MaxCapacity:        cfg.Room.MaxParticipants,
		ConnectionIDMaxLen: cfg.Limits.ConnectionIDMaxLen,
		Presence:           presence,
	})
	shares := screenshare.NewManager(cfg.Room.ID, rooms, sessions)
	transport := hub.New()
	limiter := ratelimit.NewFixedWindow(clock, cfg.Limits.SignalRateLimit, cfg.Limits.SignalRateWindow)
	relay := signal.NewHandler(rooms, transport, limiter)

	publishRoomInfo(ctx, presence, rooms)

	// Periodic idle-connection sweep.
	if cfg.Limits.IdleTimeout > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Limits.IdleTimeout / 2)
			defer ticker.Stop()
			for range ticker.C {
				conns.CleanupIdle(cfg.Limits.IdleTimeout)
			}
		}()
	}

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Global CORS middleware (runs before routing)
	router.Use(handlers.OriginFilter(cfg.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	signaling := handlers.NewSignaling(cfg, conns, rooms, relay, shares, transport)
	roomAPI := handlers.NewRooms(rooms, conns, shares, presence)

	apiGroup := router.Group("/api")
	{
		// Login endpoint (public)
		apiGroup.POST("/auth/login", handlers.Login(cfg.JWTSecret))

		// Room info (public)
		apiGroup.GET("/rooms/:roomId", roomAPI.GetRoom)

		// Connection statistics (requires JWT)
		apiGroup.GET("/stats", middleware.JWTAuth(cfg.JWTSecret), roomAPI.GetStats)
	}

	// WebSocket signaling endpoint
	wsGroup := router.Group("/ws")
	{
		wsGroup.GET("/signal/:roomId", signaling.Handle)
	}

	slog.Info("starting voxroom signaling server", "port", cfg.Port, "roomId", cfg.Room.ID)
	if err := router.Run(":" + cfg.Port); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// publishRoomInfo mirrors the room's static metadata into Redis for the
// operator API. Best-effort.
func publishRoomInfo(ctx context.Context, presence *redis.Presence, rooms *room.Manager) {
	meta := models.RoomMetadata{
		ID:              rooms.RoomID(),
		CreatedAt:       rooms.CreatedAt(),
		MaxParticipants: rooms.Capacity(),
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return
	}
	if err := presence.PutRoomInfo(ctx, rooms.RoomID(), data); err != nil {
		slog.Warn("failed to publish room info", "error", err)
	}
}
