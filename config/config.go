package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	JWTSecret      string
	Redis          RedisConfig
	Mongo          MongoConfig
	Room           RoomConfig
	Limits         LimitsConfig
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MongoConfig struct {
	URI      string
	Database string
}

type RoomConfig struct {
	ID              string
	MaxParticipants int
}

type LimitsConfig struct {
	// MaxConnections caps transport connections process-wide, before any
	// room admission happens.
	MaxConnections int

	// SignalRateLimit is the number of signaling messages one sender may
	// relay within SignalRateWindow (fixed window).
	SignalRateLimit  int
	SignalRateWindow time.Duration

	// ConnectionIDMaxLen bounds connection ids; over-long ids are truncated
	// rather than rejected.
	ConnectionIDMaxLen int

	// IdleTimeout controls the periodic sweep of connections with no
	// activity. Zero disables the sweep.
	IdleTimeout time.Duration
}

func Load() *Config {
	// Parse allowed origins (comma-separated)
	originsStr := getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	origins := strings.Split(originsStr, ",")

	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: origins,
		JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "voxroom"),
		},
		Room: RoomConfig{
			ID:              getEnv("ROOM_ID", "default"),
			MaxParticipants: getEnvInt("ROOM_MAX_PARTICIPANTS", 10),
		},
		Limits: LimitsConfig{
			MaxConnections:     getEnvInt("MAX_CONNECTIONS", 100),
			SignalRateLimit:    getEnvInt("SIGNAL_RATE_LIMIT", 50),
			SignalRateWindow:   getEnvDuration("SIGNAL_RATE_WINDOW", 10*time.Second),
			ConnectionIDMaxLen: getEnvInt("MAX_CONNECTION_ID_LEN", 128),
			IdleTimeout:        getEnvDuration("CONNECTION_IDLE_TIMEOUT", 5*time.Minute),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
