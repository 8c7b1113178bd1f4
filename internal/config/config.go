package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Bot Settings
	BotToken         string
	BotName          string
	Version          string
	StayConnected247 bool

	// Database
	DatabaseURL string
	UseDatabase bool

	// Directories (fallback for file-based storage)
	PlaylistDir string

	// Logging
	LogLevel string
	LogFile  string

	// Performance
	WorkerCount       int
	PrefetchQueueSize int
	CacheSize         int
	CacheTTLMinutes   int

	// Music behavior
	DefaultVolume  int
	AutoDJDefault  bool
	IdleTimeoutMin int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable is required")
	}

	if len(botToken) < 50 {
		return nil, fmt.Errorf("invalid BOT_TOKEN format (too short)")
	}

	// Database configuration
	var databaseURL string
	useDatabase := getEnvBool("USE_DATABASE", false)
	if useDatabase {
		databaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			os.Getenv("POSTGRES_USER"),
			os.Getenv("POSTGRES_PASSWORD"),
			getEnvOrDefault("POSTGRES_HOST", "localhost"),
			getEnvOrDefault("POSTGRES_PORT", "5432"),
			os.Getenv("POSTGRES_DB"),
		)
	}

	cfg := &Config{
		// Bot Settings
		BotToken:         botToken,
		BotName:          getEnvOrDefault("BOT_NAME", "Soundwave"),
		Version:          getEnvOrDefault("VERSION", "1.0.0"),
		StayConnected247: getEnvBool("STAY_CONNECTED_24_7", false),

		// Database
		DatabaseURL: databaseURL,
		UseDatabase: useDatabase,

		// Directories
		PlaylistDir: getEnvOrDefault("PLAYLIST_DIR", "./playlists"),

		// Logging
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
		LogFile:  getEnvOrDefault("LOG_FILE", ""),

		// Performance
		WorkerCount:       getEnvInt("WORKER_COUNT", 3),
		PrefetchQueueSize: getEnvInt("PREFETCH_QUEUE_SIZE", 50),
		CacheSize:         getEnvInt("CACHE_SIZE", 500),
		CacheTTLMinutes:   getEnvInt("CACHE_TTL_MINUTES", 5),

		// Music behavior
		DefaultVolume:  getEnvInt("DEFAULT_VOLUME", 100),
		AutoDJDefault:  getEnvBool("AUTO_DJ_DEFAULT", false),
		IdleTimeoutMin: getEnvInt("IDLE_TIMEOUT_MINUTES", 5),
	}

	if cfg.DefaultVolume < 0 || cfg.DefaultVolume > 200 {
		return nil, fmt.Errorf("DEFAULT_VOLUME must be between 0 and 200")
	}

	// File-based playlist storage needs its directory up front
	if !useDatabase {
		if err := os.MkdirAll(cfg.PlaylistDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create playlist directory: %w", err)
		}
	}

	return cfg, nil
}

// GetSafeToken returns a masked version of the token for logging
func (c *Config) GetSafeToken() string {
	if len(c.BotToken) < 15 {
		return "***"
	}
	return c.BotToken[:10] + "..." + c.BotToken[len(c.BotToken)-4:]
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "NO":
			return false
		}
	}
	return defaultValue
}
