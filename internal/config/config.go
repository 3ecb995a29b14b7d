// Package config provides environment configuration for the client and the
// development server.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Client holds configuration for the terminal client.
type Client struct {
	// API settings
	BaseURL string

	// Session persistence
	SessionFile string

	// Transcript polling
	PollInterval time.Duration

	// Logging
	LogLevel string
}

// Server holds configuration for the development stub server.
type Server struct {
	// Server settings
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// JWT settings
	JWTSecret     string
	JWTExpiration time.Duration

	// LLM settings
	AnthropicAPIKey string
	OpenAIAPIKey    string

	// NATS transcript backend (in-memory when empty)
	NATSURL   string
	NATSToken string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string
}

// LoadClient reads client configuration from the environment, after loading a
// .env file when one is present.
func LoadClient() *Client {
	_ = godotenv.Load()

	return &Client{
		BaseURL:      getEnv("AVA_API_BASE_URL", "http://localhost:8080"),
		SessionFile:  getEnv("AVA_SESSION_FILE", defaultSessionFile()),
		PollInterval: getDurationEnv("AVA_POLL_INTERVAL", 3*time.Second),
		LogLevel:     getEnv("LOG_LEVEL", "error"),
	}
}

// LoadServer reads server configuration from the environment, after loading a
// .env file when one is present.
func LoadServer() *Server {
	_ = godotenv.Load()

	return &Server{
		Port:               getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		JWTSecret:     getEnv("JWT_SECRET", "development-secret-change-in-production"),
		JWTExpiration: getDurationEnv("JWT_EXPIRATION", 24*time.Hour),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),

		NATSURL:   getEnv("NATS_URL", ""),
		NATSToken: getEnv("NATS_TOKEN", ""),

		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "ava-session.json")
	}
	return filepath.Join(dir, "ava", "session.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
