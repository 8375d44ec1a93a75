package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	PublicURL   string
	TLSCertFile string
	TLSKeyFile  string

	// Protocol
	MinClientMajor int
	MinClientMinor int

	// Table settings
	MaxTables            int
	TickRateHz           int
	AuthHandshakeSeconds int
	ReconnectGraceSecs   int
	SavedTableTTLHours   int

	// Bots
	BotThinkMinTicks int
	BotThinkMaxTicks int

	// Duration estimator
	EstimatorWorkers        int
	EstimatorTimeoutSeconds int
	SimulateBinary          string

	// Security
	JWTSecret         string
	SessionTimeoutMin int
	AllowRegistration bool
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/audioroom?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		PublicURL:   getEnv("PUBLIC_URL", "ws://localhost:8080"),
		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		// Protocol
		MinClientMajor: getEnvInt("MIN_CLIENT_MAJOR", 1),
		MinClientMinor: getEnvInt("MIN_CLIENT_MINOR", 0),

		// Table settings
		MaxTables:            getEnvInt("MAX_TABLES", 200),
		TickRateHz:           getEnvInt("TICK_RATE_HZ", 20),
		AuthHandshakeSeconds: getEnvInt("AUTH_HANDSHAKE_SECONDS", 15),
		ReconnectGraceSecs:   getEnvInt("RECONNECT_GRACE_SECONDS", 120),
		SavedTableTTLHours:   getEnvInt("SAVED_TABLE_TTL_HOURS", 720),

		// Bots
		BotThinkMinTicks: getEnvInt("BOT_THINK_MIN_TICKS", 15),
		BotThinkMaxTicks: getEnvInt("BOT_THINK_MAX_TICKS", 50),

		// Duration estimator
		EstimatorWorkers:        getEnvInt("ESTIMATOR_WORKERS", 10),
		EstimatorTimeoutSeconds: getEnvInt("ESTIMATOR_TIMEOUT_SECONDS", 120),
		SimulateBinary:          getEnv("SIMULATE_BINARY", "./gamecli"),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTimeoutMin: getEnvInt("SESSION_TIMEOUT_MINUTES", 30),
		AllowRegistration: getEnv("ALLOW_REGISTRATION", "true") == "true",
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
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
