package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// Auth
	JWTSecret      string
	GoogleClientID string

	// CORS
	CORSOrigins []string

	// Chat
	ChatSessionKey string
	ChatLogPath    string
	ChatLogBuffer  int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		Env:            getEnvOrDefault("ENV", "development"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		DatabaseURL:    mustGetEnv("DATABASE_URL"),
		MigrationsDir:  getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:       mustGetEnv("REDIS_URL"),
		JWTSecret:      mustGetEnv("JWT_SECRET"),
		GoogleClientID: getEnvOrDefault("GOOGLE_CLIENT_ID", ""),
		CORSOrigins:    getEnvAsListOrDefault("CORS_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		ChatSessionKey: getEnvOrDefault("CHAT_SESSION_KEY", "default_user"),
		ChatLogPath:    getEnvOrDefault("CHAT_LOG_PATH", "chat_logs.jsonl"),
		ChatLogBuffer:  getEnvAsIntOrDefault("CHAT_LOG_BUFFER", 256),
	}

	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvAsListOrDefault splits a comma-separated value, dropping blanks.
func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}

	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
