package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host string
		Port string
	}

	Admin struct {
		// bcrypt hash of the admin secret; empty disables admin login
		SecretHash      string
		SessionDuration time.Duration
	}

	Match struct {
		// ScanLimit bounds how many queue entries a single dequeue
		// inspects before giving up.
		ScanLimit   int
		WaitingTTL  time.Duration
		ChattingTTL time.Duration
		// InactivityWindow is how long a pair may go without messages
		// before the janitor disconnects it.
		InactivityWindow time.Duration
	}

	Rate struct {
		MessagesPerWindow int
		Window            time.Duration
	}

	Retention struct {
		Messages time.Duration
	}
}

func New() *Config {
	cfg := &Config{}

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "anonchat")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "anonchat")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	// Admin
	cfg.Admin.SecretHash = os.Getenv("ADMIN_SECRET_HASH")
	cfg.Admin.SessionDuration = getEnvDuration("ADMIN_SESSION_DURATION", 2*time.Hour)

	// Matchmaking
	cfg.Match.ScanLimit = getEnvInt("MATCH_SCAN_LIMIT", 10)
	cfg.Match.WaitingTTL = getEnvDuration("MATCH_WAITING_TTL", 5*time.Minute)
	cfg.Match.ChattingTTL = getEnvDuration("MATCH_CHATTING_TTL", time.Hour)
	cfg.Match.InactivityWindow = getEnvDuration("PAIR_INACTIVITY_WINDOW", 5*time.Minute)

	// Rate limiting
	cfg.Rate.MessagesPerWindow = getEnvInt("RATE_LIMIT_MESSAGES", 10)
	cfg.Rate.Window = getEnvDuration("RATE_LIMIT_WINDOW", time.Minute)

	// Retention
	cfg.Retention.Messages = getEnvDuration("MESSAGE_RETENTION", 7*24*time.Hour)

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
