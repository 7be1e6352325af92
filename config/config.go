package config

import (
	"log"
	"net"
	neturl "net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds entrypoint configuration
type Config struct {
	DatabaseURL       string
	RedisAddr         string
	RedisPassword     string
	WaitInterval      time.Duration
	WaitMaxAttempts   int
	WaitBackoff       bool
	WaitMaxInterval   time.Duration
	WaitForRedis      bool
	RedisWaitTimeout  time.Duration
	CreateDatabase    bool
	SkipMigrations    bool
	SkipSeed          bool
	SeedAdminPassword string
	SpawnMode         bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = buildDatabaseURLFromEnv()
	}

	// The compose defaults ship with a throwaway password; flag it so nobody
	// carries them into a real deployment unnoticed.
	if strings.Contains(dbURL, ":password@") || strings.Contains(dbURL, ":postgres@") {
		log.Printf("Warning: database URL appears to use a default password")
	}

	waitInterval := GetEnvAsDuration("DB_WAIT_INTERVAL", 2*time.Second)
	if waitInterval <= 0 {
		log.Fatalf("DB_WAIT_INTERVAL must be positive, got %v", waitInterval)
	}

	waitMaxAttempts := GetEnvAsInt("DB_WAIT_MAX_ATTEMPTS", 0)
	if waitMaxAttempts < 0 {
		log.Fatalf("DB_WAIT_MAX_ATTEMPTS cannot be negative, got %d", waitMaxAttempts)
	}

	waitMaxInterval := GetEnvAsDuration("DB_WAIT_MAX_INTERVAL", 30*time.Second)
	if waitMaxInterval < waitInterval {
		log.Fatalf("DB_WAIT_MAX_INTERVAL (%v) cannot be shorter than DB_WAIT_INTERVAL (%v)", waitMaxInterval, waitInterval)
	}

	return &Config{
		DatabaseURL:       dbURL,
		RedisAddr:         redisAddrFromEnv(),
		RedisPassword:     resolveRedisPassword(os.Getenv("REDIS_URL"), os.Getenv("REDIS_PASSWORD")),
		WaitInterval:      waitInterval,
		WaitMaxAttempts:   waitMaxAttempts,
		WaitBackoff:       GetEnvAsBool("DB_WAIT_BACKOFF", false),
		WaitMaxInterval:   waitMaxInterval,
		WaitForRedis:      GetEnvAsBool("WAIT_FOR_REDIS", false),
		RedisWaitTimeout:  GetEnvAsDuration("REDIS_WAIT_TIMEOUT", 10*time.Second),
		CreateDatabase:    GetEnvAsBool("CREATE_DATABASE", false),
		SkipMigrations:    GetEnvAsBool("SKIP_MIGRATIONS", false),
		SkipSeed:          GetEnvAsBool("SKIP_SEED", false),
		SeedAdminPassword: GetEnvOrDefault("SEED_ADMIN_PASSWORD", ""),
		SpawnMode:         GetEnvAsBool("ENTRYPOINT_SPAWN", false),
	}
}

// GetEnvOrDefault returns environment variable value or default
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvAsBool parses environment variable as boolean
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		value = strings.ToLower(value)
		if value == "true" || value == "1" || value == "yes" {
			return true
		}
		if value == "false" || value == "0" || value == "no" {
			return false
		}
	}
	return defaultValue
}

// GetEnvAsInt parses environment variable as integer
func GetEnvAsInt(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration parses environment variable as a Go duration ("2s", "500ms")
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// buildDatabaseURLFromEnv builds a postgres URL from the discrete variables the
// deployment has always used (compose service names as defaults)
func buildDatabaseURLFromEnv() string {
	user := strings.TrimSpace(GetEnvOrDefault("POSTGRES_USER", "user"))
	pass := GetEnvOrDefault("POSTGRES_PASSWORD", "password") // may contain spaces/specials
	host := strings.TrimSpace(GetEnvOrDefault("DB_HOST", "db"))
	port := strings.TrimSpace(GetEnvOrDefault("DB_PORT", "5432"))
	name := strings.TrimSpace(GetEnvOrDefault("POSTGRES_DB", "flight_booking"))
	sslmode := strings.TrimSpace(GetEnvOrDefault("DB_SSLMODE", "disable"))

	u := &neturl.URL{
		Scheme: "postgres",
		User:   neturl.UserPassword(user, pass),
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + name,
	}
	q := neturl.Values{}
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}

// redisAddrFromEnv resolves the seat-cache address: REDIS_URL wins, otherwise
// REDIS_HOST/REDIS_PORT with the compose service defaults.
func redisAddrFromEnv() string {
	if raw := strings.TrimSpace(os.Getenv("REDIS_URL")); raw != "" {
		return normalizeRedisAddress(raw)
	}
	host := strings.TrimSpace(GetEnvOrDefault("REDIS_HOST", "redis"))
	port := strings.TrimSpace(GetEnvOrDefault("REDIS_PORT", "6379"))
	return net.JoinHostPort(host, port)
}

// normalizeRedisAddress converts redis:// URLs into host[:port] that go-redis expects.
func normalizeRedisAddress(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return trimmed
	}
	if !strings.Contains(trimmed, "://") {
		return trimmed
	}
	u, err := neturl.Parse(trimmed)
	if err != nil {
		log.Printf("Warning: could not parse REDIS_URL '%s': %v", trimmed, err)
		return trimmed
	}
	if u.Host != "" {
		return u.Host
	}
	return trimmed
}

// resolveRedisPassword returns an explicit password if provided, otherwise pulls
// the password component from a redis:// URL when available.
func resolveRedisPassword(redisURL, explicit string) string {
	if explicit != "" {
		return explicit
	}
	trimmed := strings.TrimSpace(redisURL)
	if trimmed == "" || !strings.Contains(trimmed, "://") {
		return explicit
	}
	u, err := neturl.Parse(trimmed)
	if err != nil {
		return explicit
	}
	if u.User != nil {
		if pw, ok := u.User.Password(); ok && pw != "" {
			return pw
		}
	}
	return explicit
}
