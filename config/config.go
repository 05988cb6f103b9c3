package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Port           string
	BaseURL        string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL      string
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// TrackingConfig holds the knobs of the write path.
type TrackingConfig struct {
	FingerprintSalt  string
	ViewLimit        int
	EventLimit       int
	ConversionLimit  int
	RateLimitWindow  time.Duration
	VisitDedupWindow time.Duration
	AnalyticsMaxRows int
}

type AuthConfig struct {
	JWTSecret string
}

type Config struct {
	Server   ServerConfig
	DB       DatabaseConfig
	Redis    RedisConfig
	Tracking TrackingConfig
	Auth     AuthConfig
	Env      string
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

func LoadConfig() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "")),
		},
		DB: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Driver:   getEnv("STORAGE_DRIVER", DriverPostgres),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "tracking"),
			Password: getEnv("DB_PASS", "tracking"),
			DBName:   getEnv("DB_NAME", "tracking"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Tracking: TrackingConfig{
			FingerprintSalt:  getEnv("FINGERPRINT_SALT", ""),
			ViewLimit:        getEnvInt("RATE_LIMIT_VIEW", 120),
			EventLimit:       getEnvInt("RATE_LIMIT_EVENT", 120),
			ConversionLimit:  getEnvInt("RATE_LIMIT_CONVERSION", 30),
			RateLimitWindow:  time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
			VisitDedupWindow: time.Duration(getEnvInt("VISIT_DEDUP_MINUTES", 30)) * time.Minute,
			AnalyticsMaxRows: getEnvInt("ANALYTICS_MAX_ROWS", 10000),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "SECRET"),
		},
		Env: getEnv("ENV", "prod"),
	}
}

// DSN returns the connection string, preferring DATABASE_URL when set.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: %s=%q is not an integer, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
