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

const (
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Generation GenerationConfig
	Editor     EditorConfig
	Gallery    GalleryConfig
	App        AppConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type StoreConfig struct {
	Backend string
}

type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type GenerationConfig struct {
	URL           string
	APIKey        string
	DefaultModel  string
	Timeout       time.Duration
	Concurrency   int
	RatePerMinute int

	// ClientRatePerMinute bounds one client address across all its sessions
	ClientRatePerMinute int
}

type GalleryConfig struct {
	IdleTimeout time.Duration
}

type EditorConfig struct {
	Debounce    time.Duration
	IdleTimeout time.Duration
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", StoreRedis)),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "studio"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("REDIS_TTL", 30*24*time.Hour),
		},
		Generation: GenerationConfig{
			URL:                 getEnv("GENERATOR_URL", ""),
			APIKey:              getEnv("GENERATOR_API_KEY", ""),
			DefaultModel:        getEnv("GENERATOR_MODEL", "default"),
			Timeout:             getEnvAsDuration("GENERATION_TIMEOUT", 2*time.Minute),
			Concurrency:         getEnvAsInt("GENERATION_CONCURRENCY", 4),
			RatePerMinute:       getEnvAsInt("GENERATION_RATE_PER_MIN", 10),
			ClientRatePerMinute: getEnvAsInt("GENERATION_CLIENT_RATE_PER_MIN", 30),
		},
		Editor: EditorConfig{
			Debounce:    time.Duration(getEnvAsInt("EDITOR_DEBOUNCE_MS", 500)) * time.Millisecond,
			IdleTimeout: getEnvAsDuration("EDITOR_IDLE_TIMEOUT", 30*time.Minute),
		},
		Gallery: GalleryConfig{
			IdleTimeout: getEnvAsDuration("GALLERY_IDLE_TIMEOUT", time.Hour),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Store.Backend {
	case StoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required")
		}
	case StorePostgres:
		if c.Database.DSN == "" && c.Database.Host == "" {
			return fmt.Errorf("DB_DSN or DB_HOST is required")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreRedis, StorePostgres, c.Store.Backend)
	}

	if c.Generation.URL == "" {
		return fmt.Errorf("GENERATOR_URL is required")
	}
	if c.Generation.Concurrency < 0 {
		return fmt.Errorf("GENERATION_CONCURRENCY must not be negative")
	}
	if c.Editor.Debounce <= 0 {
		return fmt.Errorf("EDITOR_DEBOUNCE_MS must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
