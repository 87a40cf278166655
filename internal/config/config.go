package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	API       APIConfig
	Storage   StorageConfig
	Upload    UploadConfig
	Auth      AuthConfig
	Events    EventsConfig
	DevServer DevServerConfig
}

type AppConfig struct {
	Environment string `validate:"oneof=development production test"`
	LogFilePath string `validate:"required"`
	Debug       bool

	// Tracing is off unless OTEL_ENABLED=true
	OtelEnabled  bool
	OtelEndpoint string
}

type APIConfig struct {
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`
}

const (
	StorageDriverFile     = "file"
	StorageDriverSQLite   = "sqlite"
	StorageDriverRedis    = "redis"
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type StorageConfig struct {
	Driver    string `validate:"oneof=file sqlite redis postgres memory"`
	Dir       string `validate:"required_if=Driver file"`
	SQLiteDSN string `validate:"required_if=Driver sqlite"`
	RedisURL  string `validate:"required_if=Driver redis"`
	// DB_CONNECTION_STRING, used by the postgres driver
	DatabaseDSN string `validate:"required_if=Driver postgres"`
	// Lifetime of cached memory/document lists
	ListCacheTTL time.Duration
}

type UploadConfig struct {
	MaxBytes   int64         `validate:"gt=0"`
	ClearDelay time.Duration `validate:"gte=0"`
}

type AuthConfig struct {
	GoogleClientId     string
	GoogleClientSecret string
}

type EventsConfig struct {
	// Empty disables forwarding notifications to NATS
	NatsURL string
	Topic   string `validate:"required"`
}

type DevServerConfig struct {
	Port               string        `validate:"required,numeric"`
	JWTSecret          string        `validate:"required"`
	TokenTTL           time.Duration `validate:"gt=0"`
	CorsAllowedOrigins string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	stateDir := getEnv("SECOND_BRAIN_HOME", filepath.Join(home, ".second-brain"))

	return &Config{
		App: AppConfig{
			Environment:  getEnv("GO_ENV", "development"),
			LogFilePath:  getEnv("LOG_FILE_PATH", filepath.Join(stateDir, "logs", "client.log")),
			Debug:        getEnvAsBool("DEBUG", false),
			OtelEnabled:  getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		API: APIConfig{
			BaseURL: getEnv("SECOND_BRAIN_API_URL", "http://localhost:8000"),
			Timeout: getEnvAsDuration("API_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			Driver:       getEnv("STORAGE_DRIVER", StorageDriverFile),
			Dir:          getEnv("STORAGE_DIR", filepath.Join(stateDir, "state")),
			SQLiteDSN:    getEnv("SQLITE_PATH", filepath.Join(stateDir, "state.db")),
			RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
			DatabaseDSN:  getEnv("DB_CONNECTION_STRING", ""),
			ListCacheTTL: getEnvAsDuration("LIST_CACHE_TTL", 30*time.Second),
		},
		Upload: UploadConfig{
			MaxBytes:   int64(getEnvAsInt("UPLOAD_MAX_MB", 50)) * 1024 * 1024,
			ClearDelay: getEnvAsDuration("UPLOAD_CLEAR_DELAY", 5*time.Second),
		},
		Auth: AuthConfig{
			GoogleClientId:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		},
		Events: EventsConfig{
			NatsURL: getEnv("NATS_URL", ""),
			Topic:   getEnv("NOTIFICATION_TOPIC", "client.notifications"),
		},
		DevServer: DevServerConfig{
			Port:               getEnv("DEV_SERVER_PORT", "8000"),
			JWTSecret:          getEnv("JWT_SECRET", "dev-secret"),
			TokenTTL:           getEnvAsDuration("JWT_TTL", 24*time.Hour),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
	}
}

// Validate checks the loaded values before anything is wired from them.
func (c *Config) Validate() error {
	v := validator.New()
	for name, section := range map[string]interface{}{
		"app":        c.App,
		"api":        c.API,
		"storage":    c.Storage,
		"upload":     c.Upload,
		"events":     c.Events,
		"dev_server": c.DevServer,
	} {
		if err := v.Struct(section); err != nil {
			return fmt.Errorf("invalid %s config: %w", name, err)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("45s") or plain seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
