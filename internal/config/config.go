package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Supported key-value backends.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMinIO    = "minio"
	BackendMemory   = "memory"
)

// Resource visibility scopes.
const (
	ScopeShared = "shared"
	ScopeOwner  = "owner"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// SQLiteConfig holds settings for the embedded SQLite backend.
type SQLiteConfig struct {
	Path string
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// StoreConfig selects and configures the key-value backend.
type StoreConfig struct {
	Backend  string `validate:"required,oneof=postgres sqlite minio memory"`
	Database DatabaseConfig
	SQLite   SQLiteConfig
	MinIO    MinIOConfig
}

// AuthConfig holds identity provider settings. AnonKey is the public client
// key; ServiceRoleKey is the privileged server key used for account creation.
type AuthConfig struct {
	URL            string `validate:"required,url"`
	AnonKey        string `validate:"required"`
	ServiceRoleKey string
	JWTSecret      string
	Timeout        time.Duration `validate:"gt=0"`
}

// UploadConfig holds resource upload policy.
type UploadConfig struct {
	MaxSize int64  `validate:"gt=0"`
	Scope   string `validate:"oneof=shared owner"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost      string
	Port         string `validate:"required,numeric"`
	BasePath     string
	CORSOrigins  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Store        StoreConfig
	Auth         AuthConfig
	Upload       UploadConfig
	Log          LogConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:      getEnv("APP_HOST", "localhost:8080"),
		Port:         getEnv("PORT", "8080"),
		BasePath:     strings.TrimRight(getEnv("API_BASE_PATH", ""), "/"),
		CORSOrigins:  getEnv("CORS_ALLOW_ORIGINS", "*"),
		ReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", BackendPostgres),
			Database: DatabaseConfig{
				Host:               getEnv("DB_HOST", ""),
				Port:               getEnv("DB_PORT", "5432"),
				User:               getEnv("DB_USER", ""),
				Password:           getEnv("DB_PASSWORD", ""),
				Name:               getEnv("DB_NAME", ""),
				SSLMode:            getEnv("DB_SSLMODE", "disable"),
				MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
				MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
				ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			},
			SQLite: SQLiteConfig{
				Path: getEnv("SQLITE_PATH", "resourcehub.db"),
			},
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
		},
		Auth: AuthConfig{
			URL:            strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
			AnonKey:        getEnv("SUPABASE_ANON_KEY", ""),
			ServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
			JWTSecret:      getEnv("AUTH_JWT_SECRET", ""),
			Timeout:        getEnvDuration("AUTH_TIMEOUT", 10*time.Second),
		},
		Upload: UploadConfig{
			MaxSize: getEnvInt64("UPLOAD_MAX_SIZE", 5*1024*1024),
			Scope:   getEnv("RESOURCE_SCOPE", ScopeShared),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
	}
}

// Validate checks field constraints and the settings required by the selected backend.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.Store.Backend {
	case BackendMinIO:
		m := c.Store.MinIO
		if m.Endpoint == "" || m.AccessKey == "" || m.SecretKey == "" || m.Bucket == "" {
			return fmt.Errorf("invalid config: minio backend requires endpoint, credentials and bucket")
		}
	case BackendSQLite:
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("invalid config: sqlite backend requires SQLITE_PATH")
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
