package config

import (
	"os"
	"strconv"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig holds relational store settings.
// Driver selects the backend; SQLitePath is only used by the sqlite driver and
// the Host/Port/User/... fields only by postgres.
type DatabaseConfig struct {
	Driver             string
	SQLitePath         string
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

// MinIOConfig holds object storage settings for MinIO.
// Export archiving is disabled when Endpoint is empty.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether an object store has been configured.
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

// NERConfig selects and configures the named-entity backend.
type NERConfig struct {
	Backend     string // huggingface, ollama or none
	HFURL       string
	HFToken     string
	Model       string
	OllamaModel string
	TimeoutSec  int
}

// OpenFDAConfig configures the adverse-event source.
type OpenFDAConfig struct {
	BaseURL    string
	TimeoutSec int
}

// CacheConfig configures memoization of adverse-event fetches.
// Redis is used when RedisAddr is set, otherwise an in-process cache.
type CacheConfig struct {
	TTLSec        int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// TTL returns the configured expiry as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Port     string
	Timezone string
	Database DatabaseConfig
	MinIO    MinIOConfig
	NER      NERConfig
	OpenFDA  OpenFDAConfig
	Cache    CacheConfig
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
func Load() *AppConfig {
	return &AppConfig{
		Port:     getEnv("PORT", "8080"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		Database: DatabaseConfig{
			Driver:             getEnv("DB_DRIVER", DriverSQLite),
			SQLitePath:         getEnv("SQLITE_PATH", "job_applications.db"),
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
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "jobdash-exports"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		NER: NERConfig{
			Backend:     getEnv("NER_BACKEND", "huggingface"),
			HFURL:       getEnv("HF_API_URL", "https://api-inference.huggingface.co/models"),
			HFToken:     getEnv("HF_API_TOKEN", ""),
			Model:       getEnv("NER_MODEL", "dbmdz/bert-large-cased-finetuned-conll03-english"),
			OllamaModel: getEnv("OLLAMA_MODEL", "llama3.2:3b"),
			TimeoutSec:  getEnvInt("NER_TIMEOUT_SEC", 30),
		},
		OpenFDA: OpenFDAConfig{
			BaseURL:    getEnv("OPENFDA_BASE_URL", "https://api.fda.gov/drug/event.json"),
			TimeoutSec: getEnvInt("OPENFDA_TIMEOUT_SEC", 15),
		},
		Cache: CacheConfig{
			TTLSec:        getEnvInt("CACHE_TTL_SEC", 3600),
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
		},
	}
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
