package config

import (
	"os"
	"strconv"
	"strings"
)

// DatabaseConfig holds PostgreSQL connection settings shared by all shards.
// Shards lists the database names hosting the identity partitions; a single
// entry means the deployment is unsharded.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	SSLMode            string
	Shards             []string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings. No bucket is configured here:
// the blob store uses one bucket per UIN, created on demand.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// RepoConfig holds identity-repository policy settings.
type RepoConfig struct {
	// HashKey is the HMAC key used to fingerprint documents and assets.
	HashKey string
	// ActiveStatus is the only status in which a record accepts updates.
	ActiveStatus string
	// DefaultLangCode is the locale stamped on new records and assets.
	DefaultLangCode string
	// SystemUser is recorded in created_by/updated_by audit columns.
	SystemUser string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Repo     RepoConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			Shards:             getEnvList("DB_SHARDS", getEnv("DB_NAME", "")),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Repo: RepoConfig{
			HashKey:         getEnv("HASH_KEY", ""),
			ActiveStatus:    getEnv("IDREPO_ACTIVE_STATUS", "REGISTERED"),
			DefaultLangCode: getEnv("IDREPO_DEFAULT_LANG", "AR"),
			SystemUser:      getEnv("IDREPO_SYSTEM_USER", "idrepo"),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvList parses a comma-separated value, trimming blanks.
func getEnvList(key, def string) []string {
	raw := getEnv(key, def)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
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
