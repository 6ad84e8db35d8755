package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ストレージバックエンドの種別。
const (
	StorageBackendFile     = "file"
	StorageBackendPostgres = "postgres"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Storage
	StorageBackend string
	DataFile       string
	DatabaseURL    string

	// Rate Limit
	RateLimitGeneral int
	RateLimitImport  int

	// Backup
	BackupDir      string
	BackupInterval time.Duration
	BackupKeep     int

	// Logging
	LogLevel string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// STORAGE_BACKEND=postgres の場合はDATABASE_URLが必須となる。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.StorageBackend = getEnvString("STORAGE_BACKEND", StorageBackendFile)
	switch cfg.StorageBackend {
	case StorageBackendFile, StorageBackendPostgres:
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND: %q (must be %q or %q)",
			cfg.StorageBackend, StorageBackendFile, StorageBackendPostgres)
	}

	cfg.DataFile = getEnvString("DATA_FILE", "data/events.json")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.StorageBackend == StorageBackendPostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("required environment variables are not set: [DATABASE_URL]")
	}

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 240)
	cfg.RateLimitImport = getEnvInt("RATE_LIMIT_IMPORT", 10)

	// BACKUP_DIRは空文字列を明示的に設定するとバックアップを無効化できる。
	// 未設定の場合のみデフォルトに落とす。
	if v, ok := os.LookupEnv("BACKUP_DIR"); ok {
		cfg.BackupDir = v
	} else {
		cfg.BackupDir = "data/backups"
	}
	cfg.BackupInterval = getEnvDuration("BACKUP_INTERVAL", 24*time.Hour)
	cfg.BackupKeep = getEnvInt("BACKUP_KEEP", 14)

	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
