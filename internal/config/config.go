package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var DefaultEnvConfig *EnvConfig

type EnvConfig struct {
	// app config
	APP_PORT string
	// database config
	DB_HOST              string
	DB_PORT              int
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	DB_SSL_MODE          string
	DB_CONN_MAX_LIFETIME time.Duration
	DB_MAX_IDLE_CONNS    int
	DB_MAX_OPEN_CONNS    int
	// search and document stores; empty disables the reports that need them
	ES_URL            string
	ES_ORDER_INDEX    string
	DATASTORE_PROJECT string
	// export config
	EXPORT_MODE        string
	EXPORT_CREATOR     string
	EXPORT_MAX_ROWS    int
	EXPORT_SCROLL_SIZE int
	EXPORT_TIMEOUT     time.Duration
	// logger config
	LOG_FILE_PATH string
	LOG_LEVEL     string
	LOG_PRETTY    bool
}

// LoadEnvConfig reads .env files (a missing file is not an error) and fills
// DefaultEnvConfig from the process environment.
func LoadEnvConfig(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	DefaultEnvConfig = &EnvConfig{
		APP_PORT:             getEnvString("APP_PORT", "8080"),
		DB_HOST:              getEnvString("DB_HOST", "localhost"),
		DB_PORT:              getEnvInt("DB_PORT", 5432),
		DB_USER:              getEnvString("DB_USER", "postgres"),
		DB_PASSWORD:          getEnvString("DB_PASSWORD", "postgres"),
		DB_NAME:              getEnvString("DB_NAME", "fleet"),
		DB_SSL_MODE:          getEnvString("DB_SSL_MODE", "disable"),
		DB_CONN_MAX_LIFETIME: getEnvDuration("DB_CONN_MAX_LIFETIME", 20*time.Minute),
		DB_MAX_IDLE_CONNS:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DB_MAX_OPEN_CONNS:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
		ES_URL:               getEnvString("ES_URL", ""),
		ES_ORDER_INDEX:       getEnvString("ES_ORDER_INDEX", "orders"),
		DATASTORE_PROJECT:    getEnvString("DATASTORE_PROJECT", ""),
		EXPORT_MODE:          getEnvString("EXPORT_MODE", "memory"),
		EXPORT_CREATOR:       getEnvString("EXPORT_CREATOR", "fleet-admin"),
		EXPORT_MAX_ROWS:      getEnvInt("EXPORT_MAX_ROWS", 0),
		EXPORT_SCROLL_SIZE:   getEnvInt("EXPORT_SCROLL_SIZE", 1000),
		EXPORT_TIMEOUT:       getEnvDuration("EXPORT_TIMEOUT", 5*time.Minute),
		LOG_FILE_PATH:        getEnvString("LOG_FILE_PATH", ""),
		LOG_LEVEL:            getEnvString("LOG_LEVEL", "info"),
		LOG_PRETTY:           getEnvBool("LOG_PRETTY", false),
	}
	return nil
}

func getEnvString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if i, err := strconv.Atoi(val); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}
