// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/usestring/nfextract-mcp/pkg/fiscal"
)

// Input limit defaults
const (
	MaxDocumentBytesValue  = 10 << 20 // 10 MiB
	MaxBatchDocumentsValue = 50
	BatchWorkersValue      = 8
)

// Config holds all configuration for the MCP server.
type Config struct {
	RecordCacheMaxItems int           // RECORD_CACHE_MAX_ITEMS, default 256
	MaxDocumentBytes    int           // MAX_DOCUMENT_BYTES, default 10 MiB
	BatchWorkers        int           // BATCH_WORKERS, default 8
	MaxBatchDocuments   int           // MAX_BATCH_DOCUMENTS, default 50
	BatchTimeout        time.Duration // BATCH_TIMEOUT_MS, default 60000ms (60s)

	// Rule catalog
	RulesFile          string // RULES_FILE, default "" (built-in rules only)
	FreightWindowChars int    // FREIGHT_WINDOW_CHARS, default 200

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, default "text"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		RecordCacheMaxItems: getEnvInt("RECORD_CACHE_MAX_ITEMS", 256),
		MaxDocumentBytes:    getEnvInt("MAX_DOCUMENT_BYTES", MaxDocumentBytesValue),
		BatchWorkers:        getEnvInt("BATCH_WORKERS", BatchWorkersValue),
		MaxBatchDocuments:   getEnvInt("MAX_BATCH_DOCUMENTS", MaxBatchDocumentsValue),
		BatchTimeout:        getEnvDurationMs("BATCH_TIMEOUT_MS", 60000),

		RulesFile:          getEnvString("RULES_FILE", ""),
		FreightWindowChars: getEnvInt("FREIGHT_WINDOW_CHARS", fiscal.DefaultFreightWindow),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFormat:     getEnvString("LOG_FORMAT", "text"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
