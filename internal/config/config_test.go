package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"RECORD_CACHE_MAX_ITEMS", "MAX_DOCUMENT_BYTES", "BATCH_WORKERS", "MAX_BATCH_DOCUMENTS",
		"BATCH_TIMEOUT_MS", "RULES_FILE", "FREIGHT_WINDOW_CHARS", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, 256, cfg.RecordCacheMaxItems)
	assert.Equal(t, 10*1024*1024, cfg.MaxDocumentBytes)
	assert.Equal(t, 8, cfg.BatchWorkers)
	assert.Equal(t, 50, cfg.MaxBatchDocuments)
	assert.Equal(t, 60*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "", cfg.RulesFile)
	assert.Equal(t, 200, cfg.FreightWindowChars)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.LogCompress)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BATCH_WORKERS", "2")
	t.Setenv("FREIGHT_WINDOW_CHARS", "120")
	t.Setenv("RULES_FILE", "/etc/nfextract/rules.yaml")
	t.Setenv("LOG_COMPRESS", "off")
	t.Setenv("BATCH_TIMEOUT_MS", "1500")

	cfg := Load()
	assert.Equal(t, 2, cfg.BatchWorkers)
	assert.Equal(t, 120, cfg.FreightWindowChars)
	assert.Equal(t, "/etc/nfextract/rules.yaml", cfg.RulesFile)
	assert.False(t, cfg.LogCompress)
	assert.Equal(t, 1500*time.Millisecond, cfg.BatchTimeout)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("MAX_BATCH_DOCUMENTS", "many")
	t.Setenv("LOG_COMPRESS", "maybe")

	cfg := Load()
	assert.Equal(t, MaxBatchDocumentsValue, cfg.MaxBatchDocuments)
	assert.True(t, cfg.LogCompress)
}
