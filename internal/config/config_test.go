package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Translation: TranslationConfig{
			APIKey:       "key",
			BaseURL:      "https://api.openai.com/v1",
			Model:        "gpt-4o-mini",
			ChunkSize:    4000,
			ChunkOverlap: 200,
		},
		Storage: StorageConfig{Driver: "local"},
		Worker:  WorkerConfig{Concurrency: 5, Queue: "translation"},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRequiresTranslationSettings(t *testing.T) {
	cfg := validConfig()
	cfg.Translation.APIKey = ""
	cfg.Translation.Model = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "translation.api_key")
	assert.Contains(t, err.Error(), "translation.model")
}

func TestValidateChunking(t *testing.T) {
	cfg := validConfig()
	cfg.Translation.ChunkOverlap = cfg.Translation.ChunkSize
	assert.ErrorContains(t, cfg.Validate(), "invalid chunking")
}

func TestValidateStorageDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "r2"
	assert.ErrorContains(t, cfg.Validate(), "r2.bucket_name")

	cfg.R2 = R2Config{AccountID: "acct", BucketName: "outputs"}
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Driver = "ftp"
	assert.ErrorContains(t, cfg.Validate(), "unknown storage.driver")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TRANSLATION_API_KEY", "env-key")
	t.Setenv("DEFAULT_TARGET_LANGUAGE", "Japanese")
	t.Setenv("WORKER_CONCURRENCY", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Translation.APIKey)
	assert.Equal(t, "Japanese", cfg.Translation.DefaultLanguage)
	assert.Equal(t, 3, cfg.Worker.Concurrency)
	assert.Equal(t, 4000, cfg.Translation.ChunkSize)
	assert.Equal(t, 200, cfg.Translation.ChunkOverlap)
	assert.Equal(t, 24*time.Hour, cfg.Storage.Retention)
	assert.Equal(t, 10, cfg.Upload.MaxSizeMB)
	assert.Equal(t, 50, cfg.Upload.PremiumMaxSizeMB)
}

func TestReadSecretFromFile(t *testing.T) {
	path := t.TempDir() + "/secret"
	require.NoError(t, os.WriteFile(path, []byte("s3cret\n"), 0o600))
	t.Setenv("TEST_SECRET", "")
	t.Setenv("TEST_SECRET_FILE", path)

	readSecret("TEST_SECRET")
	assert.Equal(t, "s3cret", os.Getenv("TEST_SECRET"))
}
