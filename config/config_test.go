package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults with env secrets", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "test-key")
		t.Setenv("JWT_SECRET", "test-secret")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.ServerPort)
		assert.Equal(t, "test-key", cfg.OpenAIAPIKey)
		assert.Equal(t, 2*time.Second, cfg.BatchDelay)
		assert.Equal(t, 1500*time.Millisecond, cfg.NarrationDelay)
		assert.Equal(t, 50, cfg.AudioLimit)
		assert.Equal(t, 100, cfg.InsertChunkSize)
	})

	t.Run("secret read from file", func(t *testing.T) {
		dir := t.TempDir()
		keyFile := filepath.Join(dir, "openai_key")
		require.NoError(t, os.WriteFile(keyFile, []byte("  file-key\n"), 0600))

		t.Setenv("OPENAI_API_KEY", "")
		t.Setenv("OPENAI_API_KEY_FILE", keyFile)
		t.Setenv("JWT_SECRET", "test-secret")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "file-key", cfg.OpenAIAPIKey)
	})

	t.Run("missing api key fails validation", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		t.Setenv("OPENAI_API_KEY_FILE", "")
		t.Setenv("JWT_SECRET", "test-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	})

	t.Run("tuning overrides parsed", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "test-key")
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("GENERATION_BATCH_DELAY", "500ms")
		t.Setenv("PIPELINE_AUDIO_LIMIT", "10")
		t.Setenv("INSERT_CHUNK_SIZE", "25")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 500*time.Millisecond, cfg.BatchDelay)
		assert.Equal(t, 10, cfg.AudioLimit)
		assert.Equal(t, 25, cfg.InsertChunkSize)
	})

	t.Run("zero chunk size rejected", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "test-key")
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("INSERT_CHUNK_SIZE", "0")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "INSERT_CHUNK_SIZE")
	})
}
