package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/lingobot/internal/generator"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, []string{"google", "mymemory"}, cfg.Translation.Forward)
	assert.Equal(t, 1, cfg.Translation.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Translation.Timeout)
	assert.Equal(t, "local", cfg.Generation.Backend)
	assert.Equal(t, generator.DefaultInstruction, cfg.Generation.Instruction)
	assert.Equal(t, 150, cfg.Generation.MaxTokens)
	assert.Equal(t, "http://localhost:11434", cfg.Services.Ollama.URL)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lingobot.yaml")
	content := `
cache:
  backend: redis
  redis_addr: cache:6379
  ttl: 1h
translation:
  forward: [ollama]
  backward: [openrouter, ollama]
  max_attempts: 3
generation:
  backend: hosted
  instruction: "Q: %s"
services:
  openai:
    model: gpt-4o
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "cache:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, []string{"ollama"}, cfg.Translation.Forward)
	assert.Equal(t, []string{"openrouter", "ollama"}, cfg.Translation.Backward)
	assert.Equal(t, 3, cfg.Translation.MaxAttempts)
	assert.Equal(t, "hosted", cfg.Generation.Backend)
	assert.Equal(t, "Q: %s", cfg.Generation.Instruction)
	assert.Equal(t, "gpt-4o", cfg.Services.OpenAI.Model)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LINGOBOT_SERVICES_OPENAI_API_KEY", "sk-test")
	t.Setenv("LINGOBOT_GENERATION_BACKEND", "hosted")
	t.Setenv("LINGOBOT_TRANSLATION_FORWARD", "systran,google")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Services.OpenAI.APIKey)
	assert.Equal(t, "hosted", cfg.Generation.Backend)
	assert.Equal(t, []string{"systran", "google"}, cfg.Translation.Forward)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Cache:       CacheConfig{Backend: "none"},
			Generation:  GenerationConfig{Backend: "local", Instruction: "%s"},
			Translation: TranslationConfig{MaxAttempts: 0},
		}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Translation.MaxAttempts, "attempts are clamped to 1")

	cfg = base()
	cfg.Cache.Backend = "memcached"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Generation.Backend = "remote"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Generation.Instruction = "no placeholder"
	assert.Error(t, cfg.Validate())
}
