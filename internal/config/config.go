// Package config loads lingobot settings from defaults, an optional config
// file, a .env file and LINGOBOT_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/valpere/lingobot/internal/generator"
)

const EnvPrefix = "LINGOBOT"

type Config struct {
	LogEnv      string            `mapstructure:"log_env"`
	DBPath      string            `mapstructure:"db_path"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Translation TranslationConfig `mapstructure:"translation"`
	Generation  GenerationConfig  `mapstructure:"generation"`
	Services    ServicesConfig    `mapstructure:"services"`
	Server      ServerConfig      `mapstructure:"server"`
}

type CacheConfig struct {
	// Backend is one of "none", "memory", "sqlite" or "redis".
	Backend       string        `mapstructure:"backend"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type TranslationConfig struct {
	// Forward lists the services tried in order for source→English hops.
	Forward []string `mapstructure:"forward"`
	// Backward lists the services tried in order for English→target hops.
	Backward    []string      `mapstructure:"backward"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Validate    bool          `mapstructure:"validate"`
	ChunkSize   int           `mapstructure:"chunk_size"`
	Glossary    bool          `mapstructure:"glossary"`
	// Style is extra guidance for LLM translators, e.g. a register.
	Style string `mapstructure:"style"`
	// RateLimit caps calls per second into each service; 0 disables it.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

type GenerationConfig struct {
	// Backend is the default choice, "local" or "hosted".
	Backend     string        `mapstructure:"backend"`
	Instruction string        `mapstructure:"instruction"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type ServicesConfig struct {
	Google     GoogleConfig     `mapstructure:"google"`
	MyMemory   MyMemoryConfig   `mapstructure:"mymemory"`
	Systran    SystranConfig    `mapstructure:"systran"`
	Ollama     OllamaConfig     `mapstructure:"ollama"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
}

type GoogleConfig struct {
	Credentials string `mapstructure:"credentials"`
	ProjectID   string `mapstructure:"project_id"`
}

type MyMemoryConfig struct {
	Email string `mapstructure:"email"`
}

type SystranConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type OllamaConfig struct {
	URL string `mapstructure:"url"`
	// Models rotated by the ollama translation service.
	Models []string `mapstructure:"models"`
	// GenerateModel answers questions for the local backend.
	GenerateModel string `mapstructure:"generate_model"`
}

type OpenRouterConfig struct {
	APIKey string   `mapstructure:"api_key"`
	Models []string `mapstructure:"models"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_env", "development")
	v.SetDefault("db_path", "./data/lingobot.db")

	v.SetDefault("cache.backend", "sqlite")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", 24*time.Hour)

	v.SetDefault("translation.forward", []string{"google", "mymemory"})
	v.SetDefault("translation.backward", []string{"google", "mymemory"})
	v.SetDefault("translation.max_attempts", 1)
	v.SetDefault("translation.retry_delay", 500*time.Millisecond)
	v.SetDefault("translation.timeout", 30*time.Second)
	v.SetDefault("translation.validate", true)
	v.SetDefault("translation.chunk_size", 450)
	v.SetDefault("translation.glossary", true)
	v.SetDefault("translation.style", "")
	v.SetDefault("translation.rate_limit", 0.0)
	v.SetDefault("translation.rate_burst", 1)

	v.SetDefault("generation.backend", "local")
	v.SetDefault("generation.instruction", generator.DefaultInstruction)
	v.SetDefault("generation.max_tokens", 150)
	v.SetDefault("generation.timeout", 120*time.Second)

	// Secrets have empty defaults so AutomaticEnv can bind them.
	v.SetDefault("services.google.credentials", "")
	v.SetDefault("services.google.project_id", "")
	v.SetDefault("services.mymemory.email", "")
	v.SetDefault("services.systran.api_key", "")
	v.SetDefault("services.openrouter.api_key", "")
	v.SetDefault("services.openrouter.models", []string{})
	v.SetDefault("services.openai.api_key", "")
	v.SetDefault("cache.redis_password", "")

	v.SetDefault("services.ollama.url", "http://localhost:11434")
	v.SetDefault("services.ollama.models", []string{})
	v.SetDefault("services.ollama.generate_model", "gemma2:2b")
	v.SetDefault("services.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("services.openai.model", "gpt-4o-mini")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 180*time.Second)
}

// Load reads configuration. path may be empty, in which case lingobot.yaml
// is searched for in the working directory and $HOME/.config/lingobot; a
// missing file is not an error in that case. A .env file in the working
// directory is loaded into the environment first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("lingobot")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "lingobot"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "none", "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Generation.Backend {
	case "local", "hosted":
	default:
		return fmt.Errorf("unknown generation backend %q", c.Generation.Backend)
	}
	if c.Translation.MaxAttempts < 1 {
		c.Translation.MaxAttempts = 1
	}
	if !strings.Contains(c.Generation.Instruction, "%s") {
		return fmt.Errorf("generation.instruction must contain %%s for the question")
	}
	return nil
}
