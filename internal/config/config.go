// Package config loads grocery settings from defaults, an optional YAML
// file, a .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/grocery/internal/domain"
	"github.com/hammamikhairi/grocery/internal/logger"
)

// Environment variable names.
const (
	EnvDataDir     = "GROCERY_LISTS_DIR"
	EnvProvider    = "GROCERY_LLM_PROVIDER"
	EnvModel       = "GROCERY_LLM_MODEL"
	EnvGPTKey      = "GPT_CHAT_KEY"
	EnvGPTEndpoint = "GPT_CHAT_ENDPOINT"
	EnvOpenAIKey   = "OPENAI_API_KEY"
	EnvGeminiKey   = "GEMINI_API_KEY"
	EnvStorage     = "GROCERY_STORAGE"
	EnvLogLevel    = "GROCERY_LOG_LEVEL"
)

// LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Storage backends for staples and pantry.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// DefaultSections is the store walk order used when none is configured.
var DefaultSections = []string{
	"Produce",
	"Meat & Seafood",
	"Dairy & Eggs",
	"Bakery & Bread",
	"Pantry & Dry Goods",
	"Canned & Jarred Goods",
	"Frozen",
	"Spices & Seasonings",
	"Oils & Condiments",
	"Beverages",
	domain.CatchAllSection,
}

// Config holds every grocery setting.
type Config struct {
	DataDir       string        `yaml:"data_dir"`
	LLM           LLMConfig     `yaml:"llm"`
	StoreSections []string      `yaml:"store_sections"`
	SystemPrompt  string        `yaml:"system_prompt"`
	LogLevel      string        `yaml:"log_level"`
	Storage       StorageConfig `yaml:"storage"`
	Fetch         FetchConfig   `yaml:"fetch"`
}

// LLMConfig configures the language model collaborator.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"api_key"`
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// StorageConfig selects where staples and pantry live.
type StorageConfig struct {
	Backend string `yaml:"backend"`
}

// FetchConfig tunes recipe page downloads.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		DataDir: filepath.Join(home, ".grocery_lists"),
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o",
			MaxTokens:   4096,
			Temperature: 0.2,
			Timeout:     60 * time.Second,
		},
		StoreSections: append([]string(nil), DefaultSections...),
		Storage:       StorageConfig{Backend: BackendJSON},
		Fetch:         FetchConfig{Timeout: 15 * time.Second},
		LogLevel:      "normal",
	}
}

// Load builds the configuration. dataDir, when set, overrides every
// other source for data_dir. path may be empty, in which case
// <data_dir>/config.yaml is read if it exists. envFiles are passed to
// godotenv; a missing .env is not an error.
func Load(path, dataDir string, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load env file: %w", err)
	}

	cfg := Default()
	if dir := os.Getenv(EnvDataDir); dir != "" {
		cfg.DataDir = dir
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.DataDir, "config.yaml")
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides lets environment variables win over the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvProvider); v != "" {
		c.LLM.Provider = strings.ToLower(v)
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(EnvGPTEndpoint); v != "" {
		c.LLM.Endpoint = v
	}
	if v := os.Getenv(EnvStorage); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("GROCERY_LLM_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.LLM.MaxTokens = n
		}
	}

	switch c.LLM.Provider {
	case ProviderGemini:
		if v := os.Getenv(EnvGeminiKey); v != "" {
			c.LLM.APIKey = v
		}
		if c.LLM.Model == "" || strings.HasPrefix(c.LLM.Model, "gpt-") {
			c.LLM.Model = "gemini-2.5-flash"
		}
	default:
		if v := os.Getenv(EnvOpenAIKey); v != "" {
			c.LLM.APIKey = v
		}
		// GPT_CHAT_KEY pairs with GPT_CHAT_ENDPOINT and wins when both are set.
		if v := os.Getenv(EnvGPTKey); v != "" {
			c.LLM.APIKey = v
		}
	}
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("config: data_dir is empty")
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("config: unknown llm provider %q", c.LLM.Provider)
	}
	switch c.Storage.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if len(c.StoreSections) == 0 {
		c.StoreSections = append([]string(nil), DefaultSections...)
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() logger.Level {
	level, _ := logger.ParseLevel(c.LogLevel)
	return level
}

// RequireCredential returns a *domain.ConfigError when no API key is
// configured for the selected provider.
func (c *Config) RequireCredential() error {
	if c.LLM.APIKey != "" {
		return nil
	}
	key := EnvOpenAIKey
	if c.LLM.Provider == ProviderGemini {
		key = EnvGeminiKey
	}
	return &domain.ConfigError{Key: key}
}
