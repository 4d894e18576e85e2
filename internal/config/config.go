package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// ErrMissingAgentConfig is returned by Validate when a required model gateway
// setting is absent. Startup must fail before any session can be created.
var ErrMissingAgentConfig = errors.New("agent api_key, invoke_url and stream_url are required")

type Config struct {
	App       AppConfig       `toml:"app"`
	Agent     AgentConfig     `toml:"agent"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	CORS      CORSConfig      `toml:"cors"`
}

type AppConfig struct {
	Name      string `toml:"name"`
	Env       string `toml:"env"`
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	GinMode   string `toml:"gin_mode"`
	UploadDir string `toml:"upload_dir"`
}

// AgentConfig holds the dual-endpoint model gateway settings. All three
// fields are required.
type AgentConfig struct {
	APIKey    string `toml:"api_key"`
	InvokeURL string `toml:"invoke_url"`
	StreamURL string `toml:"stream_url"`
}

// EmbeddingConfig selects the embedding function. When BaseURL is empty the
// deterministic local embedder is used instead of a remote endpoint.
type EmbeddingConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	Dimension int    `toml:"dimension"`
	CacheSize int    `toml:"cache_size"`
}

type RetrievalConfig struct {
	ChunkSize     int `toml:"chunk_size"`
	ChunkOverlap  int `toml:"chunk_overlap"`
	ChatTopK      int `toml:"chat_top_k"`
	AskTopK       int `toml:"ask_top_k"`
	HistoryWindow int `toml:"history_window"`
}

type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	return cfg, nil
}

// Validate checks the settings that must be present before the process may
// serve traffic.
func (c *Config) Validate() error {
	if c.Agent.APIKey == "" || c.Agent.InvokeURL == "" || c.Agent.StreamURL == "" {
		return ErrMissingAgentConfig
	}
	return nil
}

// AgentConfigured reports whether the model gateway settings are complete.
func (c *Config) AgentConfigured() bool {
	return c.Validate() == nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:      "pdfchat",
			Env:       "dev",
			Host:      "0.0.0.0",
			Port:      8000,
			GinMode:   "debug",
			UploadDir: "tmp_uploads",
		},
		Embedding: EmbeddingConfig{
			Dimension: 256,
			CacheSize: 512,
		},
		Retrieval: RetrievalConfig{
			ChunkSize:     400,
			ChunkOverlap:  50,
			ChatTopK:      3,
			AskTopK:       5,
			HistoryWindow: 10,
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)
	cfg.App.UploadDir = getEnv("APP_UPLOAD_DIR", cfg.App.UploadDir)

	cfg.Agent.APIKey = getEnv("AGENT_API_KEY", cfg.Agent.APIKey)
	cfg.Agent.InvokeURL = getEnv("AGENT_INVOKE_URL", cfg.Agent.InvokeURL)
	cfg.Agent.StreamURL = getEnv("AGENT_STREAM_URL", cfg.Agent.StreamURL)

	cfg.Embedding.BaseURL = getEnv("EMBEDDING_BASE_URL", cfg.Embedding.BaseURL)
	cfg.Embedding.APIKey = getEnv("EMBEDDING_API_KEY", cfg.Embedding.APIKey)
	cfg.Embedding.Model = getEnv("EMBEDDING_MODEL", cfg.Embedding.Model)
	cfg.Embedding.Dimension = getEnvAsInt("EMBEDDING_DIMENSION", cfg.Embedding.Dimension)
	cfg.Embedding.CacheSize = getEnvAsInt("EMBEDDING_CACHE_SIZE", cfg.Embedding.CacheSize)

	cfg.Retrieval.ChunkSize = getEnvAsInt("RETRIEVAL_CHUNK_SIZE", cfg.Retrieval.ChunkSize)
	cfg.Retrieval.ChunkOverlap = getEnvAsInt("RETRIEVAL_CHUNK_OVERLAP", cfg.Retrieval.ChunkOverlap)
	cfg.Retrieval.ChatTopK = getEnvAsInt("RETRIEVAL_CHAT_TOP_K", cfg.Retrieval.ChatTopK)
	cfg.Retrieval.AskTopK = getEnvAsInt("RETRIEVAL_ASK_TOP_K", cfg.Retrieval.AskTopK)
	cfg.Retrieval.HistoryWindow = getEnvAsInt("RETRIEVAL_HISTORY_WINDOW", cfg.Retrieval.HistoryWindow)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
