package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eluia/engine/internal/documents"
)

// Config holds application configuration
type Config struct {
	Database struct {
		ConnectionString string `yaml:"connection_string"`
	} `yaml:"database"`
	Embeddings struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"embeddings"`
	Generation struct {
		Provider  string `yaml:"provider"`
		Model     string `yaml:"model"`
		BaseURL   string `yaml:"base_url"`
		APIKeyEnv string `yaml:"api_key_env"`
		MaxTokens int    `yaml:"max_tokens"`
	} `yaml:"generation"`
	Processing struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
		TopK         int `yaml:"top_k"`
		MaxPages     int `yaml:"max_pages"`
		UnitWords    int `yaml:"unit_words"`
	} `yaml:"processing"`
	RateLimit struct {
		PerDay int `yaml:"per_day"`
	} `yaml:"rate_limit"`
	Agent struct {
		CandidateID    int64  `yaml:"candidate_id"`
		Name           string `yaml:"name"`
		AgentName      string `yaml:"agent_name"`
		Tone           string `yaml:"tone"`
		ResponseLength string `yaml:"response_length"`
	} `yaml:"agent"`
}

// Load loads configuration from file or returns defaults. A .env file
// in the working directory is read first, then environment variables
// override the file for secrets and the database URL.
func Load() (*Config, error) {
	// Missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	cfg := Default()

	configPath := filepath.Join(os.Getenv("HOME"), ".eluia", "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.ConnectionString = url
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks parameters that must fail at startup rather than on
// the first upload.
func (c *Config) Validate() error {
	if _, err := documents.NewChunker(c.Processing.ChunkSize, c.Processing.ChunkOverlap); err != nil {
		return err
	}
	return nil
}

// APIKey resolves the generation provider's API key from the
// environment variable named in the config.
func (c *Config) APIKey() string {
	if c.Generation.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Generation.APIKeyEnv)
}

// Save saves configuration to file
func (c *Config) Save() error {
	configDir := filepath.Join(os.Getenv("HOME"), ".eluia")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644)
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.Database.ConnectionString = "postgres://postgres@localhost/postgres?sslmode=disable"
	cfg.Embeddings.BaseURL = "http://localhost:11434"
	cfg.Embeddings.Model = "nomic-embed-text"
	cfg.Generation.Provider = "anthropic"
	cfg.Generation.Model = "claude-3-haiku-20240307"
	cfg.Generation.APIKeyEnv = "ANTHROPIC_API_KEY"
	cfg.Generation.MaxTokens = 1024
	cfg.Processing.ChunkSize = documents.DefaultChunkSize
	cfg.Processing.ChunkOverlap = documents.DefaultChunkOverlap
	cfg.Processing.TopK = 5
	cfg.Processing.MaxPages = 100
	cfg.Processing.UnitWords = 500
	cfg.RateLimit.PerDay = 20
	cfg.Agent.CandidateID = 1
	cfg.Agent.Name = "the candidate"
	cfg.Agent.AgentName = "Assistant"
	cfg.Agent.Tone = "accessible"
	cfg.Agent.ResponseLength = "concise"

	return cfg
}
