package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type RAGConfig struct {
	ChunkSize    int     `yaml:"chunk_size"`
	ChunkOverlap int     `yaml:"chunk_overlap"`
	TopK         int     `yaml:"top_k"`
	Temperature  float64 `yaml:"temperature"`
	Store        string  `yaml:"store"`
	StoreRoot    string  `yaml:"store_root"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type DatabaseConfig struct {
	URL   string `yaml:"url"`
	Key   string `yaml:"key"`
	Debug bool   `yaml:"debug"`
}

type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMS int `yaml:"base_delay_ms"`
}

type TimeoutConfig struct {
	EmbedSecs    int `yaml:"embed_secs"`
	GenerateSecs int `yaml:"generate_secs"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	RAG      RAGConfig      `yaml:"rag"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	GenLLM   LLMConfig      `yaml:"gen_llm"`
	Database DatabaseConfig `yaml:"database"`
	Retry    RetryConfig    `yaml:"retry"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
}

const (
	StoreChromem  = "chromem"
	StorePostgres = "postgres"

	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// LoadConfig reads a yaml config file. ${VAR} references in the file are
// expanded from the environment before parsing so keys can stay out of the
// file itself.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 10000
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 1000
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 4
	}
	if cfg.RAG.Temperature == 0 {
		cfg.RAG.Temperature = 0.3
	}
	if cfg.RAG.Store == "" {
		cfg.RAG.Store = StoreChromem
	}
	if cfg.RAG.StoreRoot == "" {
		cfg.RAG.StoreRoot = "./data"
	}
	applyLLMDefaults(&cfg.EmbedLLM)
	applyLLMDefaults(&cfg.GenLLM)
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 1
	}
	if cfg.Retry.BaseDelayMS == 0 {
		cfg.Retry.BaseDelayMS = 500
	}
	if cfg.Timeouts.EmbedSecs == 0 {
		cfg.Timeouts.EmbedSecs = 60
	}
	if cfg.Timeouts.GenerateSecs == 0 {
		cfg.Timeouts.GenerateSecs = 120
	}
}

func applyLLMDefaults(llm *LLMConfig) {
	if llm.Provider == "" {
		llm.Provider = ProviderOllama
	}
	if llm.BaseURL == "" && llm.Provider == ProviderOllama {
		llm.BaseURL = "http://localhost:11434"
	}
	if llm.Model == "" {
		llm.Model = "llama3.2"
	}
}

// Validate rejects parameter combinations the pipeline cannot honor.
func (c *Config) Validate() error {
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be in [0, chunk_size), got %d", c.RAG.ChunkOverlap)
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("rag.top_k must be positive, got %d", c.RAG.TopK)
	}
	switch c.RAG.Store {
	case StoreChromem, StorePostgres:
	default:
		return fmt.Errorf("rag.store must be %q or %q, got %q", StoreChromem, StorePostgres, c.RAG.Store)
	}
	return nil
}
