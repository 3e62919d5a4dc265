package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
rag:
  chunk_size: 500
  chunk_overlap: 50
  top_k: 2
  store: chromem
embed_llm:
  provider: ollama
  model: nomic-embed-text
gen_llm:
  provider: openai
  model: gpt-4o-mini
  key: sk-test
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.RAG.ChunkSize != 500 || cfg.RAG.ChunkOverlap != 50 || cfg.RAG.TopK != 2 {
		t.Errorf("rag = %+v", cfg.RAG)
	}
	if cfg.EmbedLLM.Model != "nomic-embed-text" {
		t.Errorf("embed model = %q", cfg.EmbedLLM.Model)
	}
	if cfg.GenLLM.Provider != ProviderOpenAI || cfg.GenLLM.Key != "sk-test" {
		t.Errorf("gen llm = %+v", cfg.GenLLM)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "{}"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.RAG.ChunkSize != 10000 || cfg.RAG.ChunkOverlap != 1000 {
		t.Errorf("chunking defaults = %d/%d", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	if cfg.RAG.TopK != 4 || cfg.RAG.Temperature != 0.3 {
		t.Errorf("retrieval defaults = %d/%v", cfg.RAG.TopK, cfg.RAG.Temperature)
	}
	if cfg.RAG.Store != StoreChromem {
		t.Errorf("store = %q", cfg.RAG.Store)
	}
	if cfg.EmbedLLM.Provider != ProviderOllama || cfg.EmbedLLM.Model != "llama3.2" {
		t.Errorf("embed llm defaults = %+v", cfg.EmbedLLM)
	}
	if cfg.Timeouts.EmbedSecs != 60 || cfg.Timeouts.GenerateSecs != 120 {
		t.Errorf("timeout defaults = %+v", cfg.Timeouts)
	}
}

func TestLoadConfig_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_DB_URL", "postgres://host/db")
	cfg, err := LoadConfig(writeConfig(t, `
database:
  url: ${TEST_DB_URL}
`))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Database.URL != "postgres://host/db" {
		t.Errorf("url = %q", cfg.Database.URL)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfig() succeeded on missing file")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"overlap equals size", func(c *Config) { c.RAG.ChunkOverlap = c.RAG.ChunkSize }},
		{"negative overlap", func(c *Config) { c.RAG.ChunkOverlap = -1 }},
		{"negative top_k", func(c *Config) { c.RAG.TopK = -1 }},
		{"unknown store", func(c *Config) { c.RAG.Store = "redis" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Config
			applyDefaults(&cfg)
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted invalid config")
			}
		})
	}
}
