package model

import "time"

// Config holds the complete runtime configuration.
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Embed    EmbedConfig    `yaml:"embedding"`
	Qdrant   QdrantConfig   `yaml:"qdrant"`
	Chunking ChunkingConfig `yaml:"chunking"`
	HTTP     HTTPConfig     `yaml:"http"`
	Cache    CacheConfig    `yaml:"cache"`
	Paths    PathsConfig    `yaml:"paths"`
	Workers  WorkersConfig  `yaml:"workers"`
}

// LLMConfig configures the chat model client.
type LLMConfig struct {
	// Provider name: "openai" or "ollama"
	Provider string `yaml:"provider"`

	// Model is the chat model used for answer synthesis
	Model string `yaml:"model"`

	// APIKey for OpenAI (usually from OPENAI_API_KEY)
	APIKey string `yaml:"-"`

	// BaseURL for custom endpoints (e.g. Ollama)
	BaseURL string `yaml:"base_url,omitempty"`

	// Timeout per completion attempt
	Timeout time.Duration `yaml:"timeout"`

	// MaxAttempts bounds retries of transient provider failures
	MaxAttempts int `yaml:"max_attempts"`

	// RetryDelay is the initial backoff delay, doubled per attempt
	RetryDelay time.Duration `yaml:"retry_delay"`

	// MaxDelay caps the exponential backoff
	MaxDelay time.Duration `yaml:"max_delay"`

	// RequestsPerSecond throttles calls to the provider (0 = unlimited)
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst for the rate limiter
	Burst int `yaml:"burst"`
}

// EmbedConfig configures the embedding step.
type EmbedConfig struct {
	Model string `yaml:"model"`
}

// QdrantConfig configures the vector index connection.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`

	// Dimension of the embedding vectors (ada-002: 1536)
	Dimension uint64 `yaml:"dimension"`
}

// ChunkingConfig bounds paragraph chunk sizes (character counts).
type ChunkingConfig struct {
	MaxChunk int `yaml:"max_chunk"`
	Overlap  int `yaml:"overlap"`
}

// HTTPConfig configures archive downloads.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty"`
}

// CacheConfig configures the embedding cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// PathsConfig locates on-disk collaborator state.
type PathsConfig struct {
	Downloads string `yaml:"downloads"`
	Settings  string `yaml:"settings"`
	History   string `yaml:"history"`
}

// WorkersConfig bounds map-phase concurrency.
type WorkersConfig struct {
	MapWorkers int `yaml:"map_workers"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:          "openai",
			Model:             "gpt-3.5-turbo",
			Timeout:           60 * time.Second,
			MaxAttempts:       5,
			RetryDelay:        time.Second,
			MaxDelay:          30 * time.Second,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Embed: EmbedConfig{
			Model: "text-embedding-ada-002",
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "laws",
			Dimension:  1536,
		},
		Chunking: ChunkingConfig{
			MaxChunk: 16000,
			Overlap:  500,
		},
		HTTP: HTTPConfig{
			Timeout:      2 * time.Minute,
			UserAgent:    "Gesetzbot/0.1 (+https://github.com/gesetzbot/gesetzbot)",
			MaxBodyBytes: 50_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "data/cache",
			MemoryTTL: time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
		},
		Paths: PathsConfig{
			Downloads: "data/downloads",
			Settings:  "data/settings.yaml",
			History:   "data/history.jsonl",
		},
		Workers: WorkersConfig{
			MapWorkers: 4,
		},
	}
}
