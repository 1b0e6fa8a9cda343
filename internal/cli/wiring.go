package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/gesetzbot/gesetzbot/internal/cache"
	"github.com/gesetzbot/gesetzbot/internal/embed"
	"github.com/gesetzbot/gesetzbot/internal/history"
	"github.com/gesetzbot/gesetzbot/internal/llm"
	"github.com/gesetzbot/gesetzbot/internal/model"
	"github.com/gesetzbot/gesetzbot/internal/qa"
	"github.com/gesetzbot/gesetzbot/internal/vector"
	"github.com/gesetzbot/gesetzbot/internal/vector/qdrant"
)

// buildConfig merges defaults, config file and environment.
func buildConfig() *model.Config {
	cfg := model.DefaultConfig()

	if v := viper.GetString("llm.provider"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := viper.GetString("llm.model"); v != "" {
		cfg.LLM.Model = v
	}
	if v := viper.GetString("llm.base_url"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := viper.GetString("embedding.model"); v != "" {
		cfg.Embed.Model = v
	}
	if v := viper.GetString("qdrant.host"); v != "" {
		cfg.Qdrant.Host = v
	}
	if v := viper.GetInt("qdrant.port"); v != 0 {
		cfg.Qdrant.Port = v
	}
	if v := viper.GetString("qdrant.collection"); v != "" {
		cfg.Qdrant.Collection = v
	}
	if v := viper.GetString("paths.settings"); v != "" {
		cfg.Paths.Settings = v
	}
	if v := viper.GetString("paths.downloads"); v != "" {
		cfg.Paths.Downloads = v
	}
	if v := viper.GetString("paths.history"); v != "" {
		cfg.Paths.History = v
	}
	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}

	cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	return cfg
}

// requireAPIKey fails early for providers that need one.
func requireAPIKey(cfg *model.Config) error {
	if cfg.LLM.Provider != "ollama" && cfg.LLM.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return nil
}

func newEmbedder(cfg *model.Config) (embed.Embedder, error) {
	embedder, err := embed.NewOpenAIEmbedder(cfg.LLM, cfg.Embed)
	if err != nil {
		return nil, err
	}
	if !cfg.Cache.Enabled {
		return embedder, nil
	}
	store := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	return embed.NewCached(embedder, store), nil
}

func newIndex(ctx context.Context, cfg *model.Config) (vector.Index, error) {
	return qdrant.New(ctx, cfg.Qdrant)
}

// newAnswerer wires the full query path.
func newAnswerer(ctx context.Context, cfg *model.Config) (*qa.Answerer, vector.Index, error) {
	if err := requireAPIKey(cfg); err != nil {
		return nil, nil, err
	}
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	index, err := newIndex(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		_ = index.Close()
		return nil, nil, err
	}

	retriever := qa.NewRetriever(embedder, index)
	store := history.NewFileStore(cfg.Paths.History)
	return qa.NewAnswerer(retriever, client, store, cfg.LLM.Model, cfg.Workers.MapWorkers), index, nil
}

// newStudyBuddy wires the quiz path.
func newStudyBuddy(ctx context.Context, cfg *model.Config) (*qa.StudyBuddy, vector.Index, error) {
	if err := requireAPIKey(cfg); err != nil {
		return nil, nil, err
	}
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	index, err := newIndex(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		_ = index.Close()
		return nil, nil, err
	}

	retriever := qa.NewRetriever(embedder, index)
	store := history.NewFileStore(cfg.Paths.History)
	return qa.NewStudyBuddy(retriever, client, store, cfg.LLM.Model), index, nil
}
