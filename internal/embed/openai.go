package embed

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/gesetzbot/gesetzbot/internal/llm"
	"github.com/gesetzbot/gesetzbot/internal/model"
)

// OpenAIEmbedder implements Embedder using OpenAI's embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	policy llm.Policy
}

// NewOpenAIEmbedder creates an embedder for the configured model.
// Embedding calls share the bounded retry policy of the chat client.
func NewOpenAIEmbedder(llmCfg model.LLMConfig, embedCfg model.EmbedConfig) (*OpenAIEmbedder, error) {
	if llmCfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(llmCfg.APIKey)
	if llmCfg.BaseURL != "" {
		clientConfig.BaseURL = llmCfg.BaseURL
	}

	embedModel := embedCfg.Model
	if embedModel == "" {
		embedModel = string(openai.AdaEmbeddingV2)
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  embedModel,
		policy: llm.PolicyFromConfig(llmCfg),
	}, nil
}

// Name returns the embedding model identifier.
func (e *OpenAIEmbedder) Name() string {
	return e.model
}

// Embed returns the embedding vector for the text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return llm.ClassifyOpenAIError(err)
		}
		if len(resp.Data) == 0 {
			return fmt.Errorf("openai: empty embedding response")
		}
		vector = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vector, nil
}
