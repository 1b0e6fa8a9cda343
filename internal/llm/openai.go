package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/gesetzbot/gesetzbot/internal/model"
)

// OpenAIClient implements the Client interface for OpenAI chat models.
type OpenAIClient struct {
	client *openai.Client
	config model.LLMConfig
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(config model.LLMConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured.
func (c *OpenAIClient) IsAvailable(ctx context.Context) bool {
	_, err := c.client.ListModels(ctx)
	return err == nil
}

// Complete sends a chat completion request and returns the reply text.
// Rate limits, service unavailability and other short-lived API faults are
// reported as TransientError; everything else propagates as-is.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	chatModel := req.Model
	if chatModel == "" {
		chatModel = c.config.Model
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       chatModel,
		Messages:    msgs,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", ClassifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// ClassifyOpenAIError separates transient provider failures from fatal
// ones. Shared with the embedder, which talks to the same API.
func ClassifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if retryableStatus(apiErr.HTTPStatusCode) {
			return &TransientError{Provider: "openai", Status: apiErr.HTTPStatusCode, Err: err}
		}
		return err
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if retryableStatus(reqErr.HTTPStatusCode) {
			return &TransientError{Provider: "openai", Status: reqErr.HTTPStatusCode, Err: err}
		}
		return err
	}

	// Network timeouts are worth retrying; cancellation is not.
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransientError{Provider: "openai", Err: err}
	}
	if strings.Contains(err.Error(), "connection refused") {
		return &TransientError{Provider: "openai", Err: err}
	}

	return err
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
