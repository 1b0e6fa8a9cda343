package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message roles understood by the chat providers.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one entry of a chat completion conversation.
type Message struct {
	Role    string
	Content string
}

// CompletionRequest is a stateless chat completion call.
type CompletionRequest struct {
	Messages    []Message
	Model       string
	Temperature float32
}

// Client defines the interface for chat model providers.
type Client interface {
	// Name returns the provider name
	Name() string

	// Complete sends the messages and returns the model's reply text
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// TransientError marks a provider failure that is worth retrying: rate
// limits, service unavailability and other short-lived API faults. Any
// provider error not wrapped in TransientError is fatal and propagates.
type TransientError struct {
	Provider string
	Status   int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient provider failure (status %d): %v", e.Provider, e.Status, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether the error may be resolved by retrying.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ErrRetriesExhausted is returned once bounded retrying gives up on a
// transient failure.
var ErrRetriesExhausted = errors.New("llm: retries exhausted")
