// Package llm abstracts the text-generation provider used for resume field
// extraction.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Client abstracts LLM providers for structured field extraction.
type Client interface {
	// Generate sends a prompt and returns the raw model output.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Throttled signals a transient capacity rejection from the provider.
// RetryAfter carries the service-suggested wait, zero when none was given.
type Throttled struct {
	Code       int
	RetryAfter time.Duration
	Err        error
}

func (t *Throttled) Error() string {
	return fmt.Sprintf("llm: throttled (status %d): %v", t.Code, t.Err)
}

func (t *Throttled) Unwrap() error { return t.Err }

// PlaceholderClient stands in when no provider is configured. Every call
// fails, which downgrades extraction to its fallback path.
type PlaceholderClient struct{}

func (PlaceholderClient) Generate(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", fmt.Errorf("llm client not configured")
}

var _ Client = PlaceholderClient{}
