// Package gemini implements llm.Client on the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/gtakpsi-software-dev/resume-app/internal/llm"
)

const defaultModel = "gemini-2.0-flash"

// Client calls the Gemini generateContent API with the fixed extraction
// sampling settings.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient constructs a Gemini-backed client.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// Generate sends the prompt and returns the model text. Capacity rejections
// (429/503) come back as *llm.Throttled carrying any service-suggested delay.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.1),
		TopP:             genai.Ptr[float32](0.8),
		TopK:             genai.Ptr[float32](40),
		MaxOutputTokens:  1024,
		ResponseMIMEType: "application/json",
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 429 || apiErr.Code == 503) {
			return "", &llm.Throttled{
				Code:       apiErr.Code,
				RetryAfter: suggestedDelay(apiErr),
				Err:        err,
			}
		}
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini generate: empty response")
	}
	return text, nil
}

// suggestedDelay extracts the google.rpc.RetryInfo detail, when present.
func suggestedDelay(apiErr genai.APIError) time.Duration {
	for _, detail := range apiErr.Details {
		if detail["@type"] != "type.googleapis.com/google.rpc.RetryInfo" {
			continue
		}
		raw, ok := detail["retryDelay"].(string)
		if !ok {
			continue
		}
		if delay, err := time.ParseDuration(raw); err == nil {
			return delay
		}
	}
	return 0
}

var _ llm.Client = (*Client)(nil)
