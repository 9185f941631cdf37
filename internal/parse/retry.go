package parse

import (
	"context"
	"errors"
	"time"

	"github.com/gtakpsi-software-dev/resume-app/internal/llm"
)

const maxRetries = 3

// Backoff timing lives in vars so tests can compress the schedule.
var (
	initialDelay = 2 * time.Second
	maxDelay     = 10 * time.Second
)

// generateWithRetry calls the client with exponential backoff on throttling.
// Only *llm.Throttled errors are retried; a service-suggested wait overrides
// the computed delay when it is longer.
func generateWithRetry(ctx context.Context, client llm.Client, prompt string) (string, error) {
	delay := initialDelay
	for retries := 0; ; retries++ {
		out, err := client.Generate(ctx, prompt)
		if err == nil {
			return out, nil
		}

		var throttled *llm.Throttled
		if retries >= maxRetries || !errors.As(err, &throttled) {
			return "", err
		}

		wait := delay
		if throttled.RetryAfter > wait {
			wait = throttled.RetryAfter
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}
