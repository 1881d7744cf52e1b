// Package infer asks a generative AI model for structured cover metadata.
// Implements the inference stage: one API call per file, a bounded retry,
// and strict schema validation of the model's reply.
package infer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/report-renamer/internal/cover"
	"github.com/pdiddy/report-renamer/pkg/types"
)

// Backend abstracts the generative AI API so tests can supply a mock.
// Each implementation handles a single cover and returns the raw reply
// text, which is expected to be a JSON object.
type Backend interface {
	Infer(ctx context.Context, c cover.Cover) (string, error)
}

// NewBackend returns the backend selected by cfg.Provider. An empty
// provider defaults to Gemini, which is what the tool was built against.
func NewBackend(cfg types.InferenceConfig) (Backend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", providerName(cfg.Provider))
	}
	switch cfg.Provider {
	case types.ProviderOpenAI:
		return NewOpenAIBackend(cfg), nil
	case types.ProviderGemini, "":
		return NewGeminiBackend(cfg), nil
	default:
		return nil, fmt.Errorf("unknown inference provider %q", cfg.Provider)
	}
}

func providerName(p types.Provider) string {
	if p == "" {
		return string(types.ProviderGemini)
	}
	return string(p)
}

// Infer calls the backend for one cover and validates the reply. The
// retry budget is cfg.MaxRetries (default 1: a single retry, no more).
func Infer(ctx context.Context, backend Backend, c cover.Cover, cfg types.InferenceConfig) (types.InferredFields, error) {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	raw, err := callWithRetry(ctx, backend, c, maxRetries)
	if err != nil {
		return types.InferredFields{}, fmt.Errorf("calling AI backend: %w", err)
	}

	return ParseFields(raw)
}

// ParseFields validates and decodes a raw model reply. Markdown code
// fences around the JSON are tolerated and stripped; everything else is
// held to the response schema.
func ParseFields(raw string) (types.InferredFields, error) {
	cleaned := stripCodeFence(raw)

	if err := validateFields([]byte(cleaned)); err != nil {
		return types.InferredFields{}, fmt.Errorf("validating AI response: %w", err)
	}

	var fields types.InferredFields
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return types.InferredFields{}, fmt.Errorf("decoding AI response: %w", err)
	}

	if fields.Region == "" {
		fields.Region = types.RegionWorldwide
	}
	return fields, nil
}

// stripCodeFence removes a surrounding ```json ... ``` or ``` ... ```
// fence. Models add these despite instructions not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the backend with exponential backoff between attempts.
func callWithRetry(ctx context.Context, backend Backend, c cover.Cover, maxRetries int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		raw, err := backend.Infer(ctx, c)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
