package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	apperrors "insightdeal/dealworker/pkg/errors"
)

// Generator is the single-round-trip text generation contract the parser
// depends on. It exists so tests can substitute a canned model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiClient wraps the Gemini API behind the Generator interface. It is
// explicitly constructed and injected; there is no package-level singleton,
// and the missing-credential check happens here rather than at import time.
type GeminiClient struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

// NewGeminiClient creates a Gemini-backed Generator. An empty API key is a
// configuration error the caller is expected to treat as fatal.
func NewGeminiClient(ctx context.Context, apiKey, model string, requestsPerMinute int) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, apperrors.NewConfiguration("GEMINI_API_KEY is not set", nil)
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
	}, nil
}

// Generate sends one prompt and returns the raw response text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.0),
		MaxOutputTokens: 2048,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from gemini")
	}
	return text, nil
}
