package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// GeminiSDK generates text with the official Gemini Go SDK.
type GeminiSDK struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiSDK creates an SDK client for the Gemini Developer API.
func NewGeminiSDK(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiSDK, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiSDK{client: client, model: model, timeout: timeout}, nil
}

// Generate sends the prompt as a single user turn. When the response carries
// no text the whole response is rendered as JSON instead.
func (g *GeminiSDK) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	res, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if text := res.Text(); text != "" {
		return text, nil
	}

	raw, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("render gemini response: %w", err)
	}
	return string(raw), nil
}
