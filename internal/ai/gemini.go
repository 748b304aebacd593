package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-1.5-pro-latest"

// ErrMissingAPIKey is returned when a provider that needs a credential is
// built without one.
var ErrMissingAPIKey = errors.New("API key not provided (set GEMINI_API_KEY)")

// GeminiProvider implements Provider on top of the Gemini API.
type GeminiProvider struct {
	model  string
	client *genai.Client
}

// NewGeminiProvider creates a provider for the public Gemini endpoint.
func NewGeminiProvider(ctx context.Context, model, apiKey string) (*GeminiProvider, error) {
	return NewGeminiProviderWithClient(ctx, model, apiKey, "", nil)
}

// NewGeminiProviderWithClient creates a provider with a custom HTTP client and
// base URL. Empty values fall back to the SDK defaults.
func NewGeminiProviderWithClient(ctx context.Context, model, apiKey, baseURL string, httpClient *http.Client) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = defaultGeminiModel
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create gemini client: %w", err)
	}
	return &GeminiProvider{model: model, client: client}, nil
}

func (p *GeminiProvider) ID() string {
	return "gemini:" + p.model
}

// Generate sends the prompt as a single user turn and returns the concatenated
// text of the first candidate.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini blocked the prompt: %s", resp.PromptFeedback.BlockReason)
		}
		return "", errors.New("gemini returned no candidates")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned no text (finish reason: %s)", resp.Candidates[0].FinishReason)
	}
	return text, nil
}
