package ai

import "context"

// Provider is the interface that all AI providers must implement.
type Provider interface {
	// ID identifies the backend and model, e.g. "gemini:gemini-1.5-pro-latest".
	ID() string
	// Generate takes a prompt and returns a text-based response from the AI model.
	Generate(ctx context.Context, prompt string) (string, error)
}
