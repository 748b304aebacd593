package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const (
	BackendGemini = "gemini"
	BackendOllama = "ollama"
)

// Options selects and configures a provider backend.
type Options struct {
	Backend string
	Model   string
	APIKey  string
	// BaseURL overrides the backend endpoint (Ollama server, Gemini API host).
	BaseURL string
	// Proxy routes provider calls through an HTTP proxy when Client is nil.
	Proxy   string
	Timeout time.Duration
	Client  *http.Client
}

// NewProvider builds the provider described by opts, wrapped with its call
// timeout. It returns ErrMissingAPIKey when Gemini is selected without a key.
func NewProvider(ctx context.Context, opts Options) (Provider, error) {
	if opts.Client == nil && opts.Proxy != "" {
		client, err := NewHTTPClient(opts.Proxy)
		if err != nil {
			return nil, err
		}
		opts.Client = client
	}

	var p Provider
	switch opts.Backend {
	case "", BackendGemini:
		g, err := NewGeminiProviderWithClient(ctx, opts.Model, opts.APIKey, opts.BaseURL, opts.Client)
		if err != nil {
			return nil, err
		}
		p = g
	case BackendOllama:
		p = NewOllamaProvider(opts.Model, opts.BaseURL, opts.Client)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", opts.Backend)
	}
	return WithTimeout(p, opts.Timeout), nil
}
