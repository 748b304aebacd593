// Package gateway turns a submitted prompt into the values shown on the page.
//
// A Gateway holds the provider built at startup. When no provider could be
// built the gateway is unavailable for the rest of the process and every
// submission is answered with ErrNotConfigured, without touching the network.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/samber/lo"

	"promptgate/internal/ai"
)

// previewLength bounds the response text written to the log.
const previewLength = 100

// Messages shown on the page for each kind of failure.
const (
	MsgNotConfigured  = "Error: the AI model is not configured (missing API key or initialization failed)."
	MsgEmptyPrompt    = "Please enter a prompt."
	MsgProviderFailed = "Error contacting the AI: "
)

var (
	ErrNotConfigured = errors.New("ai provider not configured")
	ErrEmptyPrompt   = errors.New("empty prompt")

	errEmptyResponse = errors.New("the provider returned an empty response")
)

// ProviderError wraps a failed call to the provider.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("ai provider: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// PromptRequest is the part of an HTTP request the gateway looks at.
type PromptRequest struct {
	Method string
	Prompt string
}

// PageModel is everything the page renderer needs.
type PageModel struct {
	PromptText   string
	ResponseText string
	ErrorText    string
}

type Gateway struct {
	provider ai.Provider
	logger   *slog.Logger
}

// New returns a gateway backed by provider. A nil provider yields an
// unavailable gateway.
func New(provider ai.Provider, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{provider: provider, logger: logger}
}

// Available reports whether a provider was configured.
func (g *Gateway) Available() bool {
	return g.provider != nil
}

// ProviderID names the configured provider, or "unavailable".
func (g *Gateway) ProviderID() string {
	if g.provider == nil {
		return "unavailable"
	}
	return g.provider.ID()
}

// Generate validates the prompt and asks the provider for a completion.
// Errors are ErrNotConfigured, ErrEmptyPrompt or a *ProviderError.
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	if g.provider == nil {
		return "", ErrNotConfigured
	}
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	g.logger.Info("received prompt", "prompt", prompt)
	text, err := g.provider.Generate(ctx, prompt)
	if err != nil {
		g.logger.Error("error calling the AI provider", "provider", g.provider.ID(), "error", err)
		return "", &ProviderError{Err: err}
	}
	if text == "" {
		g.logger.Warn("empty response from the AI provider", "provider", g.provider.ID())
		return "", &ProviderError{Err: errEmptyResponse}
	}
	g.logger.Info("received response", "provider", g.provider.ID(), "preview", lo.Ellipsis(text, previewLength))
	return text, nil
}

// Handle computes the page for one request. Anything but POST gets the
// empty form.
func (g *Gateway) Handle(ctx context.Context, req PromptRequest) PageModel {
	if req.Method != http.MethodPost {
		return PageModel{}
	}

	model := PageModel{PromptText: req.Prompt}
	text, err := g.Generate(ctx, req.Prompt)
	if err != nil {
		model.ErrorText = Message(err)
		return model
	}
	model.ResponseText = text
	return model
}

// Message turns an error from Generate into the sentence shown to the user.
func Message(err error) string {
	var providerErr *ProviderError
	switch {
	case errors.Is(err, ErrNotConfigured):
		return MsgNotConfigured
	case errors.Is(err, ErrEmptyPrompt):
		return MsgEmptyPrompt
	case errors.As(err, &providerErr):
		return MsgProviderFailed + providerErr.Err.Error()
	default:
		return MsgProviderFailed + err.Error()
	}
}
