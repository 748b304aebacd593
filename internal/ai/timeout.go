package ai

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"
)

// TimeoutProvider bounds every Generate call of the wrapped provider.
// It never retries: a failed or expired call is returned as is.
type TimeoutProvider struct {
	inner Provider
	limit time.Duration
}

// WithTimeout wraps p so that each call is cancelled after d.
// A non-positive d returns p unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, limit: d}
}

func (p *TimeoutProvider) ID() string {
	return p.inner.ID()
}

func (p *TimeoutProvider) Generate(ctx context.Context, prompt string) (string, error) {
	t := timeout.New[string](timeout.Config{
		DefaultTimeout: p.limit,
	})
	return t.Execute(ctx, p.limit, func(ctx context.Context) (string, error) {
		return p.inner.Generate(ctx, prompt)
	})
}
