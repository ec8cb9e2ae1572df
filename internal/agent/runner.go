package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/equitylens/equitylens/internal/common"
	"github.com/equitylens/equitylens/internal/common/telemetry"
	"github.com/equitylens/equitylens/internal/llm"
	"github.com/equitylens/equitylens/internal/tools"
)

const (
	defaultMaxRetries   = 3
	defaultRetryBackoff = 2 * time.Second
	maxRetryBackoff     = 30 * time.Second
)

// Runner executes bounded tool-calling agent loops against a provider,
// retrying only on rate limiting. Other provider errors propagate
// immediately.
type Runner struct {
	provider   llm.Provider
	registry   *tools.Registry
	maxRetries int
	backoff    time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option customizes a Runner.
type Option func(*Runner)

// WithMaxRetries bounds rate-limit retries per run.
func WithMaxRetries(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithRetryBackoff sets the initial backoff applied before the first retry.
func WithRetryBackoff(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.backoff = d
		}
	}
}

// NewRunner builds a runner over provider with the registry's tools.
func NewRunner(provider llm.Provider, registry *tools.Registry, opts ...Option) *Runner {
	r := &Runner{
		provider:   provider,
		registry:   registry,
		maxRetries: defaultMaxRetries,
		backoff:    defaultRetryBackoff,
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run executes one agent task: the model receives the instructions, the
// prompt, and the registry's tools, and loops until it produces a final
// answer. Rate-limited attempts retry with doubling backoff.
func (r *Runner) Run(ctx context.Context, instructions, prompt string, attrs ...interface{}) (*llm.RunResult, error) {
	ctx, finish := telemetry.StartSpan(ctx, "agent.run")
	defer finish(attrs...)

	req := llm.ToolRunRequest{
		Instructions: instructions,
		Prompt:       prompt,
		Tools:        r.registry.Definitions(),
		Execute:      r.registry.Execute,
	}

	backoff := r.backoff
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			common.Logger().Warn("rate limited, backing off",
				append([]interface{}{"attempt", attempt, "backoff", backoff.String()}, attrs...)...)
			if err := r.sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff *= 2
			if backoff > maxRetryBackoff {
				backoff = maxRetryBackoff
			}
		}
		result, err := r.provider.RunTools(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !llm.IsRateLimited(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("agent: rate limited after %d attempts: %w", r.maxRetries+1, lastErr)
}
