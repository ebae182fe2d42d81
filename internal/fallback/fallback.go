// Package fallback implements the ordered "first success wins" combinator
// shared by the reverse-geocoding and IP-geolocation provider chains.
// Steps run sequentially, never racing: external providers are rate-limited
// free tiers and the precedence order must stay deterministic.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Step is one provider attempt in an ordered chain.
type Step[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// First tries each step in order and returns the first successful result
// together with the name of the step that produced it. If every step fails,
// the per-step errors are joined so the caller can see the whole chain.
func First[T any](ctx context.Context, log *slog.Logger, steps []Step[T]) (T, string, error) {
	var zero T
	var errs []error

	for _, step := range steps {
		out, err := step.Run(ctx)
		if err == nil {
			return out, step.Name, nil
		}
		log.DebugContext(ctx, "Fallback step failed, trying next", "step", step.Name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
	}

	return zero, "", errors.Join(errs...)
}
