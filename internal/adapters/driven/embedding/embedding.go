// Package embedding holds helpers shared by the embedding provider adapters.
package embedding

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

// NewLimiter returns a limiter allowing rps requests per second, or nil when rps is not positive.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Wait blocks until the limiter admits one request. A nil limiter never blocks.
func Wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	return nil
}

// CheckVector rejects an empty vector and, when want is positive, one of another length.
func CheckVector(vec []float32, want int) error {
	if len(vec) == 0 {
		return domain.ErrEmptyEmbedding
	}
	if want > 0 && len(vec) != want {
		return fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, want, len(vec))
	}
	return nil
}

// ToFloat32 narrows a JSON-decoded vector.
func ToFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}
