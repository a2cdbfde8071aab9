package openai

import (
	"context"

	"github.com/poiesic/conceptrag/ai"
	"golang.org/x/time/rate"
)

// limiter throttles calls to the remote API. A nil limiter never blocks.
type limiter struct {
	rl *rate.Limiter
}

func newLimiter(config *ai.Config) *limiter {
	if config.RequestsPerSecond <= 0 {
		return nil
	}
	burst := max(config.Burst, 1)
	return &limiter{rl: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)}
}

func (l *limiter) wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.rl.Wait(ctx)
}
