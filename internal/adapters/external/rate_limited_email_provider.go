package external

import (
	"context"

	"golang.org/x/time/rate"
	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

// RateLimitedEmailProvider paces outgoing mail so a large batch does not trip the
// relay's throttling. Waiting honours ctx, so a recipient timeout also bounds the wait.
type RateLimitedEmailProvider struct {
	next    ports.EmailProvider
	limiter *rate.Limiter
}

// NewRateLimitedEmailProvider wraps next with a token bucket of perSecond sends and the
// given burst. A non-positive rate disables pacing and returns next unchanged.
func NewRateLimitedEmailProvider(next ports.EmailProvider, perSecond float64, burst int) ports.EmailProvider {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedEmailProvider{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// SendEmail waits for a send slot and delegates
func (p *RateLimitedEmailProvider) SendEmail(ctx context.Context, params ports.EmailParams) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return errors.NewEmailError("gave up waiting for a send slot", err)
	}
	return p.next.SendEmail(ctx, params)
}
