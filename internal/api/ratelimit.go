package api

import (
	"context"

	"golang.org/x/time/rate"
)

// Pacer bounds how quickly the pipeline sends outbound requests so a
// misbehaving caller cannot hammer the backend.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer allows up to rps requests per second with the given burst.
func NewPacer(rps float64, burst int) *Pacer {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a request may proceed. A nil Pacer never blocks.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
