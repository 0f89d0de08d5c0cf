package notify

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Throttled caps the rate of outbound messages so a burst of sign-ups cannot
// exhaust the provider quota. Callers block until a slot frees up or their
// context is cancelled.
type Throttled struct {
	next    Sender
	limiter *rate.Limiter
}

// NewThrottled allows perSecond messages per second with the given burst.
// A non-positive rate disables throttling.
func NewThrottled(next Sender, perSecond float64, burst int) Sender {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (t *Throttled) Send(ctx context.Context, msg Message) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("notify: throttled: %w", err)
	}
	return t.next.Send(ctx, msg)
}
