package channel

import (
	"context"
	"time"

	"github.com/Alextopher/cosmosnaps/internal/publish"
)

// Retrying wraps a channel and retries failed sends with exponential backoff
type Retrying struct {
	next     publish.Channel
	attempts int
	backoff  time.Duration
}

// WithRetry retries sends on next up to attempts times, waiting backoff
// before the first retry and doubling it after each failure.
func WithRetry(next publish.Channel, attempts int, backoff time.Duration) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{next: next, attempts: attempts, backoff: backoff}
}

// SendPhoto implements publish.Channel
func (r *Retrying) SendPhoto(ctx context.Context, channelID string, photo publish.Photo, caption string) (err error) {
	backoff := r.backoff

	for i := 0; i < r.attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		err = r.next.SendPhoto(ctx, channelID, photo, caption)
		if err == nil {
			return nil
		}
	}
	return err
}
