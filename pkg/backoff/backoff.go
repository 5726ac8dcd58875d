package backoff

import (
	"context"
	"math/rand/v2"
	"time"
)

// Duration returns the wait before retry number attempt (1-based): base
// doubled per attempt plus up to half of that as jitter.
func Duration(attempt int, base time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	exp := base * time.Duration(1<<(attempt-1))
	jitter := time.Duration(rand.Int64N(int64(exp)/2 + 1))
	return exp + jitter
}

// Sleep waits the backoff for attempt, returning early with the context's
// error if it is cancelled first.
func Sleep(ctx context.Context, attempt int, base time.Duration) error {
	t := time.NewTimer(Duration(attempt, base))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
