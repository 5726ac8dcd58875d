package backoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDuration_Bounds(t *testing.T) {
	base := 100 * time.Millisecond
	for attempt := 1; attempt <= 5; attempt++ {
		exp := base * time.Duration(1<<(attempt-1))
		for i := 0; i < 50; i++ {
			d := Duration(attempt, base)
			assert.GreaterOrEqual(t, d, exp)
			assert.LessOrEqual(t, d, exp+exp/2)
		}
	}
}

func TestSleep_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, 5, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestSleep_Completes(t *testing.T) {
	err := Sleep(context.Background(), 1, time.Millisecond)
	assert.NoError(t, err)
}
