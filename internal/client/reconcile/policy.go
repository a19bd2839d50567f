package reconcile

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds how often a row is replayed after transient failures.
type RetryPolicy struct {
	// MaxAttempts moves a row to failed after that many consecutive
	// transient failures. Zero means no limit.
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 8,
		BaseDelay:   5 * time.Second,
		MaxDelay:    10 * time.Minute,
	}
}

// Delay is the wait after the given number of consecutive failures:
// BaseDelay, then doubling, capped at MaxDelay.
func (p RetryPolicy) Delay(failures int) time.Duration {
	if failures < 1 || p.BaseDelay <= 0 {
		return 0
	}

	b := retry.NewExponential(p.BaseDelay)
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}

	var d time.Duration
	for i := 0; i < failures; i++ {
		d, _ = b.Next()
	}
	return d
}

func (p RetryPolicy) Exhausted(failures int) bool {
	return p.MaxAttempts > 0 && failures >= p.MaxAttempts
}
