package listener

import (
	"fmt"
	"strconv"
	"time"
)

const (
	// DefaultFreeAttempts is how many consecutive failures retry immediately.
	DefaultFreeAttempts = 2
	// DefaultRetryDelay is the pause before each retry after the free ones.
	DefaultRetryDelay = 3 * time.Second
)

// RetryPolicy is the two-tier backoff of the reconnect loop.
type RetryPolicy struct {
	FreeAttempts int
	Delay        time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		FreeAttempts: DefaultFreeAttempts,
		Delay:        DefaultRetryDelay,
	}
}

// DelayFor returns the pause before the retry that follows a failure seen
// with the given consecutive attempt count.
func (p RetryPolicy) DelayFor(attempt int) time.Duration {
	if attempt < p.FreeAttempts || p.Delay < 0 {
		return 0
	}
	return p.Delay
}

const (
	// NoticeEstablished is appended after every successful connect.
	NoticeEstablished = "Connection established\n"
	// NoticeRetrying is appended before an immediate retry.
	NoticeRetrying = "No connection. Retrying.\n"
)

// RetryNotice returns the lifecycle notice for a retry after delay.
func RetryNotice(delay time.Duration) string {
	if delay <= 0 {
		return NoticeRetrying
	}
	return fmt.Sprintf("No connection. Retrying in %s sec.\n",
		strconv.FormatFloat(delay.Seconds(), 'f', -1, 64))
}
