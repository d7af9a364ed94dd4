package llm

import (
	"net"
	"strings"
	"syscall"
	"time"
)

// Clock abstracts sleeping so retry behavior is testable without real delays.
type Clock interface {
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// RetryPolicy controls how transient failures are retried. Backoff maps an
// attempt number (1-based, the attempt that just failed) to a delay.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// DefaultRetryPolicy retries three times with linear backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * time.Second
		},
	}
}

// ExponentialBackoff doubles the delay per attempt starting at base.
func ExponentialBackoff(base time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		return base << (attempt - 1)
	}
}

// isRetryableError reports whether an error is network-transient and worth
// retrying.
func isRetryableError(err error) bool {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}

	if opErr, ok := err.(*net.OpError); ok {
		if errno, ok := opErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT:
				return true
			}
		}
	}

	errStr := strings.ToLower(err.Error())
	transient := []string{
		"connection reset by peer",
		"connection refused",
		"timeout",
		"temporary failure",
		"network is unreachable",
		"i/o timeout",
		"rate limit",
		"quota",
		"status 429",
		"status 500",
		"status 502",
		"status 503",
	}
	for _, marker := range transient {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}
