package policy

import (
	"fmt"
	"math"
	"time"
)

// ErrorKind classifies a failure for retry decisions.
type ErrorKind string

const (
	ErrorKindValidation     ErrorKind = "validation_error"
	ErrorKindAuthentication ErrorKind = "authentication_error"
	ErrorKindNotFound       ErrorKind = "not_found"
	ErrorKindTimeout        ErrorKind = "timeout"
	ErrorKindUnavailable    ErrorKind = "unavailable"
	ErrorKindInternal       ErrorKind = "internal"
)

// RetryPolicy decides whether a failed operation should be retried and with
// what backoff. Decisions are advisory: the router never retries implicitly.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
	Multiplier float64
}

// NewRetryPolicy returns the default retry policy (2 retries, 1s base delay,
// x2 backoff).
func NewRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		Delay:      time.Second,
		Multiplier: 2.0,
	}
}

// nonRetryable error kinds never warrant a retry.
var nonRetryable = map[ErrorKind]bool{
	ErrorKindValidation:     true,
	ErrorKindAuthentication: true,
	ErrorKindNotFound:       true,
}

// ShouldRetry denies retry for non-retryable error kinds or once the retry
// budget is spent; otherwise it approves with an exponential backoff delay.
func (p RetryPolicy) ShouldRetry(kind ErrorKind, retryCount int) Decision {
	if nonRetryable[kind] {
		return Decision{
			Verdict: VerdictFallback,
			Reason:  fmt.Sprintf("error kind %s is not retryable", kind),
		}
	}
	if retryCount >= p.MaxRetries {
		return Decision{
			Verdict: VerdictFallback,
			Reason:  fmt.Sprintf("max retries (%d) exceeded", p.MaxRetries),
		}
	}
	return Decision{
		Verdict:  VerdictRetry,
		Reason:   fmt.Sprintf("retryable error, attempt %d", retryCount+1),
		Metadata: Metadata{RetryDelay: p.RetryDelay(retryCount)},
	}
}

// RetryDelay returns Delay x Multiplier^retryCount.
func (p RetryPolicy) RetryDelay(retryCount int) time.Duration {
	return time.Duration(float64(p.Delay) * math.Pow(p.Multiplier, float64(retryCount)))
}
