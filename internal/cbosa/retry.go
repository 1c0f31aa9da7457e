package cbosa

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"net"
	"net/http"
	"syscall"
	"time"
)

// StatusError reports a non-2xx portal response. 429 and 5xx are retryable,
// every other status propagates immediately.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cbosa: %s returned %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Retryable reports whether the status indicates a transient server-side
// condition.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// RetryPolicy centralizes retry tuning for the resilient HTTP layer.
// Delay before attempt k (k >= 2) is Backoff^(k-2) seconds plus a uniform
// jitter, plus RateLimitPenalty when the previous failure was HTTP 429.
type RetryPolicy struct {
	Attempts         int
	Backoff          float64
	JitterMax        time.Duration
	RateLimitPenalty time.Duration
}

// DefaultPageRetryPolicy matches the tuning used for form and listing
// fetches.
func DefaultPageRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:         4,
		Backoff:          1.6,
		JitterMax:        400 * time.Millisecond,
		RateLimitPenalty: 1500 * time.Millisecond,
	}
}

// DefaultDocumentRetryPolicy is more patient: documents are larger and a
// failed download discards the whole case.
func DefaultDocumentRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:         5,
		Backoff:          1.8,
		JitterMax:        400 * time.Millisecond,
		RateLimitPenalty: 1500 * time.Millisecond,
	}
}

// ShouldRetry classifies an error: transport-level failures (timeouts,
// resets, abrupt disconnects) and retryable statuses are worth another
// attempt.
func (p RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.Attempts {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// Delay returns the pause before attempt number attempt (2-based; the
// first attempt runs immediately). lastErr lets the 429 penalty kick in.
func (p RetryPolicy) Delay(attempt int, lastErr error) time.Duration {
	base := time.Duration(math.Pow(p.Backoff, float64(attempt-2)) * float64(time.Second))
	delay := base + randomJitter(p.JitterMax)
	if isRateLimited(lastErr) {
		delay += p.RateLimitPenalty
	}
	return delay
}

func isRateLimited(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusTooManyRequests
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
