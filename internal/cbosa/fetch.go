package cbosa

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Response is the portal reply handed back by the session fetcher. URL is
// the final URL after redirects, which pagination needs to resolve relative
// next-page links.
type Response struct {
	StatusCode int
	Body       []byte
	URL        string
}

// SessionFetcher performs GET and form POST requests through a single colly
// backend so cookies harvested from the search form persist for the rest of
// the run. It is not safe for concurrent use; the engine is single-threaded
// by design.
type SessionFetcher struct {
	base   *colly.Collector
	logger *zap.Logger
}

// NewSessionFetcher builds a fetcher with a fresh cookie jar.
func NewSessionFetcher(userAgent string, timeout time.Duration, logger *zap.Logger) *SessionFetcher {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	c.IgnoreRobotsTxt = true
	// Error statuses must reach OnResponse so retry classification can see
	// the code and 4xx bodies can be logged.
	c.ParseHTTPErrorResponse = true
	c.SetRequestTimeout(timeout)
	return &SessionFetcher{base: c, logger: logger}
}

// Get fetches url once. timeout == 0 keeps the collector default.
func (f *SessionFetcher) Get(url string, timeout time.Duration) (Response, error) {
	return f.request(timeout, func(c *colly.Collector) error {
		return c.Visit(url)
	})
}

// PostForm submits an application/x-www-form-urlencoded POST.
func (f *SessionFetcher) PostForm(url string, form map[string]string) (Response, error) {
	return f.request(0, func(c *colly.Collector) error {
		return c.Post(url, form)
	})
}

func (f *SessionFetcher) request(timeout time.Duration, do func(*colly.Collector) error) (Response, error) {
	// Clones share the HTTP backend (and thus the cookie jar) with the
	// base collector but carry their own callbacks.
	c := f.base.Clone()
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}

	var (
		resp     Response
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		resp = Response{
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			URL:        r.Request.URL.String(),
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
		if r != nil && r.Request != nil && r.Request.URL != nil {
			resp.URL = r.Request.URL.String()
			resp.StatusCode = r.StatusCode
		}
	})

	requestsTotal.Inc()
	err := do(c)
	c.Wait()

	if fetchErr != nil {
		return Response{}, fetchErr
	}
	if err != nil {
		return Response{}, err
	}
	if resp.StatusCode == 0 {
		return Response{}, fmt.Errorf("no response received")
	}
	return resp, nil
}

// getWithRetry wraps a single GET in the retry policy. Retryable statuses
// become StatusError so exhausted retries surface the last HTTP code; other
// non-2xx statuses fail immediately.
func (f *SessionFetcher) getWithRetry(ctx context.Context, url string, policy RetryPolicy, timeout time.Duration) (Response, error) {
	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		if attempt > 1 {
			retriesTotal.Inc()
			delay := policy.Delay(attempt, lastErr)
			f.logger.Debug("Retrying request",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if err := sleepContext(ctx, delay); err != nil {
				return Response{}, err
			}
		}

		resp, err := f.Get(url, timeout)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		if err == nil {
			err = &StatusError{Code: resp.StatusCode, URL: url}
			if resp.StatusCode == http.StatusTooManyRequests {
				rateLimitHitsTotal.Inc()
			}
		}
		lastErr = err
		if !policy.ShouldRetry(err, attempt) {
			break
		}
	}
	fetchErrorsTotal.Inc()
	return Response{}, lastErr
}

// sleepContext pauses for d unless the context ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
