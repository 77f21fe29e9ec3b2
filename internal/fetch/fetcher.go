// Package fetch issues authorized HTTP requests against the catalog API,
// retrying transient failures with exponential backoff, and walks paginated
// listings.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mikey/catalog-auditor/internal/core"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// invalidPageCode is the error code the API answers with (HTTP 400) when asked
// for a page past the end of a listing
const invalidPageCode = "rest_post_invalid_page_number"

const maxBodyBytes = 32 << 20

// ErrPageOutOfRange marks a request for a page past the end of a listing
var ErrPageOutOfRange = errors.New("page out of range")

// Request is a fully constructed API request
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Fetcher executes requests with basic auth and retries
type Fetcher struct {
	client  *http.Client
	key     string
	secret  string
	policy  BackoffPolicy
	limiter *rate.Limiter
	logger  *zap.Logger

	jitter func(max time.Duration) time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option customizes a Fetcher
type Option func(*Fetcher)

// WithRateLimit caps outgoing requests per second; zero or less disables the cap
func WithRateLimit(rps float64) Option {
	return func(f *Fetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithSleep replaces the wait between attempts
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Fetcher) {
		f.sleep = sleep
	}
}

// WithJitter replaces the jitter source
func WithJitter(jitter func(max time.Duration) time.Duration) Option {
	return func(f *Fetcher) {
		f.jitter = jitter
	}
}

// NewFetcher creates a new fetcher
func NewFetcher(client *http.Client, key, secret string, policy BackoffPolicy, logger *zap.Logger, opts ...Option) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	f := &Fetcher{
		client: client,
		key:    key,
		secret: secret,
		policy: policy,
		logger: logger,
		jitter: randomJitter,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Do executes the request and returns the response body. Transient failures
// are retried up to the policy's attempt limit and the last error is returned.
// A request for a page past the end of a listing yields ErrPageOutOfRange
// without retrying.
func (f *Fetcher) Do(ctx context.Context, req Request) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < f.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := f.policy.Delay(attempt, f.jitter)
			f.logger.Warn("Retrying request",
				zap.String("method", req.Method),
				zap.String("url", req.URL),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			if err := f.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		body, err := f.once(ctx, req)
		if err == nil {
			return body, nil
		}

		var transient *core.TransientError
		if !errors.As(err, &transient) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

func (f *Fetcher) once(ctx context.Context, req Request) ([]byte, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, &core.FatalError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if f.key != "" {
		httpReq.SetBasicAuth(f.key, f.secret)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &core.TransientError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &core.TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}
	if resp.StatusCode == http.StatusBadRequest && isInvalidPage(raw) {
		return nil, ErrPageOutOfRange
	}
	return nil, &core.TransientError{
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("%s %s: %s", req.Method, req.URL, truncate(raw, 256)),
	}
}

// GetJSON fetches url and decodes the body into T. A malformed body is fatal.
// A page past the end of a listing decodes to the zero value of T.
func GetJSON[T any](ctx context.Context, f *Fetcher, url string) (T, error) {
	var out T
	body, err := f.Do(ctx, Request{Method: http.MethodGet, URL: url})
	if errors.Is(err, ErrPageOutOfRange) {
		return out, nil
	}
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, &core.FatalError{Err: fmt.Errorf("failed to decode %s: %w", url, err)}
	}
	return out, nil
}

// PutJSON sends payload as a JSON body with PUT and discards the response
func PutJSON(ctx context.Context, f *Fetcher, url string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return &core.FatalError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}
	_, err = f.Do(ctx, Request{Method: http.MethodPut, URL: url, Body: data})
	return err
}

func isInvalidPage(body []byte) bool {
	var apiErr struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		return apiErr.Code == invalidPageCode
	}
	return strings.Contains(string(body), invalidPageCode)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
