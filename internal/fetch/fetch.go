// Package fetch performs reads against rate-limited HTTP JSON APIs with a
// bounded retry budget and a fixed pacing interval between attempts.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"solana-wallet-lab/internal/domain"
	"solana-wallet-lab/internal/observability"
	"solana-wallet-lab/internal/pace"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Default configuration values.
const (
	DefaultMaxRetries = 3
	DefaultTimeout    = 30 * time.Second
	maxBodyBytes      = 8 << 20
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// IsRateLimited reports whether err is an HTTP 429 response.
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests
}

// Fetcher issues GET requests and masks transient rate limiting.
type Fetcher struct {
	client     *http.Client
	maxRetries int
	interval   time.Duration
	limiter    *rate.Limiter
	sleep      pace.Sleeper
	logger     *zap.Logger
}

// Option configures Fetcher.
type Option func(*Fetcher)

// WithMaxRetries sets the total number of attempts. Values below 1 mean a
// single attempt.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		f.maxRetries = n
	}
}

// WithInterval sets the pause between attempts.
func WithInterval(d time.Duration) Option {
	return func(f *Fetcher) {
		f.interval = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithRateLimit enables a client-side token bucket in front of every attempt.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(f *Fetcher) {
		if perSecond > 0 {
			if burst < 1 {
				burst = 1
			}
			f.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithSleeper replaces the delay primitive used between attempts.
func WithSleeper(s pace.Sleeper) Option {
	return func(f *Fetcher) {
		f.sleep = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		interval:   pace.DefaultInterval,
		sleep:      pace.Sleep,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.maxRetries < 1 {
		f.maxRetries = 1
	}
	f.sleep = pace.OrDefault(f.sleep)
	f.logger = f.logger.Named("fetch")
	return f
}

// MaxRetries returns the attempt budget.
func (f *Fetcher) MaxRetries() int {
	return f.maxRetries
}

// Get reads rawURL and decodes the JSON payload into out.
//
// A 429 response consumes one attempt and is followed by the pacing
// interval. Any other failure is retried the same way until the final
// attempt, whose error is returned wrapped in domain.ErrTransientNetwork.
// If the budget runs out on rate-limited responses, the error wraps
// domain.ErrMaxRetriesExceeded. A 2xx body that fails to decode is not
// retried.
func (f *Fetcher) Get(ctx context.Context, rawURL string, out interface{}) error {
	target := redact(rawURL)
	endpoint := endpointLabel(rawURL)

	var lastErr error
	for attempt := 0; attempt < f.maxRetries; attempt++ {
		final := attempt == f.maxRetries-1

		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		start := time.Now()
		body, err := f.do(ctx, rawURL)
		observability.RecordFetchAttempt(endpoint, time.Since(start).Seconds())

		if err == nil {
			if out != nil {
				if err := json.Unmarshal(body, out); err != nil {
					observability.RecordFetchOutcome("decode_error")
					return fmt.Errorf("decode response from %s: %w", target, err)
				}
			}
			observability.RecordFetchOutcome("ok")
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		lastErr = err

		if IsRateLimited(err) {
			observability.RecordRateLimited()
			f.logger.Warn("rate limited",
				zap.String("url", target),
				zap.Int("attempt", attempt+1),
				zap.Duration("wait", f.interval))
			if final {
				break
			}
		} else if final {
			observability.RecordFetchOutcome("transient_error")
			f.logger.Error("fetch failed",
				zap.String("url", target),
				zap.Int("attempts", attempt+1),
				zap.Error(err))
			return fmt.Errorf("%w: %w", domain.ErrTransientNetwork, err)
		} else {
			f.logger.Warn("fetch attempt failed, retrying",
				zap.String("url", target),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
		}

		if err := f.sleep(ctx, f.interval); err != nil {
			return err
		}
	}

	observability.RecordFetchOutcome("max_retries")
	f.logger.Error("retry budget exhausted",
		zap.String("url", target),
		zap.Int("attempts", f.maxRetries))
	return fmt.Errorf("%w after %d attempts: %w", domain.ErrMaxRetriesExceeded, f.maxRetries, lastErr)
}

// do performs a single GET and returns the body of a 2xx response.
func (f *Fetcher) do(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
	}
	return body, nil
}

// redact drops the query string, which may carry API keys.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}

// endpointLabel returns the last path element for metric labels.
func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "root"
	}
	return path.Base(u.Path)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
