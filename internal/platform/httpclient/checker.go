// Package httpclient provides the HTTP liveness checker with retry, rate limiting, and timeout support.
package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"subterra/internal/core/domain"
	"subterra/internal/core/ports"
	"subterra/internal/platform/errors"
	"subterra/internal/platform/logx"
	"subterra/internal/platform/rate"
)

// maxDrain bounds how much of a response body is read before closing it,
// so the connection can be reused.
const maxDrain = 64 * 1024

// Config holds the configuration for the liveness checker.
type Config struct {
	// Timeout is the per-request timeout duration.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxRetries is the number of extra attempts after a transport error
	// or a retryable status (429, 502, 503, 504).
	// Default: 0
	MaxRetries int

	// RetryBackoff is the initial backoff duration for retries.
	// Backoff increases exponentially with each retry.
	// Default: 500 milliseconds
	RetryBackoff time.Duration

	// MaxRetryBackoff is the maximum backoff duration between retries.
	// Default: 5 seconds
	MaxRetryBackoff time.Duration

	// MaxRedirects is the number of redirects followed before the last
	// response is taken as the answer.
	// Default: 3
	MaxRedirects int

	// UserAgent is the User-Agent header value.
	// Default: "subterra/1.0"
	UserAgent string

	// RateLimit is the maximum requests per second across all workers.
	// 0 means no rate limiting.
	RateLimit float64

	// RateLimitBurst is the burst size for rate limiting.
	// Default: 1
	RateLimitBurst int

	// InsecureTLS disables certificate verification.
	InsecureTLS bool

	// Schemes are tried in order until one answers.
	// Default: https, http
	Schemes []string

	// Policy decides which status codes count as live.
	// Default: domain.DefaultStatusPolicy()
	Policy *domain.StatusPolicy
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	policy := domain.DefaultStatusPolicy()
	return Config{
		Timeout:         10 * time.Second,
		MaxRetries:      0,
		RetryBackoff:    500 * time.Millisecond,
		MaxRetryBackoff: 5 * time.Second,
		MaxRedirects:    3,
		UserAgent:       "subterra/1.0",
		RateLimitBurst:  1,
		Schemes:         []string{"https", "http"},
		Policy:          &policy,
	}
}

// Checker decides whether a hostname answers HTTP.
type Checker struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      logx.Logger
	config      Config
	policy      domain.StatusPolicy
}

var _ ports.LivenessChecker = (*Checker)(nil)

// New creates a checker with the given configuration.
func New(config Config, logger logx.Logger) *Checker {
	def := DefaultConfig()

	// Apply defaults for zero values
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = def.RetryBackoff
	}
	if config.MaxRetryBackoff <= 0 {
		config.MaxRetryBackoff = def.MaxRetryBackoff
	}
	if config.MaxRedirects < 0 {
		config.MaxRedirects = def.MaxRedirects
	}
	if config.UserAgent == "" {
		config.UserAgent = def.UserAgent
	}
	if config.RateLimitBurst <= 0 {
		config.RateLimitBurst = def.RateLimitBurst
	}
	if len(config.Schemes) == 0 {
		config.Schemes = def.Schemes
	}
	if config.Policy == nil {
		config.Policy = def.Policy
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxIdleConnsPerHost = 4
	transport.IdleConnTimeout = 30 * time.Second
	transport.TLSHandshakeTimeout = config.Timeout
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: config.InsecureTLS} //nolint:gosec // opt-in for self-signed targets

	maxRedirects := config.MaxRedirects
	httpClient := &http.Client{
		Timeout:   config.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	var rateLimiter *rate.Limiter
	if config.RateLimit > 0 {
		rateLimiter = rate.New(config.RateLimit, config.RateLimitBurst)
		logger.Debug("probe rate limit enabled", "rps", rateLimiter.Rate(), "burst", rateLimiter.Burst())
	}

	return &Checker{
		httpClient:  httpClient,
		rateLimiter: rateLimiter,
		logger:      logger.With("component", "checker"),
		config:      config,
		policy:      *config.Policy,
	}
}

// Check tries each scheme in order and reports the first answer the status
// policy accepts. Transport errors and timeouts mean not live.
func (c *Checker) Check(ctx context.Context, name domain.Hostname) ports.CheckResult {
	result := ports.CheckResult{Name: name}
	var lastErr error

	for _, scheme := range c.config.Schemes {
		url := fmt.Sprintf("%s://%s", scheme, name)

		status, err := c.Request(ctx, url)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		result.URL = url
		result.StatusCode = status
		lastErr = nil
		if c.policy.Live(status) {
			result.Live = true
			return result
		}
	}

	if result.StatusCode == 0 && lastErr != nil {
		result.Err = errors.Wrapf(errors.ErrProbeFailed, "%s: %v", name, lastErr)
	}
	return result
}

// Request performs a GET with retry logic and rate limiting and returns the
// final status code. The body is drained and closed.
func (c *Checker) Request(ctx context.Context, url string) (int, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		// Rate limiting
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return 0, errors.Wrap(err, "rate limit wait failed")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return 0, errors.Wrapf(err, "failed to create request for %s", url)
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "*/*")

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		duration := time.Since(start)

		if err != nil {
			c.logger.Debug("probe failed",
				"url", url,
				"attempt", attempt+1,
				"error", err.Error(),
				"duration_ms", duration.Milliseconds(),
			)
			lastErr = err

			if ctx.Err() != nil || !c.shouldRetry(attempt, err, nil) {
				return 0, lastErr
			}
			if err := c.backoff(ctx, attempt); err != nil {
				return 0, errors.Wrap(err, "backoff interrupted")
			}
			continue
		}

		status := resp.StatusCode
		drainAndClose(resp)

		c.logger.Debug("probe answered",
			"url", url,
			"status", status,
			"duration_ms", duration.Milliseconds(),
		)

		if !c.shouldRetry(attempt, nil, resp) {
			return status, nil
		}

		lastErr = errors.Errorf("HTTP %d", status)
		if err := c.backoff(ctx, attempt); err != nil {
			// Keep the answer we already have
			return status, nil
		}
	}

	return 0, errors.Wrapf(lastErr, "request failed after %d attempts", c.config.MaxRetries+1)
}

// isRetryableStatus checks if an HTTP status code should trigger a retry.
func isRetryableStatus(resp *http.Response) bool {
	if resp == nil {
		return false
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests, // 429
		http.StatusServiceUnavailable, // 503
		http.StatusGatewayTimeout,     // 504
		http.StatusBadGateway:         // 502
		return true
	default:
		return false
	}
}

// shouldRetry determines if a request should be retried based on the attempt number,
// error, and response status code.
func (c *Checker) shouldRetry(attempt int, err error, resp *http.Response) bool {
	if attempt >= c.config.MaxRetries {
		return false
	}
	if err != nil {
		return true
	}
	return isRetryableStatus(resp)
}

// backoff implements exponential backoff.
func (c *Checker) backoff(ctx context.Context, attempt int) error {
	backoff := c.config.RetryBackoff * time.Duration(math.Pow(2, float64(attempt)))
	if backoff > c.config.MaxRetryBackoff {
		backoff = c.config.MaxRetryBackoff
	}

	timer := time.NewTimer(backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	_ = resp.Body.Close()
}

// Close releases idle connections.
func (c *Checker) Close() {
	c.httpClient.CloseIdleConnections()
}

// String returns a human-readable representation of the checker configuration.
func (c *Checker) String() string {
	return fmt.Sprintf("Checker{timeout=%s, max_retries=%d, rate_limit=%.1f/s, schemes=%v}",
		c.config.Timeout,
		c.config.MaxRetries,
		c.config.RateLimit,
		c.config.Schemes,
	)
}
