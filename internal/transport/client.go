package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/agentstation/surveysync/pkg/constants"
	"github.com/agentstation/surveysync/pkg/errors"
	"github.com/agentstation/surveysync/pkg/logging"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client provides HTTP client functionality with authentication, client-side
// rate limiting and a circuit breaker around the remote service.
type Client struct {
	http    *http.Client
	auth    Authenticator
	service string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	maxBody int64
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit limits requests per second. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMaxResponseSize caps how many body bytes are accepted per response.
func WithMaxResponseSize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithService names the remote service in errors, logs and the breaker.
func WithService(name string) Option {
	return func(c *Client) {
		c.service = name
	}
}

// New creates a new transport client with the specified authenticator.
func New(auth Authenticator, opts ...Option) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	c := &Client{
		http:    &http.Client{Timeout: DefaultHTTPTimeout},
		auth:    auth,
		service: constants.ServiceName,
		limiter: rate.NewLimiter(rate.Limit(constants.DefaultRateLimit), constants.BurstSize),
		maxBody: constants.MaxResponseSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = newBreaker(c.service)
	return c
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     constants.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= constants.BreakerMinRequests && failureRatio >= constants.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			// Client errors mean the service answered; only outages count.
			var apiErr *errors.APIError
			if errors.As(err, &apiErr) {
				return !errors.IsServiceUnavailable(err) && !errors.IsRateLimited(err)
			}
			return err == nil || errors.IsValidationError(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})
}

// Do performs an HTTP request with authentication applied. Non-2xx responses
// are returned as *errors.APIError.
func (c *Client) Do(ctx context.Context, req *http.Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	c.auth.Apply(req)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, &errors.APIError{
				Service:  c.service,
				Message:  "circuit breaker open",
				Endpoint: req.URL.Path,
				Err:      errors.ErrServiceUnavailable,
			}
		}
		return nil, err
	}
	return result.(*Response), nil
}

func (c *Client) roundTrip(req *http.Request) (*Response, error) {
	logger := logging.FromContext(req.Context())
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.WrapIO("request", req.Method+" "+req.URL.Path, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, errors.WrapIO("read", "response body", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, errors.NewValidationError("response body", req.URL.Path,
			fmt.Sprintf("response too large: exceeds %d bytes", c.maxBody))
	}

	logger.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("HTTP request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &errors.APIError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   req.URL.Path,
		}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string, accept string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+url, err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return c.Do(ctx, req)
}

// PostForm performs a POST with a form-encoded body. Query parameters are
// appended to the URL. contentType defaults to application/x-www-form-urlencoded.
func (c *Client) PostForm(ctx context.Context, rawURL string, query url.Values, body []byte, contentType string) (*Response, error) {
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.WrapResource("create", "request", "POST "+rawURL, err)
	}
	if contentType == "" {
		contentType = "application/x-www-form-urlencoded"
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(ctx, req)
}

// BreakerState reports the circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}
