package telegram

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

	"relaybot/internal/core/domain"
	"relaybot/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultAPIURL = "https://api.telegram.org"

	defaultHTTPTimeout = 90 * time.Second
)

// Client calls the Bot API. Every call made through Call is retried on rate limiting and
// server errors according to its Backoff; uploads are sent once.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	backoff Backoff
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error
	l       zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithBackoff(b Backoff) Option {
	return func(c *Client) {
		c.backoff = b
	}
}

// WithBaseURL points the client at another API host, e.g. a local Bot API server.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithRateLimit throttles outgoing requests on the client side. A non-positive rate disables it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func New(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultAPIURL,
		token:   token,
		http:    &http.Client{Timeout: defaultHTTPTimeout},
		backoff: DefaultBackoff(),
		sleep:   sleepContext,
		l:       log.With().Str("component", "telegram").Logger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type envelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Call invokes an API method and decodes its result into T.
func Call[T any](ctx context.Context, c *Client, method string, params any) (T, error) {
	var out T

	raw, err := c.do(ctx, method, params)
	if err != nil {
		return out, err
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return out, c.fail(&domain.CallError{
				Kind:        domain.KindDecode,
				Method:      method,
				Description: "unexpected result payload",
				Err:         err,
			})
		}
	}

	metrics.APICallsTotal.WithLabelValues(method, "success").Inc()

	return out, nil
}

func (c *Client) do(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, c.fail(&domain.CallError{Kind: domain.KindDecode, Method: method,
			Description: "could not encode parameters", Err: err})
	}

	l := c.l.With().Str("method", method).Logger()
	attempts := c.backoff.Attempts()

	var lastErr *domain.CallError
	for attempt := 1; attempt <= attempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, c.fail(&domain.CallError{Kind: domain.KindTransport, Method: method,
					Description: "rate limiter wait aborted", Err: err})
			}
		}

		res, err := c.post(ctx, method, "application/json", bytes.NewReader(body))
		if err != nil {
			return nil, c.fail(err)
		}

		result, callErr, hint, retryable := classify(method, res)
		if callErr == nil {
			return result, nil
		}

		if !retryable {
			return nil, c.fail(callErr)
		}

		lastErr = callErr
		if attempt == attempts {
			break
		}

		delay := c.backoff.NextDelay(attempt, hint)
		l.Warn().
			Int("attempt", attempt).
			Int("status", res.status).
			Dur("delay", delay).
			Str("reason", callErr.Kind.String()).
			Msg("retrying remote call")
		metrics.APIRetriesTotal.WithLabelValues(method, callErr.Kind.String()).Inc()

		if err := c.sleep(ctx, delay); err != nil {
			return nil, c.fail(&domain.CallError{Kind: domain.KindTransport, Method: method,
				Description: "cancelled while backing off", Err: err})
		}
	}

	l.Error().Int("attempts", attempts).Str("description", lastErr.Description).Msg("giving up on remote call")

	return nil, c.fail(lastErr)
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) post(ctx context.Context, method, contentType string, body io.Reader) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), body)
	if err != nil {
		return nil, &domain.CallError{Kind: domain.KindTransport, Method: method,
			Description: "could not create request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.CallError{Kind: domain.KindTransport, Method: method,
			Description: "request failed", Err: err}
	}
	defer res.Body.Close()

	buf, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &domain.CallError{Kind: domain.KindTransport, Method: method,
			Description: "could not read response", Status: res.StatusCode, Err: err}
	}

	return &response{status: res.StatusCode, header: res.Header, body: buf}, nil
}

// classify turns one HTTP response into a result or a call error. The status is checked
// before the body is decoded.
func classify(method string, res *response) (json.RawMessage, *domain.CallError, time.Duration, bool) {
	switch {
	case res.status == http.StatusTooManyRequests:
		hint, ok := retryAfterHeader(res.header)
		if !ok {
			hint, _ = ParseRetryAfter(string(res.body))
		}
		return nil, &domain.CallError{Kind: domain.KindRateLimited, Method: method, Status: res.status,
			Description: "too many requests"}, hint, true
	case res.status >= http.StatusInternalServerError:
		return nil, &domain.CallError{Kind: domain.KindRemoteFault, Method: method, Status: res.status,
			Description: fmt.Sprintf("server error: %d", res.status)}, 0, true
	}

	var env envelope
	if err := json.Unmarshal(res.body, &env); err != nil {
		return nil, &domain.CallError{Kind: domain.KindDecode, Method: method, Status: res.status,
			Description: "malformed response envelope", Err: err}, 0, false
	}

	if env.OK {
		return env.Result, nil, 0, false
	}

	description := env.Description
	if description == "" {
		description = "telegram api error"
	}

	hint, ok := ParseRetryAfter(description)
	if !ok && env.Parameters != nil && env.Parameters.RetryAfter > 0 {
		hint, ok = retryAfterSeconds(env.Parameters.RetryAfter)
	}
	if ok {
		return nil, &domain.CallError{Kind: domain.KindRateLimited, Method: method, Status: res.status,
			Description: description}, hint, true
	}

	return nil, &domain.CallError{Kind: domain.KindApplication, Method: method, Status: res.status,
		Description: description}, 0, false
}

func (c *Client) fail(err error) error {
	var ce *domain.CallError
	if errors.As(err, &ce) {
		metrics.APICallsTotal.WithLabelValues(ce.Method, ce.Kind.String()).Inc()
	}

	return err
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func (c *Client) fileURL(path string) string {
	return fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, strings.TrimLeft(path, "/"))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
