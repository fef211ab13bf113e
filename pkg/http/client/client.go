package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type Response struct {
	StatusCode int
	Body       []byte
}

type Interface interface {
	Get(ctx context.Context, path string) (*Response, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    func() backoff.BackOff
	breaker    *gobreaker.CircuitBreaker[*Response]
	GetFunc    func(ctx context.Context, path string) (*Response, error)
}

var _ Interface = (*Client)(nil)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// InitialInterval and MaxInterval bound the exponential backoff between retries.
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// Name labels the circuit breaker in logs.
	Name string
}

func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}

	if opts.InitialInterval == 0 {
		opts.InitialInterval = 200 * time.Millisecond
	}

	if opts.MaxInterval == 0 {
		opts.MaxInterval = 5 * time.Second
	}

	if opts.Name == "" {
		opts.Name = "http-client"
	}

	return &Client{
		baseURL: opts.BaseURL,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		maxRetries: opts.MaxRetries,
		backoff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = opts.InitialInterval
			bo.MaxInterval = opts.MaxInterval
			bo.MaxElapsedTime = 0
			return bo
		},
		breaker: gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
			Name:        opts.Name,
			MaxRequests: 1,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Circuit breaker state changed")
			},
		}),
	}
}

// Get fetches path relative to the base URL. Network failures and 5xx responses
// are retried with exponential backoff; the last 5xx response is returned once
// retries are exhausted.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	if c.GetFunc != nil {
		return c.GetFunc(ctx, path)
	}

	var fullURL string
	if c.baseURL == "" {
		fullURL = path
	} else {
		fullURL = c.baseURL + path
	}

	var last *Response
	operation := func() error {
		resp, err := c.breaker.Execute(func() (*Response, error) {
			return c.do(ctx, fullURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				last = nil
				return backoff.Permanent(ErrCircuitOpen)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			if resp != nil {
				last = resp
			}
			log.Debug().Err(err).Str("url", fullURL).Msg("Retrying request")
			return err
		}
		last = resp
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.backoff(), uint64(c.maxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if last != nil {
			return last, nil
		}
		return nil, err
	}

	return last, nil
}

func (c *Client) do(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Debug().Err(err).Msg("Error closing response body")
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	out := &Response{StatusCode: resp.StatusCode, Body: body}
	if resp.StatusCode >= http.StatusInternalServerError {
		return out, fmt.Errorf("server error: %s", http.StatusText(resp.StatusCode))
	}

	return out, nil
}

// BreakerState reports the circuit breaker state, mostly for tests and health output.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}
