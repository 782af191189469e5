package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront-cart/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

const maxBodySize = 1 << 20 // 1MB

// Client talks to the storefront REST API for product and stock lookups.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	sfg        singleflight.Group // collapses concurrent lookups of the same resource
	log        *logrus.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(log *logrus.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithBreakerSettings replaces the default circuit breaker configuration.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(c *Client) { c.breaker = newBreaker(st, c) }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: logrus.StandardLogger(),
	}
	c.breaker = newBreaker(DefaultBreakerSettings(), c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func DefaultBreakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "catalog-api",
		MaxRequests: 1,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
}

func newBreaker(st gobreaker.Settings, c *Client) *gobreaker.CircuitBreaker[[]byte] {
	st.IsSuccessful = breakerSuccess
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		c.log.WithFields(logrus.Fields{
			"breaker": name,
			"from":    from.String(),
			"to":      to.String(),
		}).Warn("circuit breaker state changed")
	}
	return gobreaker.NewCircuitBreaker[[]byte](st)
}

// breakerSuccess counts a missing product and a cancelled request as
// answers, not outages. Lookups run detached from caller deadlines, so a
// DeadlineExceeded here is the client timeout and does count.
func breakerSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, context.Canceled)
}

// shared runs fn once per key for all concurrent callers. fn gets a context
// detached from any single caller's cancellation, so one caller giving up
// does not fail the others; each caller still stops waiting on its own ctx.
func (c *Client) shared(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.sfg.DoChan(key, func() (interface{}, error) {
		return fn(detached)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetStock returns the available quantity of productID.
func (c *Client) GetStock(ctx context.Context, productID int64) (*domain.Stock, error) {
	v, err := c.shared(ctx, fmt.Sprintf("stock/%d", productID), func(ctx context.Context) (interface{}, error) {
		body, err := c.get(ctx, fmt.Sprintf("/stock/%d", productID))
		if err != nil {
			return nil, err
		}

		var stock domain.Stock
		if err := json.Unmarshal(body, &stock); err != nil {
			return nil, fmt.Errorf("unmarshal stock failed: %w", err)
		}
		return stock, nil
	})
	if err != nil {
		return nil, fmt.Errorf("get stock %d: %w", productID, err)
	}

	stock := v.(domain.Stock)
	return &stock, nil
}

// GetProduct returns the catalog entry for productID. An empty body is
// reported as ErrNotFound.
func (c *Client) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	v, err := c.shared(ctx, fmt.Sprintf("products/%d", productID), func(ctx context.Context) (interface{}, error) {
		body, err := c.get(ctx, fmt.Sprintf("/products/%d", productID))
		if err != nil {
			return nil, err
		}

		var product *domain.Product
		if len(strings.TrimSpace(string(body))) > 0 {
			if err := json.Unmarshal(body, &product); err != nil {
				return nil, fmt.Errorf("unmarshal product failed: %w", err)
			}
		}
		if product == nil || product.ID == 0 {
			return nil, ErrNotFound
		}
		return *product, nil
	})
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", productID, err)
	}

	// every caller gets its own copy; the store mutates Amount
	product := v.(domain.Product)
	return &product, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("build request failed: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", uuid.NewString())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request %s failed: %w", path, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("read body failed: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return nil, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, path)
		}
		return body, nil
	})
}
