// Package fetch retrieves orders markup from the upstream service or from saved
// files. Every failure here wraps internal.ErrTransport.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"purissima/internal"
	"purissima/internal/config"
	"purissima/internal/metrics"
)

// Window selects the orders to fetch. From and To use production.WindowLayout.
type Window struct {
	From   string
	To     string
	Status string
	Limit  int
}

type Fetcher interface {
	Fetch(ctx context.Context, w Window) ([]byte, error)
}

type Client struct {
	cfg         config.Config
	httpClient  *http.Client
	limiter     *RateLimiter
	maxAttempts int
	backoff     func(attempt int) time.Duration
	logger      *zap.Logger
	metrics     *metrics.Registry
}

func NewClient(cfg config.Config, logger *zap.Logger, reg *metrics.Registry) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts := cfg.OrdersAPIMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &Client{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: cfg.OrdersAPITimeout()},
		limiter:     NewRateLimiter(cfg.OrdersAPIRateLimitRPS),
		maxAttempts: attempts,
		backoff:     jitteredBackoff,
		logger:      logger,
		metrics:     reg,
	}
}

func jitteredBackoff(attempt int) time.Duration {
	return time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
}

func (c *Client) Fetch(ctx context.Context, w Window) ([]byte, error) {
	start := time.Now()
	body, err := c.fetch(ctx, w)
	if c.metrics != nil {
		c.metrics.FetchLatency.Observe(time.Since(start).Seconds())
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		c.metrics.FetchRequests.WithLabelValues(outcome).Inc()
	}
	return body, err
}

func (c *Client) fetch(ctx context.Context, w Window) ([]byte, error) {
	if err := c.cfg.Require("ORDERS_API_URL", c.cfg.OrdersAPIURL); err != nil {
		return nil, fmt.Errorf("%w: %v", internal.ErrTransport, err)
	}
	u, err := url.Parse(c.cfg.OrdersAPIURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internal.ErrTransport, err)
	}

	q := u.Query()
	params := map[string]string{"from": w.From, "to": w.To, "status": w.Status}
	if w.Limit > 0 {
		params["limit"] = strconv.Itoa(w.Limit)
	}
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.WaitTurn(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", internal.ErrTransport, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", internal.ErrTransport, err)
		}
		req.Header.Set("Accept", "application/json, text/html;q=0.9")
		req.Header.Set("User-Agent", "purissima-orders/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", internal.ErrTransport, ctx.Err())
			}
			lastErr = err
			c.logger.Warn("orders request failed", zap.Int("attempt", attempt), zap.Error(err))
			if err := c.wait(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			c.logger.Warn("orders response read failed", zap.Int("attempt", attempt), zap.Error(readErr))
			if err := c.wait(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		c.logger.Info("orders response received",
			zap.Int("status_code", resp.StatusCode),
			zap.Int("body_length", len(body)),
			zap.Int("attempt", attempt))

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("orders api status %d", resp.StatusCode)
			if isRetryableStatus(resp.StatusCode) && attempt < c.maxAttempts {
				if err := c.wait(ctx, attempt); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("%w: orders api error: status=%d body=%s", internal.ErrTransport, resp.StatusCode, truncate(body, 512))
		}
		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("orders request failed")
	}
	return nil, fmt.Errorf("%w: %v", internal.ErrTransport, lastErr)
}

func (c *Client) wait(ctx context.Context, attempt int) error {
	if attempt >= c.maxAttempts {
		return nil
	}
	if err := sleepCtx(ctx, c.backoff(attempt)); err != nil {
		return fmt.Errorf("%w: %v", internal.ErrTransport, err)
	}
	return nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
