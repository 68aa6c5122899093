package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/genflow/types"
)

// HTTPClient is the Client implementation for JSON-over-HTTP providers.
// All outbound calls pass through one token bucket so a batch never bursts
// past the provider's rate limit.
type HTTPClient struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewHTTPClient creates a provider client from cfg.
func NewHTTPClient(cfg Config, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if cfg.StatusPath == "" {
		cfg.StatusPath = "v1/jobs/%s"
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &HTTPClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		logger:  logger.With(zap.String("component", "provider"), zap.String("provider", cfg.Name)),
	}
}

func (c *HTTPClient) Name() string { return c.cfg.Name }

// Submit sends one generation request and normalizes the provider answer.
func (c *HTTPClient) Submit(ctx context.Context, endpoint string, payload map[string]any) (*SubmitResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "marshal submit payload").WithCause(err)
	}

	url := c.cfg.BaseURL + "/" + strings.TrimLeft(endpoint, "/")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "create submit request").WithCause(err)
	}
	c.setHeaders(httpReq)

	c.logger.Debug("submitting generation", zap.String("endpoint", endpoint))

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.ErrProviderError, "submit request failed").
			WithProvider(c.cfg.Name).WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, c.httpError("submit", resp)
	}

	var out SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, types.NewError(types.ErrProviderError, "decode submit response").
			WithProvider(c.cfg.Name).WithCause(err)
	}
	return &out, nil
}

// QueryStatus fetches one job's state.
func (c *HTTPClient) QueryStatus(ctx context.Context, jobID string) (*StatusResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	url := c.cfg.BaseURL + "/" + fmt.Sprintf(strings.TrimLeft(c.cfg.StatusPath, "/"), jobID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "create status request").WithCause(err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.ErrTransientPoll, "status query failed").
			WithProvider(c.cfg.Name).WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, c.httpError("status", resp)
	}

	var out StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, types.NewError(types.ErrTransientPoll, "decode status response").
			WithProvider(c.cfg.Name).WithRetryable(true).WithCause(err)
	}
	return &out, nil
}

func (c *HTTPClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return types.NewError(types.ErrRateLimited, "rate limiter wait cancelled").WithCause(err)
	}
	return nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}

func (c *HTTPClient) httpError(op string, resp *http.Response) *types.Error {
	errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := fmt.Sprintf("%s error: status=%d body=%s", op, resp.StatusCode, strings.TrimSpace(string(errBody)))
	return types.NewError(types.ErrProviderError, msg).
		WithProvider(c.cfg.Name).
		WithHTTPStatus(resp.StatusCode).
		WithRetryable(resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500)
}
