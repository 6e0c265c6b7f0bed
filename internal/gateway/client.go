// Package gateway implements the client for the external mobile-money
// gateway: token lifecycle, retry/backoff, and error classification.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zamapay/wallet/internal/config"
	"github.com/zamapay/wallet/internal/metrics"
)

const maxResponseBytes = 1 << 20

// Ack is the gateway's acknowledgement of a submitted operation.
type Ack struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// StatusResult is the gateway's view of a previously submitted operation.
type StatusResult struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

type collectRequest struct {
	Amount            string `json:"amount"`
	From              string `json:"from"`
	Description       string `json:"description"`
	ExternalReference string `json:"external_reference"`
}

type disburseRequest struct {
	Amount            string `json:"amount"`
	To                string `json:"to"`
	Description       string `json:"description"`
	ExternalReference string `json:"external_reference"`
}

// Client talks to the mobile-money gateway. The cached token is shared by all
// in-flight requests; refresh happens under the mutex so concurrent callers
// racing on an expired token collapse into a single authentication call.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	cfg        config.GatewayConfig

	mu            sync.Mutex
	token         string
	tokenIssuedAt time.Time
}

// NewClient creates a gateway client from configuration. MaxAttempts is
// clamped to at least one so the request loop always executes.
func NewClient(cfg config.GatewayConfig, logger *slog.Logger) *Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Client{
		httpClient: &http.Client{},
		logger:     logger,
		cfg:        cfg,
	}
}

// Token returns the cached access token while it is still fresh, otherwise
// performs a blocking authentication call and caches the result.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Since(c.tokenIssuedAt) < c.cfg.TokenRefreshThreshold {
		c.logger.Debug("using cached gateway token")
		return c.token, nil
	}

	c.logger.Info("fetching new gateway access token")

	var resp authResponse
	req := authRequest{Username: c.cfg.Username, Password: c.cfg.Password}
	if err := c.do(ctx, "token", http.MethodPost, "/token/", false, req, &resp); err != nil {
		c.token = ""
		c.tokenIssuedAt = time.Time{}
		return "", err
	}

	metrics.TokenRefreshesTotal.Inc()
	c.token = resp.Token
	c.tokenIssuedAt = time.Now()
	return c.token, nil
}

// InvalidateToken drops the cached token so the next call re-authenticates.
func (c *Client) InvalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.tokenIssuedAt = time.Time{}
}

// SubmitCollection initiates a deposit-side transfer from the external payer
// into the platform. The reference is the internal idempotency key and must
// be identical across retries.
func (c *Client) SubmitCollection(ctx context.Context, amount decimal.Decimal, payerPhone, description, reference string) (*Ack, error) {
	c.logger.Info("submitting collection",
		"amount", amount.String(),
		"payer", payerPhone,
		"reference", reference,
	)

	req := collectRequest{
		Amount:            amount.String(),
		From:              payerPhone,
		Description:       description,
		ExternalReference: reference,
	}

	var ack Ack
	if err := c.do(ctx, "collect", http.MethodPost, "/collect/", true, req, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// SubmitDisbursement initiates a withdrawal-side payout to the external payee.
func (c *Client) SubmitDisbursement(ctx context.Context, amount decimal.Decimal, payeePhone, description, reference string) (*Ack, error) {
	c.logger.Info("submitting disbursement",
		"amount", amount.String(),
		"payee", payeePhone,
		"reference", reference,
	)

	req := disburseRequest{
		Amount:            amount.String(),
		To:                payeePhone,
		Description:       description,
		ExternalReference: reference,
	}

	var ack Ack
	if err := c.do(ctx, "withdraw", http.MethodPost, "/withdraw/", true, req, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// QueryStatus fetches the gateway's current status for an external reference.
func (c *Client) QueryStatus(ctx context.Context, externalRef string) (*StatusResult, error) {
	c.logger.Debug("querying gateway status", "external_reference", externalRef)

	var result StatusResult
	path := "/transaction/" + url.PathEscape(externalRef) + "/"
	if err := c.do(ctx, "status", http.MethodGet, path, true, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do runs one logical gateway call through the retry protocol: bounded
// attempts, exponential backoff with jitter, retryable errors only. A 401
// invalidates the cached token and replays the request once with a fresh
// token without consuming an attempt.
func (c *Client) do(ctx context.Context, op, method, path string, authed bool, body, out any) error {
	var lastErr *Error
	refreshedToken := false

	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			metrics.GatewayRetriesTotal.WithLabelValues(op).Inc()
			delay := c.backoff(attempt)
			c.logger.Warn("retrying gateway call",
				"operation", op,
				"attempt", attempt+1,
				"max_attempts", c.cfg.MaxAttempts,
				"delay", delay,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return &Error{Kind: KindTimeout, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		err := c.send(ctx, method, path, authed, body, out)
		if err == nil {
			metrics.GatewayRequestsTotal.WithLabelValues(op, "success").Inc()
			return nil
		}

		var gwErr *Error
		if !errors.As(err, &gwErr) {
			gwErr = &Error{Kind: KindNetwork, Err: err}
		}

		if authed && gwErr.StatusCode == http.StatusUnauthorized && !refreshedToken {
			refreshedToken = true
			c.logger.Warn("gateway token rejected, refreshing and replaying request", "operation", op)
			c.InvalidateToken()
			attempt--
			continue
		}

		lastErr = gwErr
		if !gwErr.Retryable() {
			break
		}
	}

	metrics.GatewayRequestsTotal.WithLabelValues(op, string(lastErr.Kind)).Inc()
	c.logger.Error("gateway call failed",
		"operation", op,
		"kind", lastErr.Kind,
		"status", lastErr.StatusCode,
		"error", lastErr,
	)
	return lastErr
}

// send performs a single round trip with the per-request timeout applied.
func (c *Client) send(ctx context.Context, method, path string, authed bool, body, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindRejected, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindRejected, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	if authed {
		token, err := c.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return classifyTransportError(err)
	}

	if resp.StatusCode >= 400 {
		return &Error{
			Kind:       classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Kind: KindUnavailable, Err: fmt.Errorf("decode response: %w", err)}
		}
	}

	return nil
}

// backoff computes the delay before the given attempt: exponential growth
// from the base, capped, with 50% random jitter.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.cfg.BackoffBase << (attempt - 1)
	if delay > c.cfg.BackoffCap || delay <= 0 {
		delay = c.cfg.BackoffCap
	}
	half := delay / 2
	return half + rand.N(delay-half+1)
}

func classifyTransportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindNetwork, Err: err}
}
