// Package payment implements port.PaymentGateway against an HTTP payment
// processor and an in-process sandbox.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"adcore/internal/core/domain"
	"adcore/internal/core/port"
	"adcore/internal/metrics"
)

const maxResponseBody = 1 << 20

// Config describes the processor endpoint and the call budget.
type Config struct {
	BaseURL       string
	Channel       string
	Secret        string
	Timeout       time.Duration // per attempt
	MaxAttempts   uint
	RetryInterval time.Duration // first backoff interval
	Rate          float64       // requests per second, 0 disables limiting
	Burst         int
}

var _ port.PaymentGateway = (*Client)(nil)

// Client calls the processor's JSON API. Every call carries the transaction's
// idempotency key, so retries after timeouts cannot charge twice.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/"

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.Rate > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{},
		limiter: limiter,
		logger:  logger,
	}
}

type callPayload struct {
	ExternalID        int64             `json:"externalId"`
	AdvertiserID      int64             `json:"advertiserId"`
	CampaignID        int64             `json:"campaignId"`
	Amount            decimal.Decimal   `json:"amount"`
	Currency          string            `json:"currency"`
	Method            string            `json:"method,omitempty"`
	Details           map[string]string `json:"details,omitempty"`
	OriginalReference string            `json:"originalReference,omitempty"`
	Reason            string            `json:"reason,omitempty"`
}

func newPayload(call port.PaymentCall) callPayload {
	return callPayload{
		ExternalID:        call.TransactionID,
		AdvertiserID:      call.AdvertiserID,
		CampaignID:        call.CampaignID,
		Amount:            call.Amount.Decimal(),
		Currency:          call.Currency,
		Method:            call.Method,
		Details:           call.Details,
		OriginalReference: call.OriginalReference,
		Reason:            call.Reason,
	}
}

// Charge collects call.Amount from the advertiser's payment method.
func (c *Client) Charge(ctx context.Context, call port.PaymentCall) (port.PaymentReceipt, error) {
	return c.do(ctx, "charge", "payment/charge", call)
}

// Refund pays call.Amount back against call.OriginalReference.
func (c *Client) Refund(ctx context.Context, call port.PaymentCall) (port.PaymentReceipt, error) {
	return c.do(ctx, "refund", "payment/refund", call)
}

func (c *Client) do(ctx context.Context, op, endpoint string, call port.PaymentCall) (port.PaymentReceipt, error) {
	body, err := json.Marshal(newPayload(call))
	if err != nil {
		return port.PaymentReceipt{}, fmt.Errorf("%w: marshal %s request: %v", domain.ErrGatewayFailure, op, err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.RetryInterval

	receipt, err := backoff.Retry(ctx,
		func() (port.PaymentReceipt, error) {
			return c.attempt(ctx, op, endpoint, call.IdempotencyKey, body)
		},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.cfg.MaxAttempts),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.logger.Warn("payment gateway attempt failed",
				slog.String("op", op),
				slog.Int64("transaction_id", call.TransactionID),
				slog.Duration("retry_in", wait),
				slog.Any("error", err))
		}),
	)
	if err != nil {
		return port.PaymentReceipt{}, fmt.Errorf("%w: %s transaction %d: %v", domain.ErrGatewayFailure, op, call.TransactionID, err)
	}
	return receipt, nil
}

// attempt performs one bounded call. Errors wrapped with backoff.Permanent
// are not retried.
func (c *Client) attempt(ctx context.Context, op, endpoint, key string, body []byte) (receipt port.PaymentReceipt, err error) {
	if err = c.limiter.Wait(ctx); err != nil {
		return receipt, backoff.Permanent(err)
	}

	start := time.Now()
	outcome := "error"
	defer func() {
		if err == nil {
			outcome = "ok"
		}
		metrics.ObserveGateway(op, outcome, time.Since(start))
	}()

	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.cfg.BaseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return receipt, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("channel", c.cfg.Channel)
	req.Header.Set("secret", c.cfg.Secret)
	req.Header.Set("Idempotency-Key", key)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return receipt, backoff.Permanent(ctx.Err())
		}
		outcome = "transport"
		return receipt, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		outcome = "transport"
		return receipt, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		outcome = "throttled"
		if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && secs > 0 {
			return receipt, backoff.RetryAfter(secs)
		}
		return receipt, fmt.Errorf("throttled: %s", resp.Status)
	case resp.StatusCode >= http.StatusInternalServerError:
		outcome = "server_error"
		return receipt, fmt.Errorf("processor error: %s", resp.Status)
	case resp.StatusCode >= http.StatusBadRequest:
		outcome = "rejected"
		return receipt, backoff.Permanent(fmt.Errorf("rejected: %s: %s", resp.Status, describe(raw)))
	}

	if !gjson.ValidBytes(raw) {
		outcome = "malformed"
		return receipt, errors.New("malformed processor response")
	}
	if !gjson.GetBytes(raw, "status").Bool() {
		outcome = "declined"
		return receipt, backoff.Permanent(fmt.Errorf("declined: %s", describe(raw)))
	}
	ref := gjson.GetBytes(raw, "data.reference").String()
	if ref == "" {
		outcome = "malformed"
		return receipt, errors.New("processor response without reference")
	}
	return port.PaymentReceipt{Reference: ref}, nil
}

// describe extracts the processor's error code and message.
func describe(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return strings.TrimSpace(string(raw))
	}
	res := gjson.GetManyBytes(raw, "code", "dialog.message")
	code, msg := res[0].String(), res[1].String()
	switch {
	case code == "" && msg == "":
		return "unknown"
	case msg == "":
		return code
	case code == "":
		return msg
	}
	return code + " - " + msg
}
