package paychangu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/tiyeni/coachpay/pkg/config"
)

const defaultTimeout = 30 * time.Second

var ErrGatewayRejected = errors.New("paychangu rejected the request")

// Client is a thin wrapper over the PayChangu REST API. The secret is passed
// per call rather than held on the client: subscription billing uses the
// platform secret while course checkout uses each coach's own credential.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.SugaredLogger
}

func New(cfg *cfgpkg.Config, log *zap.SugaredLogger) *Client {
	return &Client{
		baseURL: cfg.PayChangu.BaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     log,
	}
}

// NewWithBaseURL is a constructor for tests pointing at a local server.
func NewWithBaseURL(baseURL string, log *zap.SugaredLogger) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: defaultTimeout}, log: log}
}

type PaymentRequest struct {
	TxRef       string `json:"tx_ref"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CallbackURL string `json:"callback_url"`
	ReturnURL   string `json:"return_url"`
}

type PaymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

type VerifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		TxRef    string `json:"tx_ref"`
		Status   string `json:"status"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	} `json:"data"`
}

// Confirmed reports whether the gateway confirms the payment as settled.
func (r *VerifyResponse) Confirmed() bool {
	return r != nil && r.Status == "success" && r.Data.Status == "success"
}

// CreatePayment creates a hosted checkout session and returns the URL the
// payer should be redirected to.
func (c *Client) CreatePayment(ctx context.Context, secret string, req *PaymentRequest) (*PaymentResponse, error) {
	if secret == "" {
		return nil, errors.New("paychangu secret is empty")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment request: %w", err)
	}

	var res PaymentResponse
	if err := c.do(ctx, http.MethodPost, "/payment", secret, bytes.NewReader(body), &res); err != nil {
		return nil, err
	}
	if res.Status != "success" {
		// Surface the gateway's own message verbatim; it is user-actionable.
		return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, res.Message)
	}
	return &res, nil
}

// VerifyPayment re-checks a transaction server side. Callback bodies are
// never trusted on their own.
func (c *Client) VerifyPayment(ctx context.Context, secret, txRef string) (*VerifyResponse, error) {
	if secret == "" {
		return nil, errors.New("paychangu secret is empty")
	}
	var res VerifyResponse
	if err := c.do(ctx, http.MethodGet, "/verify-payment/"+txRef, secret, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, path, secret string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+secret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("paychangu request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read paychangu response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warnw("paychangu non-2xx", "method", method, "path", path, "status", resp.StatusCode)
		// The gateway returns {status, message} on errors too; prefer its
		// message when it parses.
		var ge struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &ge) == nil && ge.Message != "" {
			return fmt.Errorf("%w: %s", ErrGatewayRejected, ge.Message)
		}
		return fmt.Errorf("%w: http %d", ErrGatewayRejected, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode paychangu response: %w", err)
	}
	return nil
}

var Module = fx.Options(
	fx.Provide(New),
)
