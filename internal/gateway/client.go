// Package gateway is a client for the Paymob Accept API. Every call is a
// single HTTP request bounded by the configured timeout; nothing is retried.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"kasir/internal/config"
	"kasir/internal/models"
)

const maxResponseBytes = 1 << 20

// Client is safe for concurrent use; it holds no per-checkout state.
type Client struct {
	cfg  config.Paymob
	http *http.Client
	now  func() time.Time
}

// NewClient creates a Client. A nil httpClient gets a default one whose
// timeout matches cfg.Timeout.
func NewClient(cfg config.Paymob, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		cfg:  cfg,
		http: httpClient,
		now:  time.Now,
	}
}

type authRequest struct {
	APIKey string `json:"api_key"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Authenticate exchanges the API key for a short-lived auth token.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	var resp tokenResponse
	if err := c.post(ctx, StepAuthenticate, "/auth/tokens", authRequest{APIKey: c.cfg.APIKey}, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", newError(StepAuthenticate, ErrAuth, errors.New("response has no token"))
	}
	return resp.Token, nil
}

type orderRequest struct {
	AuthToken       string        `json:"auth_token"`
	DeliveryNeeded  bool          `json:"delivery_needed"`
	AmountCents     int64         `json:"amount_cents"`
	Currency        string        `json:"currency"`
	MerchantOrderID string        `json:"merchant_order_id"`
	Items           []interface{} `json:"items"`
}

type orderResponse struct {
	ID int64 `json:"id"`
}

// CreateRemoteOrder registers the order with the provider and returns the
// provider's order id. merchantOrderID is echoed back in webhooks.
func (c *Client) CreateRemoteOrder(ctx context.Context, token, merchantOrderID string, amountCents int64) (int64, error) {
	req := orderRequest{
		AuthToken:       token,
		DeliveryNeeded:  false,
		AmountCents:     amountCents,
		Currency:        c.cfg.Currency,
		MerchantOrderID: merchantOrderID,
		Items:           []interface{}{},
	}
	var resp orderResponse
	if err := c.post(ctx, StepCreateOrder, "/ecommerce/orders", req, &resp); err != nil {
		return 0, err
	}
	if resp.ID == 0 {
		return 0, newError(StepCreateOrder, ErrOrder, errors.New("response has no order id"))
	}
	return resp.ID, nil
}

type paymentKeyRequest struct {
	AuthToken     string            `json:"auth_token"`
	AmountCents   int64             `json:"amount_cents"`
	Expiration    int64             `json:"expiration"`
	OrderID       int64             `json:"order_id"`
	BillingData   map[string]string `json:"billing_data"`
	Currency      string            `json:"currency"`
	IntegrationID int64             `json:"integration_id"`
}

// GeneratePaymentKey requests a payment token bound to the remote order,
// amount, currency and the integration profile of method.
func (c *Client) GeneratePaymentKey(ctx context.Context, token string, remoteOrderID, amountCents int64, billing models.BillingData, method PaymentMethod) (string, error) {
	integrationID, err := c.integrationFor(method)
	if err != nil {
		return "", err
	}
	req := paymentKeyRequest{
		AuthToken:     token,
		AmountCents:   amountCents,
		Expiration:    int64(c.cfg.PaymentKeyExpiration / time.Second),
		OrderID:       remoteOrderID,
		BillingData:   BillingFields(billing),
		Currency:      c.cfg.Currency,
		IntegrationID: integrationID,
	}
	var resp tokenResponse
	if err := c.post(ctx, StepPaymentKey, "/acceptance/payment_keys", req, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", newError(StepPaymentKey, ErrKey, errors.New("response has no payment token"))
	}
	return resp.Token, nil
}

func (c *Client) integrationFor(method PaymentMethod) (int64, error) {
	switch {
	case method == MethodCard:
		return c.cfg.IntegrationID, nil
	case method.IsWallet():
		if c.cfg.WalletIntegrationID > 0 {
			return c.cfg.WalletIntegrationID, nil
		}
		return c.cfg.IntegrationID, nil
	default:
		return 0, newError(StepPaymentKey, ErrUnsupportedMethod, fmt.Errorf("method %q", method))
	}
}

func (c *Client) post(ctx context.Context, step Step, path string, in, out interface{}) error {
	kind := step.kind()

	payload, err := json.Marshal(in)
	if err != nil {
		return newError(step, kind, fmt.Errorf("failed to encode request: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return newError(step, kind, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(ctx, step, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.transportError(ctx, step, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("Paymob %s returned status %d", step, resp.StatusCode)
		return newError(step, kind, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return newError(step, kind, fmt.Errorf("malformed response: %w", err))
	}
	return nil
}

func (c *Client) transportError(ctx context.Context, step Step, err error) error {
	if isTimeout(ctx, err) {
		return newError(step, ErrTimeout, err)
	}
	return newError(step, step.kind(), err)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
