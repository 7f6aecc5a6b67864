package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tourbooking_backend/platform/apperr"
	"tourbooking_backend/platform/logger"
)

// Client is the HTTP client for the payment provider API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *logger.Logger
}

// New creates a new payment API client.
func NewClient(baseURL, apiKey string, log *logger.Logger) (*Client, error) {
	if baseURL == "" || apiKey == "" {
		return nil, fmt.Errorf("payment gateway requires an API URL and key")
	}

	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		log:        log,
	}, nil
}

type tokenRequest struct {
	PaymentMethodToken string `json:"paymentMethodToken"`
}

// Capture charges the payment method referenced by the token.
func (c *Client) Capture(ctx context.Context, token string) error {
	return c.post(ctx, "/v1/payment-methods/capture", token)
}

// Void releases the payment method referenced by the token without charging.
func (c *Client) Void(ctx context.Context, token string) error {
	return c.post(ctx, "/v1/payment-methods/void", token)
}

func (c *Client) post(ctx context.Context, path, token string) error {
	body, err := json.Marshal(tokenRequest{PaymentMethodToken: token})
	if err != nil {
		return fmt.Errorf("payment request marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Transient("payment provider unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return apperr.Transient(fmt.Sprintf("payment provider returned status %d", resp.StatusCode), nil)
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("payment call %s failed: status %d: %s", path, resp.StatusCode, detail)
	}
}

var _ Gateway = (*Client)(nil)
