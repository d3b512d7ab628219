package gateway

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

	"github.com/MarcelWeber/TeamPilot/internal/pkg/env"
)

const defaultGatewayBaseURL = "https://api.razorpay.com"

// CreateOrderInput is the outbound order request. Amount is in minor units;
// the gateway never sees a float.
type CreateOrderInput struct {
	AmountCents int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order is the opaque gateway order handle bound into the checkout. Only
// identity, amount and currency are trusted before verification.
type Order struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// Client mints gateway-side payment orders. It is injected into the
// orchestrator so tests can substitute a fake.
type Client interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error)
	KeyID() string
}

// RestClient talks to a Razorpay-compatible order REST API.
type RestClient struct {
	BaseURL   string
	APIKeyID  string
	APISecret string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a gateway client from environment configuration.
func NewClientFromEnv() *RestClient {
	return &RestClient{
		BaseURL:   strings.TrimRight(env.GetEnv("GATEWAY_BASE_URL", defaultGatewayBaseURL), "/"),
		APIKeyID:  strings.TrimSpace(env.GetEnv("GATEWAY_KEY_ID", "")),
		APISecret: strings.TrimSpace(env.GetEnv("GATEWAY_KEY_SECRET", "")),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// KeyID returns the public key id shown to the checkout frontend.
func (c *RestClient) KeyID() string {
	return c.APIKeyID
}

type createOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type gatewayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder mints one gateway order for one payment attempt.
func (c *RestClient) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	if c.APIKeyID == "" || c.APISecret == "" {
		return nil, errors.New("GATEWAY_KEY_ID/GATEWAY_KEY_SECRET are not configured")
	}
	if in.AmountCents <= 0 {
		return nil, errors.New("order amount must be strictly positive")
	}
	if strings.TrimSpace(in.Currency) == "" {
		return nil, errors.New("order currency is required")
	}

	body, err := json.Marshal(createOrderRequest{
		Amount:   in.AmountCents,
		Currency: strings.ToUpper(in.Currency),
		Receipt:  in.Receipt,
		Notes:    in.Notes,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.APIKeyID, c.APISecret)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway order request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var gwErr gatewayErrorResponse
		if json.Unmarshal(raw, &gwErr) == nil && gwErr.Error.Description != "" {
			return nil, fmt.Errorf("gateway rejected order (%s): %s", gwErr.Error.Code, gwErr.Error.Description)
		}
		return nil, fmt.Errorf("gateway order endpoint returned status %d", resp.StatusCode)
	}

	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("invalid gateway order response: %w", err)
	}
	if order.ID == "" {
		return nil, errors.New("gateway order response is missing an order id")
	}
	if order.AmountCents != in.AmountCents || !strings.EqualFold(order.Currency, in.Currency) {
		return nil, fmt.Errorf("gateway echoed %d %s for a %d %s order",
			order.AmountCents, order.Currency, in.AmountCents, in.Currency)
	}
	return &order, nil
}
