// Package payments integrates the Paystack hosted checkout. The client talks
// to the REST API directly; the popup itself runs on Paystack's side and hands
// the browser a transaction reference that we verify server-side before any
// reservation or donation row is written.
package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultBaseURL = "https://api.paystack.co"

// ErrTransactionNotFound is returned when the gateway does not know the
// reference at all, as opposed to knowing it and reporting a failed charge.
var ErrTransactionNotFound = errors.New("transaction not found")

type InitializeRequest struct {
	Email string
	// Amount is in minor units (ZAR cents).
	Amount   int
	Currency string
	Metadata map[string]interface{}
}

// CheckoutSession is what the client needs to open the Paystack popup.
type CheckoutSession struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Verification is the gateway's view of a transaction. Status is "success"
// for captured payments; anything else must be treated as not paid.
type Verification struct {
	Status    string
	Reference string
	Amount    int
	Currency  string
	Email     string
	PaidAt    string
}

// Succeeded reports whether the gateway captured the payment.
func (v *Verification) Succeeded() bool {
	return v.Status == "success"
}

// Gateway is the slice of Paystack the handlers depend on. Tests substitute
// a fake; production uses *Client.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*CheckoutSession, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
}

type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

func NewClient(secretKey string) *Client {
	return &Client{
		secretKey:  secretKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(secretKey, baseURL string) *Client {
	c := NewClient(secretKey)
	c.baseURL = baseURL
	return c
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (json.RawMessage, int, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("paystack request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read paystack response: %w", err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("parse paystack response: %w", err)
	}
	if !envelope.Status {
		return nil, resp.StatusCode, fmt.Errorf("paystack: %s", envelope.Message)
	}
	return envelope.Data, resp.StatusCode, nil
}

func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*CheckoutSession, error) {
	currency := req.Currency
	if currency == "" {
		currency = "ZAR"
	}
	payload := map[string]interface{}{
		"email":    req.Email,
		"amount":   req.Amount,
		"currency": currency,
	}
	if req.Metadata != nil {
		payload["metadata"] = req.Metadata
	}

	data, _, err := c.do(ctx, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}

	var session CheckoutSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parse checkout session: %w", err)
	}
	return &session, nil
}

func (c *Client) Verify(ctx context.Context, reference string) (*Verification, error) {
	data, statusCode, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		if statusCode == http.StatusNotFound {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	var raw struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int    `json:"amount"`
		Currency  string `json:"currency"`
		PaidAt    string `json:"paid_at"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse verification: %w", err)
	}

	return &Verification{
		Status:    raw.Status,
		Reference: raw.Reference,
		Amount:    raw.Amount,
		Currency:  raw.Currency,
		Email:     raw.Customer.Email,
		PaidAt:    raw.PaidAt,
	}, nil
}

// ValidateWebhookSignature checks the x-paystack-signature header: an
// HMAC-SHA512 of the raw body keyed with the secret key, hex encoded.
func ValidateWebhookSignature(secretKey string, body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseWebhook decodes a webhook body. Call ValidateWebhookSignature first.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("parse webhook: %w", err)
	}
	return &event, nil
}

// WebhookEvent is the subset of the webhook payload the server acts on.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int    `json:"amount"`
		Currency  string `json:"currency"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}
