package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the Paystack REST API. The secret key doubles as the HMAC
// key for webhook signatures.
type Client struct {
	BaseURL   string
	SecretKey string
	client    *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	return &Client{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// VerifySignature checks the x-paystack-signature header: HMAC-SHA512 over
// the exact raw request body, hex encoded. Must pass before any payload
// content is trusted.
func VerifySignature(secretKey string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// Sign computes the signature Paystack would send for body. Used by tests and
// by tooling that replays webhooks.
func Sign(secretKey string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Event is the webhook envelope. Only charge.success events carry state we
// act on; everything else is acknowledged and dropped.
type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

type EventData struct {
	Reference string   `json:"reference"`
	Amount    int64    `json:"amount"` // minor units
	Currency  string   `json:"currency"`
	Status    string   `json:"status"`
	Metadata  Metadata `json:"metadata"`
}

// Metadata is the typed form of the checkout metadata we attach at init time.
type Metadata struct {
	Type      string `json:"type"` // "wallet_deposit" for top-ups, empty for order payments
	UserID    uint   `json:"user_id"`
	OrderID   uint   `json:"order_id"`
	PaymentID uint   `json:"payment_id"`
	Amount    string `json:"amount"` // decimal string, major units
}

const EventChargeSuccess = "charge.success"

type verifyResponse struct {
	Status  bool      `json:"status"`
	Message string    `json:"message"`
	Data    EventData `json:"data"`
}

// VerifyTransaction confirms a charge directly with Paystack by reference.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*EventData, error) {
	url := fmt.Sprintf("%s/transaction/verify/%s", c.BaseURL, reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paystack verify: status %d", resp.StatusCode)
	}
	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if !out.Status {
		return nil, fmt.Errorf("paystack verify: %s", out.Message)
	}
	return &out.Data, nil
}
