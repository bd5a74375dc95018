// Package chapa is a minimal client for the Chapa payments API: initialize a
// checkout, then verify the transaction reference when the callback fires.
package chapa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	BaseURL   string
	SecretKey string
	HTTP      *http.Client
}

func New(baseURL, secretKey string) *Client {
	return &Client{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
	}
}

type InitializeRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name,omitempty"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url"`
	ReturnURL   string `json:"return_url,omitempty"`
}

type initializeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status   string  `json:"status"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
		TxRef    string  `json:"tx_ref"`
	} `json:"data"`
}

// Initialize creates a hosted checkout and returns its URL.
func (c *Client) Initialize(ctx context.Context, in InitializeRequest) (string, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out initializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("chapa initialize: decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK || out.Status != "success" {
		return "", fmt.Errorf("chapa initialize: %s (http %d)", out.Message, resp.StatusCode)
	}
	if out.Data.CheckoutURL == "" {
		return "", fmt.Errorf("chapa initialize: empty checkout_url")
	}
	return out.Data.CheckoutURL, nil
}

// Verify checks a transaction reference. It returns true only when Chapa
// reports the payment as successful.
func (c *Client) Verify(ctx context.Context, txRef string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/transaction/verify/"+txRef, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("chapa verify: decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK || out.Status != "success" {
		return false, fmt.Errorf("chapa verify: %s (http %d)", out.Message, resp.StatusCode)
	}
	return out.Data.Status == "success", nil
}
