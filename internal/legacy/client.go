// Package legacy talks to the old marketplace backend so its catalog can be
// imported into this service.
package legacy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"conmart/internal/normalize"
)

type Client struct {
	BaseURL string
	// Old backend auth scheme: "Authorization: Token <key>".
	Token string
	HTTP  *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) getList(ctx context.Context, path, key string) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Token "+c.Token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("legacy GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("legacy GET %s: http %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("legacy GET %s: read: %w", path, err)
	}
	return normalize.DecodeList(body, key)
}

// Categories fetches and normalizes the legacy category list.
func (c *Client) Categories(ctx context.Context) ([]normalize.LegacyCategory, error) {
	raws, err := c.getList(ctx, "/api/categories/", "categories")
	if err != nil {
		return nil, err
	}
	out := make([]normalize.LegacyCategory, 0, len(raws))
	for _, raw := range raws {
		cat, err := normalize.Category(raw)
		if err != nil {
			return nil, fmt.Errorf("legacy category: %w", err)
		}
		out = append(out, cat)
	}
	return out, nil
}

// Products fetches and normalizes the legacy product list.
func (c *Client) Products(ctx context.Context) ([]normalize.LegacyProduct, error) {
	raws, err := c.getList(ctx, "/api/products/", "products")
	if err != nil {
		return nil, err
	}
	out := make([]normalize.LegacyProduct, 0, len(raws))
	for _, raw := range raws {
		p, err := normalize.Product(raw)
		if err != nil {
			return nil, fmt.Errorf("legacy product: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}
