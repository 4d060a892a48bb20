// Package linktoken obtains the ephemeral, provider-specific credential
// some aggregators require before their authorization widget can open.
package linktoken

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Provisioner issues one link token per call. Calls are idempotent-safe
// to retry; the token is owned by a single launch attempt and never
// persisted or reused across attempts.
type Provisioner interface {
	Provision(ctx context.Context) (string, error)
}

// Client provisions link tokens from the token-issuance collaborator.
type Client struct {
	endpoint   string
	clientID   string
	secret     string
	clientName string
	products   []string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithProducts(products ...string) ClientOption {
	return func(c *Client) { c.products = products }
}

func NewClient(endpoint, clientID, secret, clientName string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   endpoint,
		clientID:   clientID,
		secret:     secret,
		clientName: clientName,
		products:   []string{"transactions"},
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

type createRequest struct {
	ClientID   string   `json:"client_id"`
	Secret     string   `json:"secret"`
	ClientName string   `json:"client_name"`
	Products   []string `json:"products"`
}

type createResponse struct {
	LinkToken string `json:"link_token"`
}

// Provision implements Provisioner.
func (c *Client) Provision(ctx context.Context) (string, error) {
	body, err := json.Marshal(createRequest{
		ClientID:   c.clientID,
		Secret:     c.secret,
		ClientName: c.clientName,
		Products:   c.products,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("link token creation failed with status: %d", resp.StatusCode)
	}

	var decoded createResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if decoded.LinkToken == "" {
		return "", fmt.Errorf("link token missing from response")
	}

	return decoded.LinkToken, nil
}
