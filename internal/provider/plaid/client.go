package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	sandboxBaseURL    = "https://sandbox.plaid.com"
	productionBaseURL = "https://production.plaid.com"
)

// Client covers the two Plaid endpoints this subsystem needs: nothing
// more of the Plaid API is in scope here.
type Client struct {
	baseURL    string
	clientID   string
	secret     string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

func NewClient(clientID, secret, environment string, opts ...ClientOption) *Client {
	baseURL := sandboxBaseURL
	if environment == "production" {
		baseURL = productionBaseURL
	}

	c := &Client{
		baseURL:    baseURL,
		clientID:   clientID,
		secret:     secret,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// LinkTokenEndpoint returns the default link-token creation endpoint
// for a Plaid environment.
func LinkTokenEndpoint(environment string) string {
	if environment == "production" {
		return productionBaseURL + "/link/token/create"
	}

	return sandboxBaseURL + "/link/token/create"
}

type exchangeRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	PublicToken string `json:"public_token"`
}

type exchangeResponse struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

// ExchangePublicToken exchanges the public token issued on successful
// authorization for the longer-lived access token.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	body, err := json.Marshal(exchangeRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		PublicToken: publicToken,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/item/public_token/exchange", bytes.NewReader(body))
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
		return "", fmt.Errorf("public token exchange failed with status: %d", resp.StatusCode)
	}

	var decoded exchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if decoded.AccessToken == "" {
		return "", fmt.Errorf("access token missing from response")
	}

	return decoded.AccessToken, nil
}
