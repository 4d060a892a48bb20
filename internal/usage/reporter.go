// Package usage notifies downstream popularity ranking that an
// institution was linked. Reporting is best-effort and never on the
// critical path: failures are swallowed, not retried, and never affect
// flow state.
package usage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	slogctx "github.com/veqryn/slog-context"
)

type Reporter interface {
	Report(ctx context.Context, institutionID string)
}

// Client reports usage to the analytics collaborator over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

var _ = Reporter(&Client{})

func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

type reportRequest struct {
	InstitutionID string `json:"institutionId"`
}

func (c *Client) Report(ctx context.Context, institutionID string) {
	if err := c.report(ctx, institutionID); err != nil {
		slogctx.Debug(ctx, "Dropping failed usage report", "institution_id", institutionID, "error", err)
	}
}

func (c *Client) report(ctx context.Context, institutionID string) error {
	body, err := json.Marshal(reportRequest{InstitutionID: institutionID})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("usage report failed with status: %d", resp.StatusCode)
	}

	return nil
}
