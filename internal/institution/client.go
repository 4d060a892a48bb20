package institution

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const defaultCacheTTL = 30 * time.Second

// Client queries the external institution-directory collaborator over
// HTTP. Responses are cached briefly per (countryCode, query) pair so
// that reopening the flow or toggling filters does not hammer the
// directory.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *gocache.Cache
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) { c.cache = gocache.New(ttl, 2*ttl) }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		cache:      gocache.New(defaultCacheTTL, 2*defaultCacheTTL),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

type institutionResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Logo             string `json:"logo,omitempty"`
	Provider         string `json:"provider"`
	CountryCode      string `json:"country_code"`
	AvailableHistory int    `json:"available_history"`
}

type searchResponse struct {
	Data []institutionResponse `json:"data"`
}

// Search implements Directory.
func (c *Client) Search(ctx context.Context, countryCode, query string) ([]Institution, error) {
	cacheKey := countryCode + "\x00" + query
	if cached, ok := c.cache.Get(cacheKey); ok {
		//nolint:forcetypeassert
		return cached.([]Institution), nil
	}

	u, err := url.Parse(c.baseURL + "/institutions")
	if err != nil {
		return nil, fmt.Errorf("parsing directory URL: %w", err)
	}

	q := u.Query()
	q.Set("countryCode", countryCode)
	if query != "" {
		q.Set("q", query)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory search failed with status: %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	institutions := make([]Institution, 0, len(body.Data))
	for _, item := range body.Data {
		institutions = append(institutions, Institution{
			ID:               item.ID,
			Name:             item.Name,
			Logo:             item.Logo,
			Provider:         item.Provider,
			CountryCode:      item.CountryCode,
			AvailableHistory: max(item.AvailableHistory, 0),
		})
	}

	c.cache.Set(cacheKey, institutions, gocache.DefaultExpiration)

	return institutions, nil
}
