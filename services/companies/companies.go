// Package companies fetches operator company data from the Companies House
// API. Filing history is not cached: late filings are exactly what the
// dashboard needs to surface quickly.
package companies

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"carehome-insights/metrics"
)

const minRequestInterval = 500 * time.Millisecond

// Client handles Companies House API interactions. Authentication is HTTP
// basic with the API key as username and an empty password.
type Client struct {
	baseURL       string
	apiKey        string
	httpClient    *http.Client
	lastRequest   time.Time
	rateLimitLock sync.Mutex
}

// NewClient creates a Companies House client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Profile is the subset of a company profile the dashboard shows.
type Profile struct {
	CompanyName    string `json:"company_name"`
	CompanyNumber  string `json:"company_number"`
	CompanyStatus  string `json:"company_status"`
	DateOfCreation string `json:"date_of_creation"`
	Type           string `json:"type"`
}

// Filing is one item of a company's filing history.
type Filing struct {
	Date        string `json:"date"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// FilingHistory is the filings endpoint response.
type FilingHistory struct {
	Items      []Filing `json:"items"`
	TotalCount int      `json:"total_count"`
}

// GetProfile fetches a company profile.
func (c *Client) GetProfile(ctx context.Context, companyNumber string) (*Profile, error) {
	body, err := c.fetch(ctx, "/company/"+url.PathEscape(companyNumber))
	if err != nil {
		return nil, err
	}
	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse company profile: %w", err)
	}
	return &profile, nil
}

// GetFilings fetches a company's filing history, newest first.
func (c *Client) GetFilings(ctx context.Context, companyNumber string) (*FilingHistory, error) {
	body, err := c.fetch(ctx, "/company/"+url.PathEscape(companyNumber)+"/filing-history")
	if err != nil {
		return nil, err
	}
	var history FilingHistory
	if err := json.Unmarshal(body, &history); err != nil {
		return nil, fmt.Errorf("failed to parse filing history: %w", err)
	}
	return &history, nil
}

func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	c.enforceRateLimit()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build Companies House request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("companies", "error").Inc()
		return nil, fmt.Errorf("Companies House request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequestsTotal.WithLabelValues("companies", "error").Inc()
		return nil, fmt.Errorf("Companies House returned status %d for %s", resp.StatusCode, path)
	}
	metrics.UpstreamRequestsTotal.WithLabelValues("companies", "success").Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Companies House response: %w", err)
	}
	return body, nil
}

func (c *Client) enforceRateLimit() {
	c.rateLimitLock.Lock()
	defer c.rateLimitLock.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < minRequestInterval {
		time.Sleep(minRequestInterval - elapsed)
	}
	c.lastRequest = time.Now()
}
