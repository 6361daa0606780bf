// Package postcodes resolves UK postcodes to coordinates and regions via
// postcodes.io, with a long-lived database cache in front of the API.
package postcodes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"carehome-insights/metrics"
	"carehome-insights/models"
)

// ErrNotFound is returned when the postcode does not exist.
var ErrNotFound = errors.New("postcode not found")

// Cache stores resolved postcodes. Implemented by the database package.
type Cache interface {
	GetCachedPostcode(postcode string) (*models.PostcodeInfo, error)
	SavePostcode(info models.PostcodeInfo) error
}

// Client looks up postcodes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
}

// NewClient creates a postcode client. cache may be nil to disable caching.
func NewClient(baseURL string, cache Cache) *Client {
	return &Client{
		baseURL: baseURL,
		cache:   cache,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type lookupResponse struct {
	Status int `json:"status"`
	Result struct {
		Postcode      string  `json:"postcode"`
		Latitude      float64 `json:"latitude"`
		Longitude     float64 `json:"longitude"`
		Region        string  `json:"region"`
		AdminDistrict string  `json:"admin_district"`
	} `json:"result"`
}

// Lookup resolves a postcode, serving from cache when possible. The postcode
// is normalized (uppercased, spaces stripped) before lookup, so "sw1a 1aa"
// and "SW1A1AA" share a cache entry.
func (c *Client) Lookup(ctx context.Context, postcode string) (*models.PostcodeInfo, error) {
	normalized := Normalize(postcode)
	if normalized == "" {
		return nil, fmt.Errorf("empty postcode")
	}

	if c.cache != nil {
		cached, err := c.cache.GetCachedPostcode(normalized)
		if err != nil {
			log.Printf("Postcode cache read failed for %s: %v", normalized, err)
		}
		if cached != nil {
			metrics.CacheLookupsTotal.WithLabelValues("postcode", "hit").Inc()
			return cached, nil
		}
		metrics.CacheLookupsTotal.WithLabelValues("postcode", "miss").Inc()
	}

	info, err := c.fetch(ctx, normalized)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("postcodes", "error").Inc()
		return nil, err
	}
	metrics.UpstreamRequestsTotal.WithLabelValues("postcodes", "success").Inc()

	if c.cache != nil {
		if err := c.cache.SavePostcode(*info); err != nil {
			log.Printf("Postcode cache write failed for %s: %v", normalized, err)
		}
	}
	return info, nil
}

func (c *Client) fetch(ctx context.Context, normalized string) (*models.PostcodeInfo, error) {
	endpoint := c.baseURL + "/postcodes/" + url.PathEscape(normalized)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build postcode request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("postcode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("postcode %s: %w", normalized, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("postcode lookup returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read postcode response: %w", err)
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse postcode response: %w", err)
	}

	return &models.PostcodeInfo{
		Postcode:      normalized,
		Latitude:      parsed.Result.Latitude,
		Longitude:     parsed.Result.Longitude,
		Region:        parsed.Result.Region,
		AdminDistrict: parsed.Result.AdminDistrict,
	}, nil
}

// Normalize uppercases a postcode and strips all spaces.
func Normalize(postcode string) string {
	return strings.ToUpper(strings.ReplaceAll(postcode, " ", ""))
}
