// Package cqc fetches care-home rating data from the CQC public API.
package cqc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"carehome-insights/metrics"
	"carehome-insights/scoring"
)

const (
	// UserAgent identifies the aggregator to the CQC API.
	UserAgent = "carehome-insights/1.0"
	// Rate limit: 1 request per second against the public endpoint.
	minRequestInterval = time.Second
)

// Cache stores raw CQC responses between refresh cycles. Implemented by the
// database package.
type Cache interface {
	GetCachedCQCResponse(locationID string) ([]byte, error)
	SaveCQCResponse(locationID string, response []byte) error
}

// Client handles CQC API interactions with rate limiting and caching.
type Client struct {
	baseURL       string
	partnerCode   string
	httpClient    *http.Client
	cache         Cache
	lastRequest   time.Time
	rateLimitLock sync.Mutex
}

// NewClient creates a CQC client. cache may be nil to disable caching.
func NewClient(baseURL, partnerCode string, cache Cache) *Client {
	return &Client{
		baseURL:     baseURL,
		partnerCode: partnerCode,
		cache:       cache,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Location is the subset of the CQC location response the scorer needs.
type Location struct {
	LocationID     string `json:"locationId"`
	Name           string `json:"name"`
	PostalCode     string `json:"postalCode"`
	LastInspection struct {
		Date string `json:"date"`
	} `json:"lastInspection"`
	CurrentRatings struct {
		Overall struct {
			Rating             string              `json:"rating"`
			KeyQuestionRatings []KeyQuestionRating `json:"keyQuestionRatings"`
		} `json:"overall"`
	} `json:"currentRatings"`
}

// KeyQuestionRating is one of CQC's five key question ratings.
type KeyQuestionRating struct {
	Name   string `json:"name"`
	Rating string `json:"rating"`
}

// GetLocation fetches a location, from cache when a fresh copy exists.
func (c *Client) GetLocation(ctx context.Context, locationID string) (*Location, error) {
	if c.cache != nil {
		cached, err := c.cache.GetCachedCQCResponse(locationID)
		if err != nil {
			log.Printf("CQC cache read failed for %s: %v", locationID, err)
		}
		if cached != nil {
			metrics.CacheLookupsTotal.WithLabelValues("cqc", "hit").Inc()
			return parseLocation(cached)
		}
		metrics.CacheLookupsTotal.WithLabelValues("cqc", "miss").Inc()
	}

	body, err := c.fetch(ctx, locationID)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("cqc", "error").Inc()
		return nil, err
	}
	metrics.UpstreamRequestsTotal.WithLabelValues("cqc", "success").Inc()

	if c.cache != nil {
		if err := c.cache.SaveCQCResponse(locationID, body); err != nil {
			log.Printf("CQC cache write failed for %s: %v", locationID, err)
		}
	}
	return parseLocation(body)
}

// GetRating fetches a location and reduces it to the rating input the scorer
// consumes. CQC publishes no staff-sentiment counts, so StaffSentiment stays
// nil and the scorer applies its neutral prior.
func (c *Client) GetRating(ctx context.Context, locationID string) (scoring.RegulatorRating, error) {
	location, err := c.GetLocation(ctx, locationID)
	if err != nil {
		return scoring.RegulatorRating{}, err
	}

	rating := scoring.RegulatorRating{}
	for _, kq := range location.CurrentRatings.Overall.KeyQuestionRatings {
		switch kq.Name {
		case "Well-led":
			rating.WellLed = kq.Rating
		case "Effective":
			rating.Effective = kq.Rating
		}
	}
	if location.LastInspection.Date != "" {
		inspected, err := time.Parse("2006-01-02", location.LastInspection.Date)
		if err != nil {
			log.Printf("Unparseable inspection date %q for %s", location.LastInspection.Date, locationID)
		} else {
			rating.LastInspection = &inspected
		}
	}
	return rating, nil
}

func (c *Client) fetch(ctx context.Context, locationID string) ([]byte, error) {
	c.enforceRateLimit()

	endpoint := fmt.Sprintf("%s/locations/%s", c.baseURL, url.PathEscape(locationID))
	if c.partnerCode != "" {
		endpoint += "?partnerCode=" + url.QueryEscape(c.partnerCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build CQC request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("CQC request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CQC returned status %d for location %s", resp.StatusCode, locationID)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read CQC response: %w", err)
	}
	return body, nil
}

func parseLocation(body []byte) (*Location, error) {
	var location Location
	if err := json.Unmarshal(body, &location); err != nil {
		return nil, fmt.Errorf("failed to parse CQC response: %w", err)
	}
	return &location, nil
}

// enforceRateLimit spaces requests at least minRequestInterval apart.
func (c *Client) enforceRateLimit() {
	c.rateLimitLock.Lock()
	defer c.rateLimitLock.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < minRequestInterval {
		time.Sleep(minRequestInterval - elapsed)
	}
	c.lastRequest = time.Now()
}
