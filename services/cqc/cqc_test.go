package cqc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const locationFixture = `{
	"locationId": "1-101681280",
	"name": "Willow Lodge Care Home",
	"postalCode": "SW1A 1AA",
	"lastInspection": {"date": "2025-03-12"},
	"currentRatings": {
		"overall": {
			"rating": "Good",
			"keyQuestionRatings": [
				{"name": "Safe", "rating": "Good"},
				{"name": "Well-led", "rating": "Outstanding"},
				{"name": "Effective", "rating": "Good"},
				{"name": "Caring", "rating": "Good"},
				{"name": "Responsive", "rating": "Requires Improvement"}
			]
		}
	}
}`

type fakeCache struct {
	data  map[string][]byte
	saves int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (f *fakeCache) GetCachedCQCResponse(locationID string) ([]byte, error) {
	return f.data[locationID], nil
}

func (f *fakeCache) SaveCQCResponse(locationID string, response []byte) error {
	f.data[locationID] = response
	f.saves++
	return nil
}

func TestGetRating_ParsesKeyQuestions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/locations/1-101681280", r.URL.Path)
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(locationFixture))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", nil)
	rating, err := client.GetRating(context.Background(), "1-101681280")

	assert.NoError(t, err)
	assert.Equal(t, "Outstanding", rating.WellLed)
	assert.Equal(t, "Good", rating.Effective)
	if assert.NotNil(t, rating.LastInspection) {
		assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), *rating.LastInspection)
	}
	assert.Nil(t, rating.StaffSentiment)
}

func TestGetLocation_UsesCache(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(locationFixture))
	}))
	defer server.Close()

	cache := newFakeCache()
	client := NewClient(server.URL, "", cache)

	first, err := client.GetLocation(context.Background(), "1-101681280")
	assert.NoError(t, err)
	assert.Equal(t, "Willow Lodge Care Home", first.Name)
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, cache.saves)

	// Second call must be served from cache.
	second, err := client.GetLocation(context.Background(), "1-101681280")
	assert.NoError(t, err)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, 1, hits)
}

func TestGetLocation_PartnerCodeForwarded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "partner-1", r.URL.Query().Get("partnerCode"))
		w.Write([]byte(locationFixture))
	}))
	defer server.Close()

	client := NewClient(server.URL, "partner-1", nil)
	_, err := client.GetLocation(context.Background(), "1-101681280")
	assert.NoError(t, err)
}

func TestGetLocation_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", nil)
	_, err := client.GetLocation(context.Background(), "1-000000000")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestGetRating_MissingInspectionDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"locationId":"1-2","currentRatings":{"overall":{"keyQuestionRatings":[
			{"name":"Well-led","rating":"Good"}]}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", nil)
	rating, err := client.GetRating(context.Background(), "1-2")

	assert.NoError(t, err)
	assert.Equal(t, "Good", rating.WellLed)
	assert.Equal(t, "", rating.Effective)
	assert.Nil(t, rating.LastInspection)
}
