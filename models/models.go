package models

import (
	"time"

	"carehome-insights/funding"
	"carehome-insights/scoring"
)

// CareHome is one home tracked by the aggregator.
type CareHome struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CQCLocationID string    `json:"cqc_location_id"`
	CompanyNumber string    `json:"company_number,omitempty"`
	Postcode      string    `json:"postcode"`
	Region        string    `json:"region,omitempty"`
	CareType      string    `json:"care_type"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HomeDetail pairs a home with its most recent score, if one exists.
type HomeDetail struct {
	Home        CareHome                   `json:"home"`
	LatestScore *scoring.StaffQualityScore `json:"latest_score,omitempty"`
	ScoredAt    *time.Time                 `json:"scored_at,omitempty"`
}

// ScoreSnapshot is one stored scoring result for a home.
type ScoreSnapshot struct {
	Seq       int64                     `json:"seq"`
	HomeID    string                    `json:"home_id"`
	Score     scoring.StaffQualityScore `json:"score"`
	CreatedAt time.Time                 `json:"created_at"`
}

// ScoreArgs is the request body for a stateless scoring call.
type ScoreArgs struct {
	Version string                   `json:"version"` // Must be "2.0"
	Rating  scoring.RegulatorRating  `json:"rating"`
	Reviews []scoring.EmployeeReview `json:"reviews"`
}

// RegisterHomeArgs registers a home for tracking.
type RegisterHomeArgs struct {
	Version       string `json:"version"` // Must be "2.0"
	Name          string `json:"name"`
	CQCLocationID string `json:"cqc_location_id"`
	CompanyNumber string `json:"company_number"`
	Postcode      string `json:"postcode"`
	CareType      string `json:"care_type"`
}

// RegisterHomeResponse returns the assigned home id.
type RegisterHomeResponse struct {
	ID string `json:"id"`
}

// ReviewBatchArgs ingests a batch of scraped employee reviews for a home.
type ReviewBatchArgs struct {
	Version string                   `json:"version"` // Must be "2.0"
	Reviews []scoring.EmployeeReview `json:"reviews"`
}

// ReviewBatchResponse reports how many reviews were stored.
type ReviewBatchResponse struct {
	BatchID  string `json:"batch_id"`
	Inserted int    `json:"inserted"`
}

// RefreshResponse acknowledges a queued rescore.
type RefreshResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// ViewPort is a map viewport in degrees.
type ViewPort struct {
	LatMin float64 `json:"latmin"`
	LonMin float64 `json:"lonmin"`
	LatMax float64 `json:"latmax"`
	LonMax float64 `json:"lonmax"`
}

// Point is a coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MapArgs is the request body for the map endpoint. Center defaults to the
// viewport midpoint when omitted.
type MapArgs struct {
	Version string   `json:"version"` // Must be "2.0"
	VPort   ViewPort `json:"vport"`
	Center  Point    `json:"center"`
}

// MapPin is one pin on the dashboard map. When Count > 1 the pin is an
// aggregate of several homes and HomeID/Name refer to none of them.
type MapPin struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Count     int64   `json:"count"`
	HomeID    string  `json:"home_id,omitempty"`
	Name      string  `json:"name,omitempty"`
	Score     float64 `json:"score"`
	Category  string  `json:"category,omitempty"`
}

// ScoredHome is a home position with its latest overall score, the map
// aggregation input.
type ScoredHome struct {
	ID        string
	Name      string
	Latitude  float64
	Longitude float64
	Score     float64
	Category  string
}

// PostcodeInfo is a cached postcode lookup result.
type PostcodeInfo struct {
	Postcode      string  `json:"postcode"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Region        string  `json:"region"`
	AdminDistrict string  `json:"admin_district"`
}

// FundingArgs is the request body for a funding eligibility check.
type FundingArgs struct {
	Version    string             `json:"version"` // Must be "2.0"
	Assessment funding.Assessment `json:"assessment"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	Timestamp        string `json:"timestamp"`
	Database         string `json:"database"`
	ConnectedClients int    `json:"connected_clients"`
}

// ScoreUpdate is broadcast over WebSocket and RabbitMQ whenever a home is
// rescored.
type ScoreUpdate struct {
	Type         string    `json:"type"`
	HomeID       string    `json:"home_id"`
	Name         string    `json:"name"`
	OverallScore float64   `json:"overall_score"`
	Category     string    `json:"category"`
	Confidence   string    `json:"confidence"`
	Timestamp    time.Time `json:"timestamp"`
}
