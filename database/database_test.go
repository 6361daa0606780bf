package database

import (
	"database/sql"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"carehome-insights/models"
	"carehome-insights/scoring"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
	d    *Database
)

func setUp() {
	db, mock, _ = sqlmock.New()
	d = &Database{db: db, cqcTTL: 24 * time.Hour, postcodeTTL: 365 * 24 * time.Hour}
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func TestUpsertHome(t *testing.T) {
	it(func() {
		home := &models.CareHome{
			ID:            "7b653577-155f-4e42-b938-1c2e0a6a7d4e",
			Name:          "Willow Lodge",
			CQCLocationID: "1-101681280",
			CompanyNumber: "04387955",
			Postcode:      "SW1A 1AA",
			Region:        "London",
			CareType:      "NURSING",
			Latitude:      51.501,
			Longitude:     -0.1416,
		}

		mock.ExpectExec("INSERT INTO care_homes").
			WithArgs(home.ID, home.Name, home.CQCLocationID, home.CompanyNumber,
				home.Postcode, home.Region, home.CareType, home.Latitude, home.Longitude,
				home.Name, home.CompanyNumber, home.Postcode, home.Region, home.CareType,
				home.Latitude, home.Longitude).
			WillReturnResult(sqlmock.NewResult(1, 1))

		if err := d.UpsertHome(home); err != nil {
			t.Errorf("UpsertHome: unexpected error: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("UpsertHome: unmet expectations: %v", err)
		}
	})
}

func TestGetHome(t *testing.T) {
	it(func() {
		created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
		columns := []string{"id", "name", "cqc_location_id", "company_number", "postcode",
			"region", "care_type", "latitude", "longitude", "created_at", "updated_at"}

		mock.ExpectQuery("SELECT id, name, COALESCE").
			WithArgs("home-1").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("home-1", "Willow Lodge", "1-101681280", "", "SW1A 1AA",
					"London", "NURSING", 51.501, -0.1416, created, created))

		home, err := d.GetHome("home-1")
		if err != nil {
			t.Fatalf("GetHome: unexpected error: %v", err)
		}
		want := &models.CareHome{
			ID: "home-1", Name: "Willow Lodge", CQCLocationID: "1-101681280",
			Postcode: "SW1A 1AA", Region: "London", CareType: "NURSING",
			Latitude: 51.501, Longitude: -0.1416, CreatedAt: created, UpdatedAt: created,
		}
		if !reflect.DeepEqual(home, want) {
			t.Errorf("GetHome: expected %+v, got %+v", want, home)
		}
	})
}

func TestListStaleHomes(t *testing.T) {
	it(func() {
		staleBefore := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
		created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		columns := []string{"id", "name", "cqc_location_id", "company_number", "postcode",
			"region", "care_type", "latitude", "longitude", "created_at", "updated_at"}

		mock.ExpectQuery("LEFT JOIN").
			WithArgs(staleBefore, 10).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("home-1", "Willow Lodge", "1-101681280", "", "SW1A 1AA",
					"London", "NURSING", 51.501, -0.1416, created, created).
				AddRow("home-2", "Rose Court", "1-120998881", "", "M1 1AE",
					"North West", "RESIDENTIAL", 53.477, -2.231, created, created))

		homes, err := d.ListStaleHomes(staleBefore, 10)
		if err != nil {
			t.Fatalf("ListStaleHomes: unexpected error: %v", err)
		}
		if len(homes) != 2 {
			t.Errorf("ListStaleHomes: expected 2 homes, got %d", len(homes))
		}
		if homes[0].ID != "home-1" || homes[1].ID != "home-2" {
			t.Errorf("ListStaleHomes: unexpected order: %v", homes)
		}
	})
}

func TestListHomes(t *testing.T) {
	it(func() {
		created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		columns := []string{"id", "name", "cqc_location_id", "company_number", "postcode",
			"region", "care_type", "latitude", "longitude", "created_at", "updated_at"}

		mock.ExpectQuery("FROM care_homes h WHERE h.region").
			WithArgs("London").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("home-1", "Willow Lodge", "1-101681280", "", "SW1A 1AA",
					"London", "NURSING", 51.501, -0.1416, created, created))

		homes, err := d.ListHomes("London", 0)
		if err != nil {
			t.Fatalf("ListHomes: unexpected error: %v", err)
		}
		if len(homes) != 1 || homes[0].Region != "London" {
			t.Errorf("ListHomes: unexpected result: %v", homes)
		}
	})
}

func TestListHomesMinScore(t *testing.T) {
	it(func() {
		created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		columns := []string{"id", "name", "cqc_location_id", "company_number", "postcode",
			"region", "care_type", "latitude", "longitude", "created_at", "updated_at"}

		mock.ExpectQuery("INNER JOIN score_snapshots s ON s.seq = m.max_seq").
			WithArgs(75.0).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("home-2", "Rose Court", "1-120998881", "", "M1 1AE",
					"North West", "RESIDENTIAL", 53.477, -2.231, created, created))

		homes, err := d.ListHomes("", 75.0)
		if err != nil {
			t.Fatalf("ListHomes: unexpected error: %v", err)
		}
		if len(homes) != 1 || homes[0].ID != "home-2" {
			t.Errorf("ListHomes: unexpected result: %v", homes)
		}
	})
}

func TestInsertReviewBatch(t *testing.T) {
	it(func() {
		reviews := []scoring.EmployeeReview{
			{Source: "indeed", Rating: 4, Sentiment: scoring.SentimentPositive, Text: "Supportive team"},
			{Source: "glassdoor", Rating: 2, Sentiment: scoring.SentimentNegative, Text: "Understaffed"},
		}

		for _, review := range reviews {
			mock.ExpectExec("INSERT INTO employee_reviews").
				WithArgs("home-1", review.Source, review.Rating, string(review.Sentiment),
					review.Text, review.Date, review.Author, "batch-1").
				WillReturnResult(sqlmock.NewResult(1, 1))
		}

		inserted, err := d.InsertReviewBatch("home-1", "batch-1", reviews)
		if err != nil {
			t.Errorf("InsertReviewBatch: unexpected error: %v", err)
		}
		if inserted != 2 {
			t.Errorf("InsertReviewBatch: expected 2 inserted, got %d", inserted)
		}
	})
}

func TestGetReviews(t *testing.T) {
	it(func() {
		columns := []string{"source", "rating", "sentiment", "review_text", "review_date", "author"}
		mock.ExpectQuery("SELECT source, rating, sentiment, review_text, review_date, author").
			WithArgs("home-1").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("indeed", 4.0, "POSITIVE", "Good training", "2025-04-01", "Care Assistant").
				AddRow("glassdoor", 1.0, "NEGATIVE", "shortage of staff", "2025-05-11", ""))

		reviews, err := d.GetReviews("home-1")
		if err != nil {
			t.Fatalf("GetReviews: unexpected error: %v", err)
		}
		want := []scoring.EmployeeReview{
			{Source: "indeed", Rating: 4, Sentiment: scoring.SentimentPositive,
				Text: "Good training", Date: "2025-04-01", Author: "Care Assistant"},
			{Source: "glassdoor", Rating: 1, Sentiment: scoring.SentimentNegative,
				Text: "shortage of staff", Date: "2025-05-11"},
		}
		if !reflect.DeepEqual(reviews, want) {
			t.Errorf("GetReviews: expected %+v, got %+v", want, reviews)
		}
	})
}

func TestInsertScoreSnapshot(t *testing.T) {
	it(func() {
		employee := 80.0
		score := scoring.StaffQualityScore{
			OverallScore: 85.0,
			Category:     scoring.CategoryGood,
			Confidence:   scoring.ConfidenceHigh,
			Components: scoring.Components{
				WellLed:            scoring.Component{Score: 95, Weight: 0.40},
				Effective:          scoring.Component{Score: 70, Weight: 0.20},
				RegulatorSentiment: scoring.Component{Score: 90, Weight: 0.10},
				EmployeeSentiment:  &scoring.Component{Score: employee, Weight: 0.30},
			},
			DataQuality: scoring.DataQuality{CQCDataAge: "3 months ago", ReviewCount: 5},
		}
		scoreJSON, _ := json.Marshal(score)

		mock.ExpectExec("INSERT INTO score_snapshots").
			WithArgs("home-1", score.OverallScore, score.Category, score.Confidence,
				employee, 5, false, scoreJSON).
			WillReturnResult(sqlmock.NewResult(1, 1))

		if err := d.InsertScoreSnapshot("home-1", score); err != nil {
			t.Errorf("InsertScoreSnapshot: unexpected error: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("InsertScoreSnapshot: unmet expectations: %v", err)
		}
	})
}

func TestGetLatestScore(t *testing.T) {
	it(func() {
		want := scoring.StaffQualityScore{
			OverallScore: 72.5,
			Category:     scoring.CategoryAdequate,
			Confidence:   scoring.ConfidenceMedium,
			Components: scoring.Components{
				WellLed:            scoring.Component{Score: 75, Weight: 0.45},
				Effective:          scoring.Component{Score: 70, Weight: 0.25},
				RegulatorSentiment: scoring.Component{Score: 50, Weight: 0.30},
			},
			DataQuality: scoring.DataQuality{CQCDataAge: "8 months ago", HasInsufficientData: true},
		}
		scoreJSON, _ := json.Marshal(want)
		scoredAt := time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC)

		mock.ExpectQuery("SELECT score_json, created_at FROM score_snapshots").
			WithArgs("home-1").
			WillReturnRows(sqlmock.NewRows([]string{"score_json", "created_at"}).
				AddRow(string(scoreJSON), scoredAt))

		score, createdAt, err := d.GetLatestScore("home-1")
		if err != nil {
			t.Fatalf("GetLatestScore: unexpected error: %v", err)
		}
		if !reflect.DeepEqual(*score, want) {
			t.Errorf("GetLatestScore: expected %+v, got %+v", want, *score)
		}
		if !createdAt.Equal(scoredAt) {
			t.Errorf("GetLatestScore: expected scored at %v, got %v", scoredAt, createdAt)
		}
	})
}

func TestGetLatestScoreNoRows(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT score_json, created_at FROM score_snapshots").
			WithArgs("home-9").
			WillReturnError(sql.ErrNoRows)

		_, _, err := d.GetLatestScore("home-9")
		if err != sql.ErrNoRows {
			t.Errorf("GetLatestScore: expected sql.ErrNoRows, got %v", err)
		}
	})
}

func TestPostcodeCache(t *testing.T) {
	it(func() {
		columns := []string{"postcode", "latitude", "longitude", "region", "admin_district"}

		mock.ExpectQuery("SELECT postcode, latitude, longitude, region, admin_district").
			WithArgs("SW1A1AA", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("SW1A1AA", 51.501, -0.1416, "London", "Westminster"))

		info, err := d.GetCachedPostcode("SW1A1AA")
		if err != nil {
			t.Fatalf("GetCachedPostcode: unexpected error: %v", err)
		}
		want := &models.PostcodeInfo{Postcode: "SW1A1AA", Latitude: 51.501,
			Longitude: -0.1416, Region: "London", AdminDistrict: "Westminster"}
		if !reflect.DeepEqual(info, want) {
			t.Errorf("GetCachedPostcode: expected %+v, got %+v", want, info)
		}
	})
}

func TestPostcodeCacheMiss(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT postcode, latitude, longitude, region, admin_district").
			WithArgs("EC1A1BB", sqlmock.AnyArg()).
			WillReturnError(sql.ErrNoRows)

		info, err := d.GetCachedPostcode("EC1A1BB")
		if err != nil {
			t.Errorf("GetCachedPostcode: unexpected error on miss: %v", err)
		}
		if info != nil {
			t.Errorf("GetCachedPostcode: expected nil on miss, got %+v", info)
		}
	})
}

func TestSavePostcode(t *testing.T) {
	it(func() {
		info := models.PostcodeInfo{Postcode: "M11AE", Latitude: 53.477,
			Longitude: -2.231, Region: "North West", AdminDistrict: "Manchester"}

		mock.ExpectExec("INSERT INTO postcode_cache").
			WithArgs(info.Postcode, info.Latitude, info.Longitude, info.Region, info.AdminDistrict,
				info.Latitude, info.Longitude, info.Region, info.AdminDistrict).
			WillReturnResult(sqlmock.NewResult(1, 1))

		if err := d.SavePostcode(info); err != nil {
			t.Errorf("SavePostcode: unexpected error: %v", err)
		}
	})
}

func TestCQCCache(t *testing.T) {
	it(func() {
		body := []byte(`{"locationId":"1-101681280","currentRatings":{}}`)

		mock.ExpectQuery("SELECT response FROM cqc_cache").
			WithArgs("1-101681280", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"response"}).AddRow(body))

		got, err := d.GetCachedCQCResponse("1-101681280")
		if err != nil {
			t.Fatalf("GetCachedCQCResponse: unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, body) {
			t.Errorf("GetCachedCQCResponse: expected %s, got %s", body, got)
		}

		mock.ExpectExec("INSERT INTO cqc_cache").
			WithArgs("1-101681280", body, body).
			WillReturnResult(sqlmock.NewResult(1, 1))

		if err := d.SaveCQCResponse("1-101681280", body); err != nil {
			t.Errorf("SaveCQCResponse: unexpected error: %v", err)
		}
	})
}
