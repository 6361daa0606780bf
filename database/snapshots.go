package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"carehome-insights/common"
	"carehome-insights/models"
	"carehome-insights/scoring"
)

// InsertRegulatorSnapshot keeps an audit record of what the regulator
// reported at fetch time, including the upstream sentiment score we do not
// use for scoring.
func (d *Database) InsertRegulatorSnapshot(homeID string, rating scoring.RegulatorRating) error {
	var lastInspection interface{}
	if rating.LastInspection != nil {
		lastInspection = *rating.LastInspection
	}
	var positive, neutral, negative int
	var sentimentScore float64
	if rating.StaffSentiment != nil {
		positive = rating.StaffSentiment.Positive
		neutral = rating.StaffSentiment.Neutral
		negative = rating.StaffSentiment.Negative
		sentimentScore = rating.StaffSentiment.Score
	}

	result, err := d.db.Exec(`INSERT INTO regulator_snapshots
		(home_id, well_led, effective, last_inspection,
		 sentiment_positive, sentiment_neutral, sentiment_negative, sentiment_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		homeID, rating.WellLed, rating.Effective, lastInspection,
		positive, neutral, negative, sentimentScore)
	common.LogResult("insertRegulatorSnapshot", result, err, true)
	return err
}

// InsertScoreSnapshot stores one scoring result. Scalar columns duplicate the
// fields dashboards filter on; score_json holds the full result.
func (d *Database) InsertScoreSnapshot(homeID string, score scoring.StaffQualityScore) error {
	scoreJSON, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("failed to marshal score for %s: %w", homeID, err)
	}

	var employeeScore interface{}
	if score.Components.EmployeeSentiment != nil {
		employeeScore = score.Components.EmployeeSentiment.Score
	}

	result, err := d.db.Exec(`INSERT INTO score_snapshots
		(home_id, overall_score, category, confidence, employee_sentiment_score,
		 review_count, has_insufficient_data, score_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		homeID, score.OverallScore, score.Category, score.Confidence, employeeScore,
		score.DataQuality.ReviewCount, score.DataQuality.HasInsufficientData, scoreJSON)
	common.LogResult("insertScoreSnapshot", result, err, true)
	return err
}

// GetLatestScore returns the most recent score for a home and when it was
// computed, or sql.ErrNoRows when the home has never been scored.
func (d *Database) GetLatestScore(homeID string) (*scoring.StaffQualityScore, *time.Time, error) {
	var scoreJSON string
	var createdAt time.Time
	err := d.db.QueryRow(`SELECT score_json, created_at FROM score_snapshots
		WHERE home_id = ? ORDER BY seq DESC LIMIT 1`, homeID).Scan(&scoreJSON, &createdAt)
	if err != nil {
		return nil, nil, err
	}

	var score scoring.StaffQualityScore
	if err := json.Unmarshal([]byte(scoreJSON), &score); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal score for %s: %w", homeID, err)
	}
	return &score, &createdAt, nil
}

// GetScoreHistory returns up to limit snapshots for a home, newest first.
func (d *Database) GetScoreHistory(homeID string, limit int) ([]models.ScoreSnapshot, error) {
	rows, err := d.db.Query(`SELECT seq, home_id, score_json, created_at
		FROM score_snapshots WHERE home_id = ? ORDER BY seq DESC LIMIT ?`, homeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get score history for %s: %w", homeID, err)
	}
	defer rows.Close()

	var snapshots []models.ScoreSnapshot
	for rows.Next() {
		var snapshot models.ScoreSnapshot
		var scoreJSON string
		if err := rows.Scan(&snapshot.Seq, &snapshot.HomeID, &scoreJSON, &snapshot.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(scoreJSON), &snapshot.Score); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot %d: %w", snapshot.Seq, err)
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}

// GetLatestRegulatorSnapshot returns the most recently fetched regulator
// rating for a home, or nil when none was stored yet.
func (d *Database) GetLatestRegulatorSnapshot(homeID string) (*scoring.RegulatorRating, error) {
	var rating scoring.RegulatorRating
	var lastInspection sql.NullTime
	var counts scoring.SentimentCounts
	err := d.db.QueryRow(`SELECT well_led, effective, last_inspection,
		sentiment_positive, sentiment_neutral, sentiment_negative, sentiment_score
		FROM regulator_snapshots WHERE home_id = ? ORDER BY seq DESC LIMIT 1`, homeID).
		Scan(&rating.WellLed, &rating.Effective, &lastInspection,
			&counts.Positive, &counts.Neutral, &counts.Negative, &counts.Score)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastInspection.Valid {
		rating.LastInspection = &lastInspection.Time
	}
	if counts.Positive+counts.Neutral+counts.Negative > 0 || counts.Score != 0 {
		rating.StaffSentiment = &counts
	}
	return &rating, nil
}
