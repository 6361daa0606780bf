package database

import (
	"fmt"

	"carehome-insights/scoring"
)

// InsertReviewBatch stores a batch of scraped reviews for a home and returns
// how many rows were inserted.
func (d *Database) InsertReviewBatch(homeID, batchID string, reviews []scoring.EmployeeReview) (int, error) {
	inserted := 0
	for _, review := range reviews {
		_, err := d.db.Exec(`INSERT INTO employee_reviews
			(home_id, source, rating, sentiment, review_text, review_date, author, batch_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			homeID, review.Source, review.Rating, string(review.Sentiment),
			review.Text, review.Date, review.Author, batchID)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert review %d of batch %s: %w", inserted, batchID, err)
		}
		inserted++
	}
	return inserted, nil
}

// GetReviews returns all stored reviews for a home, oldest first.
func (d *Database) GetReviews(homeID string) ([]scoring.EmployeeReview, error) {
	rows, err := d.db.Query(`SELECT source, rating, sentiment, review_text, review_date, author
		FROM employee_reviews WHERE home_id = ? ORDER BY seq`, homeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews for %s: %w", homeID, err)
	}
	defer rows.Close()

	var reviews []scoring.EmployeeReview
	for rows.Next() {
		var review scoring.EmployeeReview
		var sentiment string
		if err := rows.Scan(&review.Source, &review.Rating, &sentiment,
			&review.Text, &review.Date, &review.Author); err != nil {
			return nil, err
		}
		review.Sentiment = scoring.Sentiment(sentiment)
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}
