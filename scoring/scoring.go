// Package scoring computes a staff-quality composite score for a care home
// from its regulator rating data and aggregated employee reviews. The scorer
// is pure: it holds no state between calls and every input field is optional
// and defaulted, so a call never fails.
package scoring

import (
	"fmt"
	"math"
	"time"
)

// Sentiment labels attached to employee reviews by the upstream aggregator.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentMixed    Sentiment = "MIXED"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)

// Regulator rating values as CQC publishes them.
const (
	RatingOutstanding         = "Outstanding"
	RatingGood                = "Good"
	RatingRequiresImprovement = "Requires Improvement"
	RatingInadequate          = "Inadequate"
)

// Score categories, highest to lowest.
const (
	CategoryExcellent  = "EXCELLENT"
	CategoryGood       = "GOOD"
	CategoryAdequate   = "ADEQUATE"
	CategoryConcerning = "CONCERNING"
	CategoryPoor       = "POOR"
)

// Confidence levels for a computed score.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

const (
	// absentRatingScore is the neutral prior used when a rating dimension or
	// sentiment data is missing.
	absentRatingScore = 50.0
	// minQualifyingReviews is the minimum number of POSITIVE/MIXED/NEGATIVE
	// reviews needed before an employee-sentiment sub-score is computed.
	minQualifyingReviews = 3
	// staleInspectionMonths is assumed when no inspection date is known.
	staleInspectionMonths = 24
)

// SentimentCounts holds the regulator's staff-sentiment counts. Score is the
// value precomputed upstream; the scorer recomputes its own sub-score from
// the raw counts and never reads it.
type SentimentCounts struct {
	Positive int     `json:"positive"`
	Neutral  int     `json:"neutral"`
	Negative int     `json:"negative"`
	Score    float64 `json:"score"`
}

// RegulatorRating is the CQC-derived input to a scoring call. Empty rating
// strings mean the dimension was not rated.
type RegulatorRating struct {
	WellLed        string           `json:"well_led"`
	Effective      string           `json:"effective"`
	LastInspection *time.Time       `json:"last_inspection,omitempty"`
	StaffSentiment *SentimentCounts `json:"staff_sentiment,omitempty"`
}

// EmployeeReview is one review collected from a job-review platform.
// Date and Author are display metadata and do not affect scoring.
type EmployeeReview struct {
	Source    string    `json:"source"`
	Rating    float64   `json:"rating"`
	Sentiment Sentiment `json:"sentiment"`
	Text      string    `json:"text,omitempty"`
	Date      string    `json:"date,omitempty"`
	Author    string    `json:"author,omitempty"`
}

// Component is one weighted sub-score of the composite.
type Component struct {
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// Components breaks the composite score down into its four weighted inputs.
// EmployeeSentiment is nil when fewer than three qualifying reviews exist.
type Components struct {
	WellLed            Component  `json:"well_led"`
	Effective          Component  `json:"effective"`
	RegulatorSentiment Component  `json:"regulator_sentiment"`
	EmployeeSentiment  *Component `json:"employee_sentiment,omitempty"`
}

// Flag severities.
const (
	SeverityRed    = "red"
	SeverityYellow = "yellow"
)

// Flag is a warning attached to a score.
type Flag struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// ThemeSummary holds deduplicated themes extracted from review text.
type ThemeSummary struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
}

// DataQuality summarizes how much the score can be trusted.
type DataQuality struct {
	CQCDataAge          string `json:"cqc_data_age"`
	ReviewCount         int    `json:"review_count"`
	HasInsufficientData bool   `json:"has_insufficient_data"`
}

// StaffQualityScore is the immutable result of one scoring call.
type StaffQualityScore struct {
	OverallScore float64      `json:"overall_score"`
	Category     string       `json:"category"`
	Confidence   string       `json:"confidence"`
	Components   Components   `json:"components"`
	Flags        []Flag       `json:"flags"`
	Themes       ThemeSummary `json:"themes"`
	DataQuality  DataQuality  `json:"data_quality"`
}

// Rating-to-score lookup tables, one per dimension. Missing ratings fall
// back to absentRatingScore.
var (
	wellLedScores = map[string]float64{
		RatingOutstanding:         95,
		RatingGood:                75,
		RatingRequiresImprovement: 40,
		RatingInadequate:          10,
	}
	effectiveScores = map[string]float64{
		RatingOutstanding:         90,
		RatingGood:                70,
		RatingRequiresImprovement: 35,
		RatingInadequate:          5,
	}
)

type weightSet struct {
	WellLed            float64
	Effective          float64
	RegulatorSentiment float64
	EmployeeSentiment  float64
}

// Weight tables, chosen by whether an employee-sentiment sub-score exists.
var (
	weightsWithReviews = weightSet{WellLed: 0.40, Effective: 0.20, RegulatorSentiment: 0.10, EmployeeSentiment: 0.30}
	weightsNoReviews   = weightSet{WellLed: 0.45, Effective: 0.25, RegulatorSentiment: 0.30, EmployeeSentiment: 0.00}
)

// Scorer computes staff-quality scores. The zero value is not usable; create
// one with NewScorer.
type Scorer struct {
	themes ThemeExtractor
	now    func() time.Time
}

// NewScorer returns a Scorer using keyword-based theme extraction.
func NewScorer() *Scorer {
	return &Scorer{themes: KeywordThemes{}, now: time.Now}
}

// NewScorerWithThemes returns a Scorer using the given theme extractor.
func NewScorerWithThemes(themes ThemeExtractor) *Scorer {
	return &Scorer{themes: themes, now: time.Now}
}

// Score computes the composite staff-quality score for one care home.
func (s *Scorer) Score(rating RegulatorRating, reviews []EmployeeReview) StaffQualityScore {
	wellLed := ratingScore(wellLedScores, rating.WellLed)
	effective := ratingScore(effectiveScores, rating.Effective)
	regulatorSentiment := regulatorSentimentScore(rating.StaffSentiment)
	employeeSentiment := employeeSentimentScore(reviews)

	weights := weightsNoReviews
	if employeeSentiment != nil {
		weights = weightsWithReviews
	}

	overall := wellLed*weights.WellLed +
		effective*weights.Effective +
		regulatorSentiment*weights.RegulatorSentiment
	if employeeSentiment != nil {
		overall += *employeeSentiment * weights.EmployeeSentiment
	}
	overall = math.Round(overall*10) / 10

	ageMonths := staleInspectionMonths
	if rating.LastInspection != nil {
		ageMonths = monthsBetween(*rating.LastInspection, s.now())
	}

	components := Components{
		WellLed:            Component{Score: wellLed, Weight: weights.WellLed},
		Effective:          Component{Score: effective, Weight: weights.Effective},
		RegulatorSentiment: Component{Score: regulatorSentiment, Weight: weights.RegulatorSentiment},
	}
	if employeeSentiment != nil {
		components.EmployeeSentiment = &Component{Score: *employeeSentiment, Weight: weights.EmployeeSentiment}
	}

	return StaffQualityScore{
		OverallScore: overall,
		Category:     categorize(overall),
		Confidence:   confidence(ageMonths, len(reviews)),
		Components:   components,
		Flags:        s.buildFlags(rating, reviews, ageMonths, employeeSentiment),
		Themes:       s.themes.Themes(reviews),
		DataQuality: DataQuality{
			CQCDataAge:          describeDataAge(ageMonths),
			ReviewCount:         len(reviews),
			HasInsufficientData: employeeSentiment == nil,
		},
	}
}

func ratingScore(table map[string]float64, rating string) float64 {
	if score, ok := table[rating]; ok {
		return score
	}
	return absentRatingScore
}

// regulatorSentimentScore maps the signed net-sentiment ratio linearly onto
// [0,100]: all-positive 100, all-negative 0, balanced or no data 50.
func regulatorSentimentScore(counts *SentimentCounts) float64 {
	if counts == nil {
		return absentRatingScore
	}
	total := counts.Positive + counts.Neutral + counts.Negative
	if total == 0 {
		return absentRatingScore
	}
	return 50 + 50*float64(counts.Positive-counts.Negative)/float64(total)
}

// employeeSentimentScore averages qualifying reviews at 100/50/0 for
// POSITIVE/MIXED/NEGATIVE. NEUTRAL reviews do not qualify. Returns nil when
// fewer than minQualifyingReviews qualify, signalling insufficient data
// rather than a neutral value.
func employeeSentimentScore(reviews []EmployeeReview) *float64 {
	var positive, mixed, negative int
	for _, review := range reviews {
		switch review.Sentiment {
		case SentimentPositive:
			positive++
		case SentimentMixed:
			mixed++
		case SentimentNegative:
			negative++
		}
	}
	total := positive + mixed + negative
	if total < minQualifyingReviews {
		return nil
	}
	score := float64(100*positive+50*mixed) / float64(total)
	return &score
}

// categorize assigns the band for a score. Ties at a threshold belong to the
// higher band.
func categorize(score float64) string {
	switch {
	case score >= 90:
		return CategoryExcellent
	case score >= 75:
		return CategoryGood
	case score >= 60:
		return CategoryAdequate
	case score >= 40:
		return CategoryConcerning
	default:
		return CategoryPoor
	}
}

// confidence is driven by inspection recency and review volume, High checked
// before Medium.
func confidence(ageMonths, reviewCount int) string {
	switch {
	case ageMonths < 6 && reviewCount >= 5:
		return ConfidenceHigh
	case ageMonths < 12 && reviewCount >= 3:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func (s *Scorer) buildFlags(rating RegulatorRating, reviews []EmployeeReview, ageMonths int, employeeSentiment *float64) []Flag {
	var flags []Flag
	if rating.WellLed == RatingRequiresImprovement || rating.WellLed == RatingInadequate {
		flags = append(flags, Flag{
			Severity: SeverityRed,
			Message:  fmt.Sprintf("CQC rated well-led %q, indicating management concerns", rating.WellLed),
		})
	}
	if ageMonths > 18 {
		flags = append(flags, Flag{
			Severity: SeverityYellow,
			Message:  fmt.Sprintf("Last inspection %d months ago, data may be outdated", ageMonths),
		})
	}
	if len(reviews) > 0 && s.allMentionStaffing(reviews) {
		flags = append(flags, Flag{
			Severity: SeverityRed,
			Message:  "Every employee review mentions understaffing or staff shortages",
		})
	}
	if rating.WellLed == RatingOutstanding && employeeSentiment != nil && *employeeSentiment < 40 {
		flags = append(flags, Flag{
			Severity: SeverityYellow,
			Message:  "Outstanding CQC rating conflicts with negative employee sentiment",
		})
	}
	return flags
}

func (s *Scorer) allMentionStaffing(reviews []EmployeeReview) bool {
	for _, review := range reviews {
		if !s.themes.MentionsStaffing(review.Text) {
			return false
		}
	}
	return true
}

// monthsBetween counts whole calendar months from one time to another.
// A partial month does not count; the result is negative for future dates.
func monthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	return months
}

func describeDataAge(months int) string {
	if months <= 0 {
		return "Recent"
	}
	return fmt.Sprintf("%d months ago", months)
}
