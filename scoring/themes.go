package scoring

import "strings"

// Theme strings surfaced on dashboards. The keyword lists below are tuned to
// the phrasing seen in care-sector job reviews; keep them in sync with the
// themes they produce.
const (
	ThemeManagementSupportive = "Management supportive & approachable"
	ThemeGoodTraining         = "Good training program"
	ThemeUnderstaffed         = "Understaffed during peak shifts"
	ThemePayConcerns          = "Pay concerns mentioned"
)

// ThemeExtractor pulls recurring themes out of review text and decides
// whether a single review mentions staffing problems. Implementations must
// be safe for concurrent use.
type ThemeExtractor interface {
	Themes(reviews []EmployeeReview) ThemeSummary
	MentionsStaffing(text string) bool
}

// KeywordThemes is the default ThemeExtractor: case-insensitive substring
// matching against fixed keyword lists. Each rule is tested independently,
// so one review can contribute several themes.
type KeywordThemes struct{}

func (KeywordThemes) Themes(reviews []EmployeeReview) ThemeSummary {
	var summary ThemeSummary
	seenPositive := map[string]bool{}
	seenNegative := map[string]bool{}
	addPositive := func(theme string) {
		if !seenPositive[theme] {
			seenPositive[theme] = true
			summary.Positive = append(summary.Positive, theme)
		}
	}
	addNegative := func(theme string) {
		if !seenNegative[theme] {
			seenNegative[theme] = true
			summary.Negative = append(summary.Negative, theme)
		}
	}

	for _, review := range reviews {
		if review.Text == "" {
			continue
		}
		text := strings.ToLower(review.Text)
		if containsAny(text, "supportive", "good training", "management") {
			addPositive(ThemeManagementSupportive)
		}
		if strings.Contains(text, "training") {
			addPositive(ThemeGoodTraining)
		}
		if containsAny(text, "understaff", "shortage") {
			addNegative(ThemeUnderstaffed)
		}
		if containsAny(text, "pay", "salary", "wage") {
			addNegative(ThemePayConcerns)
		}
	}
	return summary
}

func (KeywordThemes) MentionsStaffing(text string) bool {
	return containsAny(strings.ToLower(text), "understaff", "shortage")
}

func containsAny(text string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
