package scoring

import (
	"reflect"
	"sort"
	"testing"
)

func TestKeywordThemes(t *testing.T) {
	extractor := KeywordThemes{}

	tests := []struct {
		name         string
		texts        []string
		wantPositive []string
		wantNegative []string
	}{
		{
			name:  "empty reviews yield no themes",
			texts: []string{"", ""},
		},
		{
			name:         "duplicate mentions deduplicated",
			texts:        []string{"Great training provided", "The training was thorough"},
			wantPositive: []string{ThemeGoodTraining},
		},
		{
			name:         "good training triggers management and training themes",
			texts:        []string{"Good training and a friendly team"},
			wantPositive: []string{ThemeGoodTraining, ThemeManagementSupportive},
		},
		{
			name:         "management keyword case-insensitive",
			texts:        []string{"MANAGEMENT actually listens"},
			wantPositive: []string{ThemeManagementSupportive},
		},
		{
			name:         "staffing and pay complaints",
			texts:        []string{"Understaffed and the pay is poor"},
			wantNegative: []string{ThemePayConcerns, ThemeUnderstaffed},
		},
		{
			name:         "shortage maps to understaffed theme",
			texts:        []string{"constant staff shortage on weekends"},
			wantNegative: []string{ThemeUnderstaffed},
		},
		{
			name:         "salary and wages map to pay concerns once",
			texts:        []string{"low salary", "wages below minimum"},
			wantNegative: []string{ThemePayConcerns},
		},
		{
			name:         "mixed review contributes to both lists",
			texts:        []string{"Supportive manager but we are understaffed"},
			wantPositive: []string{ThemeManagementSupportive},
			wantNegative: []string{ThemeUnderstaffed},
		},
	}

	for _, tt := range tests {
		reviews := make([]EmployeeReview, len(tt.texts))
		for i, text := range tt.texts {
			reviews[i] = EmployeeReview{Sentiment: SentimentMixed, Text: text}
		}
		got := extractor.Themes(reviews)
		if !sameThemes(got.Positive, tt.wantPositive) {
			t.Errorf("%s: positive themes = %v, want %v", tt.name, got.Positive, tt.wantPositive)
		}
		if !sameThemes(got.Negative, tt.wantNegative) {
			t.Errorf("%s: negative themes = %v, want %v", tt.name, got.Negative, tt.wantNegative)
		}
	}
}

// sameThemes compares ignoring order; extraction order is not a contract.
func sameThemes(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	if len(got) == 0 {
		return true
	}
	g := append([]string(nil), got...)
	w := append([]string(nil), want...)
	sort.Strings(g)
	sort.Strings(w)
	return reflect.DeepEqual(g, w)
}

func TestMentionsStaffing(t *testing.T) {
	extractor := KeywordThemes{}

	tests := []struct {
		text string
		want bool
	}{
		{"We are understaffed every shift", true},
		{"UNDERSTAFFING is chronic", true},
		{"staff shortages on nights", true},
		{"Lovely place to work", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := extractor.MentionsStaffing(tt.text); got != tt.want {
			t.Errorf("MentionsStaffing(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
