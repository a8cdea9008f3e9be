package recommend

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/popcornpicks/backend/internal/models"
)

// Bounds for match_percentage.
const (
	MinMatchPercentage = 70
	MaxMatchPercentage = 95
)

const unknownRating = "N/A"

type rawRecommendation struct {
	Title               json.RawMessage `json:"title"`
	Year                json.RawMessage `json:"year"`
	Genre               json.RawMessage `json:"genre"`
	Reason              json.RawMessage `json:"reason"`
	Rating              json.RawMessage `json:"rating"`
	MatchPercentage     json.RawMessage `json:"match_percentage"`
	DetailedExplanation json.RawMessage `json:"detailed_explanation"`
}

// ParseRecommendations decodes raw model output into recommendations. It
// tolerates a surrounding markdown code fence and string-or-number fields, and
// returns at most RecommendationCount items.
func ParseRecommendations(raw string) ([]models.Recommendation, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty output", ErrMalformedOutput)
	}

	trimmed := bytes.TrimSpace([]byte(body))
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformedOutput)
	}

	var items []rawRecommendation
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty array", ErrMalformedOutput)
	}
	if len(items) > RecommendationCount {
		items = items[:RecommendationCount]
	}

	recs := make([]models.Recommendation, 0, len(items))
	for _, item := range items {
		rating := flexString(item.Rating)
		if rating == "" {
			rating = unknownRating
		}
		year, _ := flexInt(item.Year)
		match, ok := flexInt(item.MatchPercentage)
		if !ok {
			match = MinMatchPercentage
		}

		recs = append(recs, models.Recommendation{
			Title:               flexString(item.Title),
			Year:                year,
			Genre:               flexString(item.Genre),
			Reason:              flexString(item.Reason),
			Rating:              rating,
			MatchPercentage:     clamp(match, MinMatchPercentage, MaxMatchPercentage),
			DetailedExplanation: flexString(item.DetailedExplanation),
		})
	}
	return recs, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// Drop the opening fence line, which may carry a language tag.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// flexString renders a JSON string, number or string array as text.
func flexString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", ")
	}

	return strings.TrimSpace(string(raw))
}

// flexInt reads a JSON number or a numeric string such as "1999" or "85%".
func flexInt(raw json.RawMessage) (int, bool) {
	text := flexString(raw)
	if text == "" {
		return 0, false
	}
	text = strings.TrimSpace(strings.TrimSuffix(text, "%"))

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
