// Package model defines the value objects produced by the extraction stages
// and the validation invariants callers must check before trusting a record.
package model

import (
	"fmt"
	"strings"
)

// RatingCategories are the five fixed buckets of the rating histogram. A
// distribution always carries all five keys, zero-valued when not observed.
var RatingCategories = []string{"Awesome", "Great", "Good", "OK", "Awful"}

// NewRatingDistribution returns a distribution with every category present
// and initialized to zero.
func NewRatingDistribution() map[string]int {
	dist := make(map[string]int, len(RatingCategories))
	for _, c := range RatingCategories {
		dist[c] = 0
	}
	return dist
}

// ProfessorSummary is one row of the listing page. It exists only to feed
// detail-page URLs into the batch run and is never part of the final output.
type ProfessorSummary struct {
	ProfessorName     string  `json:"professor_name"`
	Department        string  `json:"department"`
	University        string  `json:"university"`
	NumRatings        int     `json:"num_ratings"`
	AvgQuality        float64 `json:"avg_quality"`
	AvgDifficulty     float64 `json:"avg_difficulty"`
	WouldTakeAgainPct *int    `json:"would_take_again_pct"`
	ProfessorPageURL  string  `json:"professor_page_url"`
}

// Validate rejects summaries that violate any non-empty or range constraint.
func (s ProfessorSummary) Validate() error {
	if strings.TrimSpace(s.ProfessorName) == "" {
		return fmt.Errorf("professor_name is required")
	}
	if strings.TrimSpace(s.Department) == "" {
		return fmt.Errorf("department is required")
	}
	if strings.TrimSpace(s.University) == "" {
		return fmt.Errorf("university is required")
	}
	if s.NumRatings < 0 {
		return fmt.Errorf("num_ratings must be non-negative, got %d", s.NumRatings)
	}
	if s.AvgQuality < 0 || s.AvgQuality > 5 {
		return fmt.Errorf("avg_quality must be between 0 and 5, got %g", s.AvgQuality)
	}
	if s.AvgDifficulty < 0 || s.AvgDifficulty > 5 {
		return fmt.Errorf("avg_difficulty must be between 0 and 5, got %g", s.AvgDifficulty)
	}
	if s.WouldTakeAgainPct != nil && (*s.WouldTakeAgainPct < 0 || *s.WouldTakeAgainPct > 100) {
		return fmt.Errorf("would_take_again_pct must be between 0 and 100, got %d", *s.WouldTakeAgainPct)
	}
	if strings.TrimSpace(s.ProfessorPageURL) == "" {
		return fmt.Errorf("professor_page_url is required")
	}
	return nil
}

// Professor is the complete persisted unit: detail-page scalars, the rating
// histogram, tags, and the owned reviews.
type Professor struct {
	ProfessorName      string         `json:"professor_name"`
	Department         string         `json:"department"`
	OverallQuality     float64        `json:"overall_quality"`
	DifficultyLevel    float64        `json:"difficulty_level"`
	WouldTakeAgain     *int           `json:"would_take_again"`
	RatingDistribution map[string]int `json:"rating_distribution"`
	Tags               []string       `json:"tags"`
	Reviews            []Review       `json:"reviews"`
}

// Validate rejects professors that violate any non-empty or range constraint.
// Validation is explicit; nothing calls it implicitly on construction.
func (p Professor) Validate() error {
	if strings.TrimSpace(p.ProfessorName) == "" {
		return fmt.Errorf("professor_name is required")
	}
	if strings.TrimSpace(p.Department) == "" {
		return fmt.Errorf("department is required")
	}
	if p.OverallQuality < 0 || p.OverallQuality > 5 {
		return fmt.Errorf("overall_quality must be between 0 and 5, got %g", p.OverallQuality)
	}
	if p.DifficultyLevel < 0 || p.DifficultyLevel > 5 {
		return fmt.Errorf("difficulty_level must be between 0 and 5, got %g", p.DifficultyLevel)
	}
	if p.WouldTakeAgain != nil && (*p.WouldTakeAgain < 0 || *p.WouldTakeAgain > 100) {
		return fmt.Errorf("would_take_again must be between 0 and 100, got %d", *p.WouldTakeAgain)
	}
	for _, c := range RatingCategories {
		count, ok := p.RatingDistribution[c]
		if !ok {
			return fmt.Errorf("rating_distribution missing category %q", c)
		}
		if count < 0 {
			return fmt.Errorf("rating_distribution[%q] must be non-negative, got %d", c, count)
		}
	}
	return nil
}
