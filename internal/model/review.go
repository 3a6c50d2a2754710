package model

import (
	"fmt"
	"strings"
)

// Defaults applied when a review field cannot be extracted. The original page
// renders these literals nowhere, so a default is distinguishable in practice.
const (
	DefaultCourseCode = "Unknown"
	DefaultMetaValue  = "Not Specified"
)

// Review is a single rating entry on a professor's detail page. It is owned
// by its parent Professor and never mutated after construction.
type Review struct {
	CourseCode       string   `json:"course_code"`
	ForCredit        bool     `json:"for_credit"`
	Attendance       string   `json:"attendance"`
	Grade            string   `json:"grade"`
	TextbookUsed     string   `json:"textbook_used"`
	QualityScore     float64  `json:"quality_score"`
	DifficultyScore  float64  `json:"difficulty_score"`
	ReviewText       string   `json:"review_text"`
	Tags             []string `json:"tags"`
	DatePosted       string   `json:"date_posted"`
	HelpfulUpvotes   int      `json:"helpful_upvotes"`
	HelpfulDownvotes int      `json:"helpful_downvotes"`
}

// Validate rejects reviews that violate any non-empty or range constraint.
func (r Review) Validate() error {
	if strings.TrimSpace(r.CourseCode) == "" {
		return fmt.Errorf("course_code is required")
	}
	if r.QualityScore < 0 || r.QualityScore > 5 {
		return fmt.Errorf("quality_score must be between 0 and 5, got %g", r.QualityScore)
	}
	if r.DifficultyScore < 0 || r.DifficultyScore > 5 {
		return fmt.Errorf("difficulty_score must be between 0 and 5, got %g", r.DifficultyScore)
	}
	if r.HelpfulUpvotes < 0 {
		return fmt.Errorf("helpful_upvotes must be non-negative, got %d", r.HelpfulUpvotes)
	}
	if r.HelpfulDownvotes < 0 {
		return fmt.Errorf("helpful_downvotes must be non-negative, got %d", r.HelpfulDownvotes)
	}
	return nil
}
