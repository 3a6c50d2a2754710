package scrape

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestReviewScraper(session Session) *ReviewScraper {
	rec := &pauseRecorder{}
	s := NewReviewScraper(session, 0, zap.NewNop())
	s.pager.pause = rec.pause
	return s
}

func TestReviewParseBlockFullyPopulated(t *testing.T) {
	block := newFakeElement(
		"CHM2045\nFor Credit: Yes\nAttendance: Mandatory\nGrade Received: A+\nTextbook: Yes",
	)
	block.withChild(reviewCourseChain[0].Value, newFakeElement("CHM2045"))
	block.withChild(reviewQualityChain[0].Value, newFakeElement("5.0"))
	block.withChild(reviewDifficultyChain[0].Value, newFakeElement("3.0"))
	block.withChild(reviewCommentChain[0].Value, newFakeElement("Great class, tough exams."))
	block.withChild(reviewTagChain[0].Value,
		newFakeElement("Amazing Lectures"),
		newFakeElement("Test Heavy"),
		newFakeElement("Amazing Lectures"),
	)
	block.withChild(reviewDateChain[0].Value, newFakeElement("Mar 14th, 2024"))
	block.withChild(reviewHelpfulChain[0].Value,
		newFakeElement("Helpful 12"),
		newFakeElement("Not helpful 3"),
	)

	s := newTestReviewScraper(newFakeSession())
	review, err := s.parseBlock(context.Background(), block)
	require.NoError(t, err)

	assert.Equal(t, "CHM2045", review.CourseCode)
	assert.True(t, review.ForCredit)
	assert.Equal(t, "Mandatory", review.Attendance)
	assert.Equal(t, "A+", review.Grade)
	assert.Equal(t, "Yes", review.TextbookUsed)
	assert.Equal(t, 5.0, review.QualityScore)
	assert.Equal(t, 3.0, review.DifficultyScore)
	assert.Equal(t, "Great class, tough exams.", review.ReviewText)
	assert.Equal(t, []string{"Amazing Lectures", "Test Heavy"}, review.Tags)
	assert.Equal(t, "Mar 14th, 2024", review.DatePosted)
	assert.Equal(t, 12, review.HelpfulUpvotes)
	assert.Equal(t, 3, review.HelpfulDownvotes)
}

func TestReviewParseBlockAllDefaults(t *testing.T) {
	block := newFakeElement("nothing recognizable here")

	s := newTestReviewScraper(newFakeSession())
	review, err := s.parseBlock(context.Background(), block)
	require.NoError(t, err)

	assert.Equal(t, "Unknown", review.CourseCode)
	assert.True(t, review.ForCredit, "for-credit defaults to true when unstated")
	assert.Equal(t, "Not Specified", review.Attendance)
	assert.Equal(t, "Not Specified", review.Grade)
	assert.Equal(t, "Not Specified", review.TextbookUsed)
	assert.Equal(t, 0.0, review.QualityScore)
	assert.Equal(t, 0.0, review.DifficultyScore)
	assert.Equal(t, "", review.ReviewText)
	assert.Empty(t, review.Tags)
	assert.Equal(t, "", review.DatePosted)
	assert.Zero(t, review.HelpfulUpvotes)
	assert.Zero(t, review.HelpfulDownvotes)
}

func TestReviewMetadataRegexFallback(t *testing.T) {
	// No dedicated metadata elements; everything comes from the raw text.
	block := newFakeElement(
		"For Credit: No\nAttendance: Optional\nGrade: Not sure yet\nTextbook: No",
	)

	s := newTestReviewScraper(newFakeSession())
	review, err := s.parseBlock(context.Background(), block)
	require.NoError(t, err)

	assert.False(t, review.ForCredit)
	assert.Equal(t, "Optional", review.Attendance)
	assert.Equal(t, "Not sure yet", review.Grade)
	assert.Equal(t, "No", review.TextbookUsed)
}

func TestReviewScoresPositionalFallback(t *testing.T) {
	// No dedicated score elements; quality is the first rating number on the
	// block, difficulty the second.
	block := newFakeElement("")
	block.withChild(reviewRatingNumbers.Value,
		newFakeElement("4.5"),
		newFakeElement("2.0"),
	)

	s := newTestReviewScraper(newFakeSession())
	review, err := s.parseBlock(context.Background(), block)
	require.NoError(t, err)

	assert.Equal(t, 4.5, review.QualityScore)
	assert.Equal(t, 2.0, review.DifficultyScore)
}

func TestReviewHelpfulVotesNegatedPhrasingFirst(t *testing.T) {
	block := newFakeElement("")
	block.withChild(reviewHelpfulChain[0].Value,
		newFakeElement("Not helpful 7"),
	)

	s := newTestReviewScraper(newFakeSession())
	up, down := s.extractHelpfulVotes(context.Background(), block)

	assert.Zero(t, up, "a 'not helpful' count must never register as an upvote")
	assert.Equal(t, 7, down)
}

func TestReviewExtractIsolatesBadBlocks(t *testing.T) {
	good := newFakeElement("")
	good.withChild(reviewCourseChain[0].Value, newFakeElement("ENC1101"))

	// Out-of-range score makes the assembled record fail validation.
	bad := newFakeElement("")
	bad.withChild(reviewQualityChain[0].Value, newFakeElement("9.9"))

	session := newFakeSession()
	session.withChild(reviewBlockChain[0].Value, good, bad)

	s := newTestReviewScraper(session)
	reviews := s.Extract(context.Background())

	require.Len(t, reviews, 1)
	assert.Equal(t, "ENC1101", reviews[0].CourseCode)
}

func TestReviewExtractEmptyPage(t *testing.T) {
	s := newTestReviewScraper(newFakeSession())
	assert.Empty(t, s.Extract(context.Background()))
}

func TestReviewLoadAllStopsWhenControlVanishes(t *testing.T) {
	session := newFakeSession()
	button := newFakeElement("Load More")
	button.onClick = func() error {
		if button.clicks >= 3 {
			button.hidden = true
		}
		return nil
	}
	session.withChild(reviewLoadMoreControls[0].Value, button)

	s := newTestReviewScraper(session)
	s.LoadAll(context.Background())

	assert.Equal(t, 3, button.clicks)
}
