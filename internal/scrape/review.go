package scrape

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campusmetrics/profscraper/internal/cleaner"
	"github.com/campusmetrics/profscraper/internal/model"
)

// maxLoadMoreClicks caps review pagination; a broken load-more control is a
// known failure mode on this target and review counts are unbounded.
const maxLoadMoreClicks = 100

// Review-list locators.
var (
	reviewLoadMoreControls = []Locator{
		XPath("//button[contains(., 'Load More')]"),
		XPath("//button[contains(., 'Show More')]"),
		XPath("//button[contains(@class, 'Buttons__Button') and contains(., 'Load')]"),
		XPath("//a[contains(., 'Load More')]"),
	}
	reviewBlockChain = []Locator{
		CSS("div[class*='Rating__StyledRating']"),
		CSS("div[class*='Rating-']"),
		CSS("li[class*='Rating']"),
		CSS("div[class*='RatingItem']"),
	}
	reviewCourseChain = []Locator{
		CSS("div[class*='RatingHeader__StyledClass']"),
		CSS("div[class*='CourseName']"),
		CSS("div[class*='Class']"),
	}
	reviewCreditChain = []Locator{
		CSS("div[class*='MetaItem'][class*='Credit']"),
		CSS("span[class*='Credit']"),
	}
	reviewAttendanceChain = []Locator{
		CSS("div[class*='MetaItem'][class*='Attendance']"),
		CSS("span[class*='Attendance']"),
	}
	reviewGradeChain = []Locator{
		CSS("div[class*='MetaItem'][class*='Grade']"),
		CSS("span[class*='Grade']"),
	}
	reviewTextbookChain = []Locator{
		CSS("div[class*='MetaItem'][class*='Textbook']"),
		CSS("span[class*='Textbook']"),
	}
	reviewQualityChain = []Locator{
		CSS("div[class*='CardNumRating__CardNumRatingNumber'][class*='quality']"),
		CSS("div[class*='Quality'] div[class*='CardNumRating']"),
		CSS("div[class*='RatingValues__RatingValue']:first-child"),
	}
	reviewDifficultyChain = []Locator{
		CSS("div[class*='CardNumRating__CardNumRatingNumber'][class*='difficulty']"),
		CSS("div[class*='Difficulty'] div[class*='CardNumRating']"),
		CSS("div[class*='RatingValues__RatingValue']:last-child"),
	}
	reviewRatingNumbers = CSS("div[class*='CardNumRating']")
	reviewCommentChain  = []Locator{
		CSS("div[class*='Comments__StyledComments']"),
		CSS("div[class*='RatingComment']"),
		CSS("div[class*='CommentText']"),
		CSS("div[class*='Comment']"),
	}
	reviewTagChain = []Locator{
		CSS("span[class*='Tag-']"),
		CSS("div[class*='RatingTag']"),
		CSS("span[class*='RatingTag']"),
	}
	reviewDateChain = []Locator{
		CSS("div[class*='TimeStamp']"),
		CSS("div[class*='Date']"),
		CSS("time"),
		CSS("span[class*='Date']"),
	}
	reviewHelpfulChain = []Locator{
		CSS("div[class*='Helpful']"),
		CSS("button[class*='Helpful']"),
		CSS("div[class*='Thumbs']"),
	}
)

// Raw-text fallbacks for the metadata fields; the labels survive layout
// revisions even when the dedicated elements do not.
var (
	attendancePattern = regexp.MustCompile(`(?i)Attendance:\s*(\w+)`)
	gradePattern      = regexp.MustCompile(`(?i)Grade\s*(?:Received)?:\s*([A-F][+-]?|Pass|Fail|Incomplete|Withdraw|Audit|Not sure yet|Rather not say)`)
	textbookPattern   = regexp.MustCompile(`(?i)Textbook:\s*(\w+(?:\s+\w+)?)`)
	digitsPattern     = regexp.MustCompile(`\d+`)
)

// ReviewScraper exhausts review pagination on an already-loaded detail page
// and extracts every review block.
type ReviewScraper struct {
	session Session
	pager   *paginator
	logger  *zap.Logger
}

// NewReviewScraper wires a review stage over an open session.
func NewReviewScraper(session Session, settleDelay time.Duration, logger *zap.Logger) *ReviewScraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	pager := newPaginator(paginatorConfig{
		controls:               reviewLoadMoreControls,
		maxActivations:         maxLoadMoreClicks,
		maxConsecutiveFailures: 3,
		scriptedFallback:       true,
		settleDelay:            settleDelay,
	}, logger)
	return &ReviewScraper{session: session, pager: pager, logger: logger}
}

// LoadAll clicks the load-more control until it disappears, the activation
// ceiling is hit, or three consecutive activations fail.
func (s *ReviewScraper) LoadAll(ctx context.Context) {
	s.logger.Info("loading all reviews")
	result := s.pager.run(ctx, s.session)
	s.logger.Info("finished loading reviews",
		zap.Int("clicks", result.activations),
		zap.String("state", result.state.String()))
}

// Extract parses every review block currently on the page. A single block's
// parse failure is isolated and skipped.
func (s *ReviewScraper) Extract(ctx context.Context) []model.Review {
	blocks, ok := firstElements(ctx, s.session, reviewBlockChain)
	if !ok {
		s.logger.Warn("no review elements found on page")
		return []model.Review{}
	}
	s.logger.Info("extracting reviews", zap.Int("blocks", len(blocks)))

	reviews := make([]model.Review, 0, len(blocks))
	for i, block := range blocks {
		review, err := s.parseBlock(ctx, block)
		if err != nil {
			s.logger.Warn("skipping unparseable review block",
				zap.Int("block", i+1),
				zap.Error(err))
			continue
		}
		reviews = append(reviews, review)
	}
	s.logger.Info("extracted reviews", zap.Int("count", len(reviews)))
	return reviews
}

// parseBlock extracts every field of one review independently; each field
// resolves to its documented default rather than failing the block. Only a
// validation failure on the assembled record discards the block.
func (s *ReviewScraper) parseBlock(ctx context.Context, block Element) (model.Review, error) {
	// The block's raw text feeds the keyword scans and regex fallbacks.
	rawText, err := block.Text(ctx)
	if err != nil {
		rawText = ""
	}

	upvotes, downvotes := s.extractHelpfulVotes(ctx, block)

	review := model.Review{
		CourseCode:       s.extractCourseCode(ctx, block),
		ForCredit:        s.extractForCredit(ctx, block, rawText),
		Attendance:       s.extractMeta(ctx, block, rawText, reviewAttendanceChain, attendancePattern),
		Grade:            s.extractMeta(ctx, block, rawText, reviewGradeChain, gradePattern),
		TextbookUsed:     s.extractMeta(ctx, block, rawText, reviewTextbookChain, textbookPattern),
		QualityScore:     s.extractScore(ctx, block, reviewQualityChain, 0),
		DifficultyScore:  s.extractScore(ctx, block, reviewDifficultyChain, 1),
		ReviewText:       s.extractComment(ctx, block),
		Tags:             s.extractTags(ctx, block),
		DatePosted:       s.extractDate(ctx, block),
		HelpfulUpvotes:   upvotes,
		HelpfulDownvotes: downvotes,
	}
	if err := review.Validate(); err != nil {
		return model.Review{}, err
	}
	return review, nil
}

func (s *ReviewScraper) extractCourseCode(ctx context.Context, block Element) string {
	if code, ok := firstText(ctx, block, reviewCourseChain); ok {
		return code
	}
	return model.DefaultCourseCode
}

// extractForCredit prefers explicit "credit: yes/no" phrasing in the block's
// raw text, falls back to a dedicated element, and defaults to true when the
// page says nothing either way.
func (s *ReviewScraper) extractForCredit(ctx context.Context, block Element, rawText string) bool {
	text := strings.ToLower(rawText)
	switch {
	case strings.Contains(text, "for credit: yes"), strings.Contains(text, "credit: yes"):
		return true
	case strings.Contains(text, "for credit: no"), strings.Contains(text, "credit: no"):
		return false
	}
	for _, loc := range reviewCreditChain {
		el, err := block.Find(ctx, loc)
		if err != nil {
			continue
		}
		creditText, err := el.Text(ctx)
		if err != nil {
			continue
		}
		return strings.Contains(strings.ToLower(creditText), "yes")
	}
	return true
}

// extractMeta handles the label-prefixed metadata fields (attendance, grade,
// textbook): selector chain with colon-prefix stripping, raw-text regex
// fallback, then the shared default.
func (s *ReviewScraper) extractMeta(ctx context.Context, block Element, rawText string, chain []Locator, pattern *regexp.Regexp) string {
	for _, loc := range chain {
		el, err := block.Find(ctx, loc)
		if err != nil {
			continue
		}
		text := elementText(ctx, el)
		if text == "" {
			continue
		}
		if _, value, found := strings.Cut(text, ":"); found {
			return strings.TrimSpace(value)
		}
		return text
	}
	if m := pattern.FindStringSubmatch(rawText); m != nil {
		return m[1]
	}
	return model.DefaultMetaValue
}

// extractScore walks the dedicated chain first, then falls positionally onto
// the block's rating-number elements (quality first, difficulty second).
func (s *ReviewScraper) extractScore(ctx context.Context, block Element, chain []Locator, position int) float64 {
	if n, ok := firstNumber(ctx, block, chain); ok {
		return n
	}
	numbers, err := block.FindAll(ctx, reviewRatingNumbers)
	if err == nil && len(numbers) > position {
		raw, err := numbers[position].Text(ctx)
		if err == nil {
			if n, ok := cleaner.ParseNumber(raw); ok {
				return n
			}
		}
	}
	return 0.0
}

func (s *ReviewScraper) extractComment(ctx context.Context, block Element) string {
	if text, ok := firstText(ctx, block, reviewCommentChain); ok {
		return text
	}
	return ""
}

func (s *ReviewScraper) extractTags(ctx context.Context, block Element) []string {
	els, ok := firstElements(ctx, block, reviewTagChain)
	if !ok {
		return []string{}
	}
	return dedupeTags(ctx, els)
}

func (s *ReviewScraper) extractDate(ctx context.Context, block Element) string {
	if text, ok := firstText(ctx, block, reviewDateChain); ok {
		return text
	}
	return ""
}

// extractHelpfulVotes scans the block's helpful/thumbs elements for
// keyword+number co-occurrence. The negated phrasings are checked before the
// bare ones so "not helpful 3" never counts as an upvote.
func (s *ReviewScraper) extractHelpfulVotes(ctx context.Context, block Element) (int, int) {
	upvotes, downvotes := 0, 0
	for _, loc := range reviewHelpfulChain {
		els, err := block.FindAll(ctx, loc)
		if err != nil {
			continue
		}
		for _, el := range els {
			raw, err := el.Text(ctx)
			if err != nil {
				continue
			}
			text := strings.ToLower(raw)
			numbers := digitsPattern.FindAllString(text, -1)
			if len(numbers) == 0 {
				continue
			}
			count, err := strconv.Atoi(numbers[0])
			if err != nil {
				continue
			}
			switch {
			case strings.Contains(text, "not helpful"), strings.Contains(text, "thumbs down"):
				downvotes = count
			case strings.Contains(text, "helpful"), strings.Contains(text, "thumbs up"):
				upvotes = count
			}
		}
		if upvotes > 0 || downvotes > 0 {
			break
		}
	}
	return upvotes, downvotes
}
