package scrape

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campusmetrics/profscraper/internal/cleaner"
	"github.com/campusmetrics/profscraper/internal/model"
)

// Detail-page locators.
var (
	detailNameChain = []Locator{
		CSS("div[class*='NameTitle__Name']"),
		CSS("div[class*='TeacherInfo__Name']"),
		CSS("h1[class*='NameTitle']"),
	}
	detailDepartmentChain = []Locator{
		CSS("div[class*='NameTitle__Title'] a"),
		CSS("a[class*='TeacherDepartment']"),
		CSS("div[class*='Department']"),
	}
	detailQualityChain = []Locator{
		CSS("div[class*='RatingValue__Numerator']"),
		CSS("div[class*='TeacherRating__Rating']"),
		CSS("div[class*='Quality'] div[class*='RatingValue']"),
	}
	detailDifficultyChain = []Locator{
		CSS("div[class*='FeedbackItem__FeedbackNumber'][class*='Difficulty']"),
		CSS("div[class*='Difficulty'] div[class*='FeedbackNumber']"),
	}
	detailFeedbackItem   = CSS("div[class*='FeedbackItem']")
	detailFeedbackNumber = CSS("div[class*='FeedbackNumber']")

	detailDistributionChain = []Locator{
		CSS("div[class*='RatingDistribution']"),
		CSS("div[class*='Histogram']"),
		CSS("div[class*='RatingBreakdown']"),
	}
	detailDistributionRow = CSS("div[class*='Rating']")

	detailTagChain = []Locator{
		CSS("span[class*='Tag-']"),
		CSS("div[class*='TeacherTag']"),
		CSS("span[class*='TeacherTags']"),
		CSS("div[class*='Tag'] span"),
	}
)

// DetailScraper produces the scalar metadata portion of a Professor from one
// detail page, delegating the review list to a ReviewScraper.
type DetailScraper struct {
	session Session
	retry   *Retryer
	reviews *ReviewScraper
	// pageLoadDelay follows navigation before extraction starts.
	pageLoadDelay time.Duration
	logger        *zap.Logger
}

// NewDetailScraper wires a detail stage over an open session.
func NewDetailScraper(session Session, retry *Retryer, reviews *ReviewScraper, logger *zap.Logger) *DetailScraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetailScraper{
		session:       session,
		retry:         retry,
		reviews:       reviews,
		pageLoadDelay: 2 * time.Second,
		logger:        logger,
	}
}

// ScrapeProfessor navigates to one professor's detail page and assembles the
// full record. Field-level misses resolve to documented defaults and never
// abort the professor; only a total navigation failure, an assembled record
// failing validation, or a panic-grade fault yields a nil Professor with the
// error logged and returned for the orchestrator to absorb.
func (s *DetailScraper) ScrapeProfessor(ctx context.Context, url string) (*model.Professor, error) {
	s.logger.Info("scraping professor page", zap.String("url", url))
	timer := time.Now()
	defer func() {
		professorScrapeSeconds.Observe(time.Since(timer).Seconds())
	}()

	err := s.retry.Do(ctx, "navigate to professor page", func(ctx context.Context) error {
		if err := s.session.Navigate(ctx, url); err != nil {
			return err
		}
		s.retry.pause(ctx, s.pageLoadDelay)
		return nil
	})
	if err != nil {
		LogError(s.logger, err, fmt.Sprintf("scraping professor page %s", url))
		return nil, fmt.Errorf("navigate to professor page %s: %w", url, err)
	}

	// One field's total failure never blocks another.
	name := s.textField(ctx, "professor name", detailNameChain, "Unknown")
	department := s.textField(ctx, "department", detailDepartmentChain, "Unknown")
	quality := s.extractQuality(ctx)
	difficulty := s.extractDifficulty(ctx)
	wouldTakeAgain := s.extractWouldTakeAgain(ctx)

	distribution := s.extractRatingDistribution(ctx)
	tags := s.extractTags(ctx)

	s.logger.Info("loading and extracting reviews")
	s.reviews.LoadAll(ctx)
	reviews := s.reviews.Extract(ctx)

	professor := &model.Professor{
		ProfessorName:      name,
		Department:         department,
		OverallQuality:     quality,
		DifficultyLevel:    difficulty,
		WouldTakeAgain:     wouldTakeAgain,
		RatingDistribution: distribution,
		Tags:               tags,
		Reviews:            reviews,
	}
	if err := professor.Validate(); err != nil {
		LogError(s.logger, err, fmt.Sprintf("validating professor record from %s", url))
		return nil, fmt.Errorf("professor record failed validation: %w", err)
	}

	s.logger.Info("successfully scraped professor",
		zap.String("professor", name),
		zap.Int("reviews", len(reviews)))
	return professor, nil
}

// textField walks a fallback chain with one retry after a fixed delay,
// resolving to the given default when both passes exhaust every candidate.
func (s *DetailScraper) textField(ctx context.Context, field string, chain []Locator, fallback string) string {
	if text, ok := firstText(ctx, s.session, chain); ok {
		return text
	}
	s.logger.Warn("first attempt to extract field failed, retrying",
		zap.String("field", field))
	s.retry.pause(ctx, s.retry.missRetryDelay)
	if text, ok := firstText(ctx, s.session, chain); ok {
		return text
	}
	s.logger.Error("failed to extract field, using default",
		zap.String("field", field),
		zap.String("default", fallback))
	return fallback
}

func (s *DetailScraper) extractQuality(ctx context.Context) float64 {
	if n, ok := firstNumber(ctx, s.session, detailQualityChain); ok {
		return n
	}
	s.logger.Warn("first attempt to extract overall quality failed, retrying")
	s.retry.pause(ctx, s.retry.missRetryDelay)
	if n, ok := firstNumber(ctx, s.session, detailQualityChain); ok {
		return n
	}
	s.logger.Error("failed to extract overall quality, using default")
	return 0.0
}

// extractDifficulty scans feedback sub-sections for the "difficulty" keyword
// first; keyword matching survives layout revisions that break any fixed
// selector. Direct selectors are only a fallback.
func (s *DetailScraper) extractDifficulty(ctx context.Context) float64 {
	attempt := func() (float64, bool) {
		if raw, ok := s.scanFeedbackSections(ctx, "difficulty"); ok {
			if n, ok := cleaner.ParseNumber(raw); ok {
				return n, true
			}
		}
		return firstNumber(ctx, s.session, detailDifficultyChain)
	}

	if n, ok := attempt(); ok {
		return n
	}
	s.logger.Warn("first attempt to extract difficulty level failed, retrying")
	s.retry.pause(ctx, s.retry.missRetryDelay)
	if n, ok := attempt(); ok {
		return n
	}
	s.logger.Error("failed to extract difficulty level, using default")
	return 0.0
}

// extractWouldTakeAgain has no selector fallback: the percentage only ever
// appears inside a keyword-matched feedback section. Absence is a legitimate
// state (nil), not a failure.
func (s *DetailScraper) extractWouldTakeAgain(ctx context.Context) *int {
	attempt := func() (*int, bool) {
		raw, ok := s.scanFeedbackSections(ctx, "would take again")
		if !ok {
			return nil, false
		}
		pct, ok := cleaner.ParsePercentage(raw)
		if !ok {
			return nil, false
		}
		return &pct, true
	}

	if pct, ok := attempt(); ok {
		return pct
	}
	s.retry.pause(ctx, s.retry.missRetryDelay)
	if pct, ok := attempt(); ok {
		return pct
	}
	s.logger.Debug("would take again percentage not found")
	return nil
}

// scanFeedbackSections returns the raw number text of the first feedback
// section whose text contains keyword.
func (s *DetailScraper) scanFeedbackSections(ctx context.Context, keyword string) (string, bool) {
	sections, err := s.session.FindAll(ctx, detailFeedbackItem)
	if err != nil {
		return "", false
	}
	for _, section := range sections {
		text, err := section.Text(ctx)
		if err != nil {
			continue
		}
		if !strings.Contains(strings.ToLower(text), keyword) {
			continue
		}
		number, err := section.Find(ctx, detailFeedbackNumber)
		if err != nil {
			continue
		}
		raw, err := number.Text(ctx)
		if err != nil {
			continue
		}
		return raw, true
	}
	return "", false
}

// extractRatingDistribution always returns all five categories; zero is the
// default for any category not encountered on the page.
func (s *DetailScraper) extractRatingDistribution(ctx context.Context) map[string]int {
	distribution := model.NewRatingDistribution()

	var section Element
	for _, loc := range detailDistributionChain {
		el, err := s.session.Find(ctx, loc)
		if err != nil {
			continue
		}
		section = el
		break
	}
	if section == nil {
		s.logger.Warn("rating distribution section not found")
		return distribution
	}

	rows, err := section.FindAll(ctx, detailDistributionRow)
	if err != nil {
		return distribution
	}
	for _, row := range rows {
		text, err := row.Text(ctx)
		if err != nil {
			continue
		}
		lower := strings.ToLower(text)
		for _, category := range model.RatingCategories {
			if !strings.Contains(lower, strings.ToLower(category)) {
				continue
			}
			if count, ok := firstIntegerToken(text); ok {
				distribution[category] = count
				s.logger.Debug("found rating category",
					zap.String("category", category),
					zap.Int("count", count))
			}
			break
		}
	}
	s.logger.Info("extracted rating distribution", zap.Any("distribution", distribution))
	return distribution
}

func (s *DetailScraper) extractTags(ctx context.Context) []string {
	els, ok := firstElements(ctx, s.session, detailTagChain)
	if !ok {
		s.logger.Warn("no tag elements found")
		return []string{}
	}
	tags := dedupeTags(ctx, els)
	s.logger.Info("extracted tags", zap.Int("count", len(tags)))
	return tags
}

// firstIntegerToken returns the first whitespace-separated all-digit token.
func firstIntegerToken(text string) (int, bool) {
	for _, token := range strings.Fields(text) {
		n, err := strconv.Atoi(token)
		if err == nil && n >= 0 {
			return n, true
		}
	}
	return 0, false
}
