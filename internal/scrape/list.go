package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campusmetrics/profscraper/internal/cleaner"
	"github.com/campusmetrics/profscraper/internal/model"
)

// Listing-page locators. Chains are ordered by how recently the layout
// revision was observed in the wild.
var (
	listShowMoreControls = []Locator{
		XPath("//button[contains(., 'Show More')]"),
		XPath("//button[contains(@class, 'PaginationButton') and contains(., 'Show')]"),
	}
	listCardLocator     = CSS("a[class^='TeacherCard__StyledTeacherCard']")
	listCardName        = []Locator{CSS("div[class*='CardName']")}
	listCardSchool      = []Locator{CSS("div[class*='CardSchool']")}
	listCardQuality     = []Locator{CSS("div[class*='CardNumRating__CardNumRatingNumber']"), CSS("div[class*='CardNumRating']")}
	listCardRatingCount = []Locator{CSS("div[class*='CardNumRating__CardNumRatingCount']"), CSS("div[class*='CardNumRating'] + div")}
	listCardFeedback    = CSS("div[class*='CardFeedback']")
)

// ListConfig parameterizes the listing stage.
type ListConfig struct {
	// URL of the paginated listing page.
	URL string
	// UniversityDefault fills the university field when the card's school
	// line has no "/" separated second part.
	UniversityDefault string
	// SettleDelay follows each load-more activation.
	SettleDelay time.Duration
}

// ListScraper produces the complete ordered sequence of professor summaries
// from the listing page.
type ListScraper struct {
	session Session
	cfg     ListConfig
	retry   *Retryer
	pager   *paginator
	logger  *zap.Logger
}

// NewListScraper wires a listing stage over an open session.
func NewListScraper(session Session, cfg ListConfig, retry *Retryer, logger *zap.Logger) *ListScraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	pager := newPaginator(paginatorConfig{
		controls: listShowMoreControls,
		// No hard ceiling here: termination is driven entirely by control
		// presence. A single activation failure ends the loop early with a
		// partial result instead of retrying indefinitely.
		maxConsecutiveFailures: 1,
		settleDelay:            cfg.SettleDelay,
	}, logger)
	return &ListScraper{
		session: session,
		cfg:     cfg,
		retry:   retry,
		pager:   pager,
		logger:  logger,
	}
}

// Run navigates to the listing, exhausts pagination, and extracts one
// validated summary per card. Navigation failure is fatal to the whole run;
// everything after that degrades per card.
func (s *ListScraper) Run(ctx context.Context) ([]model.ProfessorSummary, error) {
	err := s.retry.Do(ctx, "navigate to listing page", func(ctx context.Context) error {
		return s.session.Navigate(ctx, s.cfg.URL)
	})
	if err != nil {
		return nil, fmt.Errorf("navigate to listing %s: %w", s.cfg.URL, err)
	}
	s.logger.Info("listing page loaded", zap.String("url", s.cfg.URL))

	result := s.pager.run(ctx, s.session)
	s.logger.Info("listing pagination finished",
		zap.Int("activations", result.activations),
		zap.String("state", result.state.String()))

	cards, err := s.session.FindAll(ctx, listCardLocator)
	if err != nil {
		return nil, fmt.Errorf("locate professor cards: %w", err)
	}
	s.logger.Info("professor cards located", zap.Int("count", len(cards)))

	summaries := make([]model.ProfessorSummary, 0, len(cards))
	for i, card := range cards {
		summary, err := s.extractCard(ctx, card)
		if err != nil {
			s.logger.Warn("skipping unparseable card",
				zap.Int("card", i+1),
				zap.Error(err))
			continue
		}
		summaries = append(summaries, summary)
	}
	s.logger.Info("listing extraction complete",
		zap.Int("extracted", len(summaries)),
		zap.Int("cards", len(cards)))
	return summaries, nil
}

// extractCard pulls one summary out of a single card element. Each field is
// extracted independently; a failed validation counts as a card failure.
func (s *ListScraper) extractCard(ctx context.Context, card Element) (model.ProfessorSummary, error) {
	pageURL, err := card.Attribute(ctx, "href")
	if err != nil || pageURL == "" {
		return model.ProfessorSummary{}, fmt.Errorf("card has no detail-page link: %w", err)
	}

	name, ok := firstText(ctx, card, listCardName)
	if !ok {
		return model.ProfessorSummary{}, fmt.Errorf("card has no name element")
	}

	department, university := s.splitSchool(ctx, card)

	quality := 0.0
	if n, ok := firstNumber(ctx, card, listCardQuality); ok {
		quality = n
	}

	numRatings := 0
	if raw, ok := firstText(ctx, card, listCardRatingCount); ok {
		token := strings.Fields(raw)
		if len(token) > 0 {
			if n, ok := cleaner.ParseNumber(token[0]); ok {
				numRatings = int(n)
			}
		}
	}

	difficulty, wouldTakeAgain := s.scanFeedback(ctx, card)

	summary := model.ProfessorSummary{
		ProfessorName:     name,
		Department:        department,
		University:        university,
		NumRatings:        numRatings,
		AvgQuality:        quality,
		AvgDifficulty:     difficulty,
		WouldTakeAgainPct: wouldTakeAgain,
		ProfessorPageURL:  pageURL,
	}
	if err := summary.Validate(); err != nil {
		return model.ProfessorSummary{}, fmt.Errorf("card failed validation: %w", err)
	}
	return summary, nil
}

// splitSchool separates "Department / University" on the slash, falling back
// to defaults when the split yields fewer than two parts.
func (s *ListScraper) splitSchool(ctx context.Context, card Element) (string, string) {
	department := "Unknown"
	university := s.cfg.UniversityDefault

	raw, ok := firstText(ctx, card, listCardSchool)
	if !ok {
		return department, university
	}
	parts := strings.Split(raw, "/")
	if len(parts) > 0 {
		if d := cleaner.CleanText(parts[0]); d != "" {
			department = d
		}
	}
	if len(parts) > 1 {
		if u := cleaner.CleanText(parts[1]); u != "" {
			university = u
		}
	}
	return department, university
}

// scanFeedback walks the card's feedback sub-elements looking for keyword
// matches instead of fixed indices; the layout order is not stable.
func (s *ListScraper) scanFeedback(ctx context.Context, card Element) (float64, *int) {
	difficulty := 0.0
	var wouldTakeAgain *int

	feedback, err := card.FindAll(ctx, listCardFeedback)
	if err != nil {
		return difficulty, wouldTakeAgain
	}
	for _, item := range feedback {
		raw, err := item.Text(ctx)
		if err != nil {
			continue
		}
		text := strings.ToLower(raw)
		switch {
		case strings.Contains(text, "difficulty"):
			fields := strings.Fields(raw)
			if len(fields) > 0 {
				if n, ok := cleaner.ParseNumber(fields[0]); ok {
					difficulty = n
				}
			}
		case strings.Contains(text, "would take again"):
			if pct, ok := cleaner.ParsePercentage(raw); ok {
				wouldTakeAgain = &pct
			}
		}
	}
	return difficulty, wouldTakeAgain
}
