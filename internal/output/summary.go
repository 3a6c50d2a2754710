package output

import (
	"math"

	"go.uber.org/zap"

	"github.com/campusmetrics/profscraper/internal/model"
)

// Summary is the run-level report persisted next to the scraped data.
type Summary struct {
	TotalProfessorsScraped     int            `json:"total_professors_scraped"`
	TotalReviewsCollected      int            `json:"total_reviews_collected"`
	AverageReviewsPerProfessor float64        `json:"average_reviews_per_professor"`
	Departments                map[string]int `json:"departments"`
	ErrorsEncountered          int            `json:"errors_encountered"`
	ProfessorsSkipped          int            `json:"professors_skipped"`
	ErrorList                  []string       `json:"error_list"`
	SkippedList                []string       `json:"skipped_list"`
}

// BuildSummary derives the report from the run's accumulated results. The
// average is rounded to two decimals.
func BuildSummary(professors []model.Professor, errorList, skippedList []string) Summary {
	totalReviews := 0
	departments := map[string]int{}
	for _, p := range professors {
		totalReviews += len(p.Reviews)
		departments[p.Department]++
	}

	average := 0.0
	if len(professors) > 0 {
		average = math.Round(float64(totalReviews)/float64(len(professors))*100) / 100
	}
	if errorList == nil {
		errorList = []string{}
	}
	if skippedList == nil {
		skippedList = []string{}
	}

	return Summary{
		TotalProfessorsScraped:     len(professors),
		TotalReviewsCollected:      totalReviews,
		AverageReviewsPerProfessor: average,
		Departments:                departments,
		ErrorsEncountered:          len(errorList),
		ProfessorsSkipped:          len(skippedList),
		ErrorList:                  errorList,
		SkippedList:                skippedList,
	}
}

// SaveSummary writes the report to path.
func (w *Writer) SaveSummary(summary Summary, path string) error {
	if err := writeJSON(path, summary); err != nil {
		return err
	}
	w.logger.Info("wrote run summary", zap.String("file", path))
	return nil
}

// LogSummary emits the human-readable version of the report. Long error and
// skip lists are truncated to the first ten entries.
func (w *Writer) LogSummary(summary Summary) {
	w.logger.Info("scraping summary",
		zap.Int("total_professors_scraped", summary.TotalProfessorsScraped),
		zap.Int("total_reviews_collected", summary.TotalReviewsCollected),
		zap.Float64("average_reviews_per_professor", summary.AverageReviewsPerProfessor),
		zap.Int("errors_encountered", summary.ErrorsEncountered),
		zap.Int("professors_skipped", summary.ProfessorsSkipped),
	)
	if len(summary.Departments) > 0 {
		w.logger.Info("professors by department", zap.Any("departments", summary.Departments))
	}
	if len(summary.ErrorList) > 0 {
		w.logger.Warn("errors encountered", zap.Strings("errors", truncate(summary.ErrorList, 10)))
	}
	if len(summary.SkippedList) > 0 {
		w.logger.Warn("professors skipped", zap.Strings("skipped", truncate(summary.SkippedList, 10)))
	}
}

func truncate(list []string, max int) []string {
	if len(list) <= max {
		return list
	}
	return list[:max]
}
