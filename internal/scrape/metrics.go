package scrape

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// professorsScrapedTotal counts professors successfully assembled and validated.
	professorsScrapedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "profscraper_professors_scraped_total",
		Help: "The total number of professors successfully scraped.",
	})
	// professorsFailedTotal counts professors skipped because of per-item failures.
	professorsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "profscraper_professors_failed_total",
		Help: "The total number of professors skipped due to errors.",
	})
	// reviewsCollectedTotal counts reviews extracted across all professors.
	reviewsCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "profscraper_reviews_collected_total",
		Help: "The total number of reviews collected.",
	})
	// retriesTotal counts attempts consumed by the retry policy beyond the first.
	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "profscraper_retries_total",
		Help: "The total number of failed attempts handled by the retry policy.",
	})
	// paginationClicksTotal counts successful load-more activations.
	paginationClicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "profscraper_pagination_clicks_total",
		Help: "The total number of load-more control activations.",
	})
	// professorScrapeSeconds observes wall time per professor detail scrape.
	professorScrapeSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "profscraper_professor_scrape_seconds",
		Help:    "Wall-clock seconds spent scraping one professor page.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)
