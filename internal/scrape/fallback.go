package scrape

import (
	"context"

	"github.com/campusmetrics/profscraper/internal/cleaner"
)

// elementText reads and cleans an element's text, swallowing read errors.
// Stale nodes are common enough mid-pagination that a failed read is treated
// as empty text rather than a fault.
func elementText(ctx context.Context, el Element) string {
	raw, err := el.Text(ctx)
	if err != nil {
		return ""
	}
	return cleaner.CleanText(raw)
}

// firstText walks a fallback chain and returns the first candidate whose
// element yields non-empty cleaned text.
func firstText(ctx context.Context, root Finder, chain []Locator) (string, bool) {
	for _, loc := range chain {
		el, err := root.Find(ctx, loc)
		if err != nil {
			continue
		}
		if text := elementText(ctx, el); text != "" {
			return text, true
		}
	}
	return "", false
}

// firstNumber walks a fallback chain and returns the first candidate whose
// element text parses as a number.
func firstNumber(ctx context.Context, root Finder, chain []Locator) (float64, bool) {
	for _, loc := range chain {
		el, err := root.Find(ctx, loc)
		if err != nil {
			continue
		}
		raw, err := el.Text(ctx)
		if err != nil {
			continue
		}
		if n, ok := cleaner.ParseNumber(raw); ok {
			return n, true
		}
	}
	return 0, false
}

// firstElements walks a fallback chain and returns the elements of the first
// candidate that matches anything. The chain is resolved once, globally for
// the given root.
func firstElements(ctx context.Context, root Finder, chain []Locator) ([]Element, bool) {
	for _, loc := range chain {
		els, err := root.FindAll(ctx, loc)
		if err != nil || len(els) == 0 {
			continue
		}
		return els, true
	}
	return nil, false
}

// dedupeTags extracts cleaned text per tag element, suppressing duplicates
// while preserving encounter order.
func dedupeTags(ctx context.Context, els []Element) []string {
	tags := make([]string, 0, len(els))
	seen := make(map[string]struct{}, len(els))
	for _, el := range els {
		text := elementText(ctx, el)
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		tags = append(tags, text)
	}
	return tags
}
