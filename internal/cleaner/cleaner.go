// Package cleaner normalizes raw text and numeric tokens scraped from
// rendered pages. Every function is a pure transformation and never panics.
package cleaner

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	markupTags    = regexp.MustCompile(`<[^>]+>`)
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonASCII      = regexp.MustCompile(`[^\x00-\x7F]+`)
	numericKeep   = regexp.MustCompile(`[^\d.\-]`)
	percentToken  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%?`)
)

// Placeholder tokens that pages render when a value is unavailable.
var placeholders = map[string]struct{}{
	"N/A":  {},
	"NA":   {},
	"NONE": {},
	"--":   {},
	"":     {},
}

var trueTokens = map[string]struct{}{
	"true": {}, "yes": {}, "y": {}, "1": {}, "on": {}, "enabled": {},
}

// CleanText strips markup tags, collapses whitespace runs to a single space,
// drops non-ASCII code points, and trims both ends. Applying it twice is the
// same as applying it once.
func CleanText(raw string) string {
	if raw == "" {
		return ""
	}
	s := markupTags.ReplaceAllString(raw, "")
	s = nonASCII.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ParseNumber extracts a float from a noisy token such as "4.5 / 5" or
// "1,234 ratings". It reports false for placeholder tokens and anything that
// does not convert. Negative values pass through; callers range-check.
func ParseNumber(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if _, ok := placeholders[strings.ToUpper(trimmed)]; ok {
		return 0, false
	}
	stripped := numericKeep.ReplaceAllString(trimmed, "")
	if stripped == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParsePercentage extracts the first numeric token, optionally followed by a
// percent sign, and rounds it to the nearest integer. Values outside [0,100]
// report false even when syntactically well formed.
func ParsePercentage(raw string) (int, bool) {
	trimmed := strings.TrimSpace(raw)
	if _, ok := placeholders[strings.ToUpper(trimmed)]; ok {
		return 0, false
	}
	m := percentToken.FindStringSubmatch(trimmed)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	if f < 0 || f > 100 {
		return 0, false
	}
	return int(math.Round(f)), true
}

// ParseBool maps fixed affirmative tokens to true. Everything else, including
// unrecognized input, is false.
func ParseBool(raw string) bool {
	_, ok := trueTokens[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}
