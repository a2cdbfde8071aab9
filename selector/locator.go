package selector

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/poiesic/conceptrag/ai"
)

// weatherPatterns capture the place in weather questions. Patterns are tried
// in order against the lower-cased query.
var weatherPatterns = []*regexp.Regexp{
	regexp.MustCompile(`weather.*?\b(?:in|for|at)\s+(\p{L}[\p{L}\s'-]*)`),
	regexp.MustCompile(`temperature.*?\b(?:in|for|at)\s+(\p{L}[\p{L}\s'-]*)`),
	regexp.MustCompile(`forecast.*?\b(?:in|for|at)\s+(\p{L}[\p{L}\s'-]*)`),
	regexp.MustCompile(`(?:rain|raining|sunny|cloudy|windy|snowing|cold|hot)\s+(?:in|at)\s+(\p{L}[\p{L}\s'-]*)`),
	regexp.MustCompile(`\b(?:in|at)\s+(\p{L}[\p{L}\s'-]*?)\s+(?:weather|forecast|temperature)\b`),
}

// trailingNoise is stripped from the end of a captured place.
var trailingNoise = []string{
	"right now", "this week", "this weekend", "this morning", "this afternoon", "this evening",
	"today", "tomorrow", "tonight", "now", "currently", "like", "please",
}

// PatternLocator extracts locations with regular expressions. It is the
// default ai.LocationExtractor of the selector and never returns an error.
type PatternLocator struct{}

var _ ai.LocationExtractor = (*PatternLocator)(nil)

// NewPatternLocator creates a PatternLocator.
func NewPatternLocator() *PatternLocator {
	return &PatternLocator{}
}

// ExtractLocation returns the title-cased place named in a weather question.
func (p *PatternLocator) ExtractLocation(_ context.Context, text string) (string, bool, error) {
	lower := strings.ToLower(text)
	for _, re := range weatherPatterns {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		place := cleanPlace(m[1])
		if len([]rune(place)) > 1 {
			// Casers are stateful and must not be shared between goroutines.
			return cases.Title(language.Und).String(place), true, nil
		}
	}
	return "", false, nil
}

func cleanPlace(place string) string {
	place = strings.Join(strings.Fields(place), " ")
	place = strings.Trim(place, "'-")
	for changed := true; changed; {
		changed = false
		for _, noise := range trailingNoise {
			if place == noise {
				return ""
			}
			if trimmed, ok := strings.CutSuffix(place, " "+noise); ok {
				place, changed = trimmed, true
			}
		}
	}
	if cut, _, ok := strings.Cut(place, " and "); ok {
		place = cut
	}
	place = strings.TrimPrefix(place, "the ")
	return strings.TrimSpace(place)
}
