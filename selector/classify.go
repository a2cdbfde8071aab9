package selector

import (
	"regexp"

	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/extract"
)

var quotedPhrase = regexp.MustCompile(`["“][^"”]+["”]`)

var conjunctions = map[string]bool{"and": true, "or": true, "but": true, "versus": true, "vs": true}

// Classify assigns a coarse query type. It is informational: the rule chain
// does not depend on it.
func Classify(text string, concepts []core.Concept) core.QueryType {
	words := extract.Words(text)

	hasDomain := false
	categories := make(map[core.Category]struct{})
	for _, c := range concepts {
		if c.Category != core.CategoryGeneral {
			hasDomain = true
			categories[c.Category] = struct{}{}
		}
	}

	if len(concepts) == 0 {
		return core.QueryTypeGreeting
	}
	if _, ok := matchGreeting(words); ok && !hasDomain {
		return core.QueryTypeGreeting
	}
	if quotedPhrase.MatchString(text) {
		return core.QueryTypeExactMatch
	}
	if len(categories) >= 2 || (len(words) >= 12 && hasConjunction(words)) {
		return core.QueryTypeComplex
	}
	if hasDomain {
		return core.QueryTypeConceptBased
	}
	if len(words) >= 3 {
		return core.QueryTypeSemantic
	}
	return core.QueryTypeAmbiguous
}

func hasConjunction(words []string) bool {
	for _, w := range words {
		if conjunctions[w] {
			return true
		}
	}
	return false
}
