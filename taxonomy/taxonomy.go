package taxonomy

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/conceptrag/core"
)

// Match strengths by kind of match between a stem and a trigger term.
const (
	StrengthExact     = 1.0
	StrengthStem      = 0.85
	StrengthSubstring = 0.6
)

// minSubstringRunes is the shortest stem (on both sides) eligible for substring matching.
const minSubstringRunes = 4

// Definition describes one taxonomy category.
type Definition struct {
	Category core.Category
	Prior    float64  // Weight prior applied to concepts of this category
	Terms    []string // Trigger terms, already case-folded
}

// Match is one category claiming a stem through a trigger term.
type Match struct {
	Category core.Category
	Term     string
	Strength float64
}

type trigger struct {
	term     string
	stem     string
	category core.Category
}

// Taxonomy is an immutable category table. It is safe for concurrent use.
type Taxonomy struct {
	defs       map[core.Category]Definition
	triggers   []trigger
	byStem     map[string][]int // stem -> indexes into triggers
	importance map[string]float64
	related    map[[2]core.Category]struct{}
}

var defaultTaxonomy = build(defaultDefinitions, defaultImportance)

// Default returns the shared built-in taxonomy.
func Default() *Taxonomy { return defaultTaxonomy }

// New builds a taxonomy from custom definitions and term importance.
// Terms are folded to lower case; importance keys are matched by stem.
func New(defs []Definition, importance map[string]float64) *Taxonomy {
	return build(defs, importance)
}

func build(defs []Definition, importance map[string]float64) *Taxonomy {
	t := &Taxonomy{
		defs:       make(map[core.Category]Definition, len(defs)),
		byStem:     make(map[string][]int),
		importance: make(map[string]float64, len(importance)),
		related:    make(map[[2]core.Category]struct{}),
	}
	for _, def := range defs {
		terms := make([]string, len(def.Terms))
		for i, term := range def.Terms {
			term = strings.ToLower(strings.TrimSpace(term))
			terms[i] = term
			tr := trigger{term: term, stem: Stem(term), category: def.Category}
			t.byStem[tr.stem] = append(t.byStem[tr.stem], len(t.triggers))
			t.triggers = append(t.triggers, tr)
		}
		def.Terms = terms
		t.defs[def.Category] = def
	}
	for term, w := range importance {
		t.importance[Stem(strings.ToLower(term))] = w
	}
	// Categories sharing a trigger stem are related.
	for _, idxs := range t.byStem {
		for _, i := range idxs {
			for _, j := range idxs {
				a, b := t.triggers[i].category, t.triggers[j].category
				if a != b {
					t.related[[2]core.Category{a, b}] = struct{}{}
				}
			}
		}
	}
	return t
}

// Categories returns every taxonomy category, general included, in enum order.
func (t *Taxonomy) Categories() []core.Category { return core.Categories() }

// Definition returns the definition of c. General has no trigger terms.
func (t *Taxonomy) Definition(c core.Category) (Definition, bool) {
	def, ok := t.defs[c]
	return def, ok
}

// Prior returns the weight prior of c, 1.0 when the category has none.
func (t *Taxonomy) Prior(c core.Category) float64 {
	if def, ok := t.defs[c]; ok && def.Prior > 0 {
		return def.Prior
	}
	return 1.0
}

// Importance returns the importance multiplier of a stem, 1.0 by default.
func (t *Taxonomy) Importance(stem string) float64 {
	if w, ok := t.importance[stem]; ok {
		return w
	}
	return 1.0
}

// Match returns every category claiming stem, strongest match per category,
// ordered by strength then category.
func (t *Taxonomy) Match(stem string) []Match {
	if stem == "" {
		return nil
	}
	best := make(map[core.Category]Match)
	consider := func(m Match) {
		if cur, ok := best[m.Category]; !ok || m.Strength > cur.Strength {
			best[m.Category] = m
		}
	}

	for _, i := range t.byStem[stem] {
		tr := t.triggers[i]
		strength := StrengthStem
		if tr.term == stem {
			strength = StrengthExact
		}
		consider(Match{Category: tr.category, Term: tr.term, Strength: strength})
	}

	if utf8.RuneCountInString(stem) >= minSubstringRunes {
		for _, tr := range t.triggers {
			if tr.stem == stem || utf8.RuneCountInString(tr.stem) < minSubstringRunes {
				continue
			}
			if strings.Contains(stem, tr.stem) || strings.Contains(tr.stem, stem) {
				consider(Match{Category: tr.category, Term: tr.term, Strength: StrengthSubstring})
			}
		}
	}

	if len(best) == 0 {
		return nil
	}
	out := make([]Match, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Strength != out[j].Strength {
			return out[i].Strength > out[j].Strength
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Related reports whether two distinct categories share a trigger term,
// like business and time through "schedule".
func (t *Taxonomy) Related(a, b core.Category) bool {
	_, ok := t.related[[2]core.Category{a, b}]
	return ok
}

// IsTrigger reports whether any category claims stem.
func (t *Taxonomy) IsTrigger(stem string) bool {
	if _, ok := t.byStem[stem]; ok {
		return true
	}
	return len(t.Match(stem)) > 0
}
