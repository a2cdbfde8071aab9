package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/poiesic/conceptrag/taxonomy"
)

// Normalize case-folds text and strips diacritics.
func Normalize(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), cases.Fold(), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return strings.ToLower(text)
	}
	return out
}

// Words splits normalized text into words on anything that is not a letter or digit.
// Stop words are kept.
func Words(text string) []string {
	return strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Stems returns the stems of the content words of text, in order.
// Stop words, pure numbers and single characters are dropped.
func Stems(text string) []string {
	words := Words(text)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if !isContentWord(w) {
			continue
		}
		out = append(out, taxonomy.Stem(w))
	}
	return out
}

// Terms returns the distinct stems of text, in order of first appearance.
func Terms(text string) []string {
	stems := Stems(text)
	seen := make(map[string]struct{}, len(stems))
	out := make([]string, 0, len(stems))
	for _, s := range stems {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func isContentWord(w string) bool {
	if len([]rune(w)) < 2 || stopWords[w] {
		return false
	}
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "if": true, "so": true, "no": true,
	"what": true, "which": true, "who": true, "whom": true, "how": true, "why": true,
	"where": true, "there": true, "here": true, "these": true, "those": true,
	"am": true, "were": true, "been": true, "being": true, "has": true, "had": true,
	"does": true, "did": true, "can": true, "could": true, "would": true, "should": true,
	"will": true, "shall": true, "may": true, "might": true, "must": true,
	"i": true, "me": true, "my": true, "we": true, "our": true, "your": true,
	"he": true, "she": true, "they": true, "them": true, "their": true, "its": true,
	"his": true, "her": true, "us": true, "about": true, "into": true, "than": true,
	"then": true, "also": true, "any": true, "all": true, "some": true, "such": true,
	"up": true, "out": true, "over": true, "very": true, "just": true, "s": true,
	"t": true, "don": true, "let": true, "get": true, "tell": true, "please": true,
}
