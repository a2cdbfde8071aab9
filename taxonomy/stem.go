package taxonomy

import "github.com/kljensen/snowball/english"

// Stem reduces a case-folded token to its Porter2 (English snowball) stem.
// Stop words are returned unchanged.
func Stem(token string) string {
	return english.Stem(token, false)
}
