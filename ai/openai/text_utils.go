package openai

import "strings"

// scrubString removes punctuation and trims whitespace from text.
// Hyphens and apostrophes are kept because they occur in place names.
func scrubString(s string) string {
	// Remove common punctuation
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(".,!?;:\"()[]{}—–", r) {
			return -1
		}
		return r
	}, s)
	// Trim leading and trailing whitespace
	return strings.TrimSpace(s)
}
