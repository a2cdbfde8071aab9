package reconstruct

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenEstimator approximates the number of model tokens in text.
type TokenEstimator func(text string) int

// CharEstimator assumes four characters per token.
func CharEstimator(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// TiktokenEstimator counts tokens with a tiktoken encoding such as
// "cl100k_base". The encoding tables are loaded once, here.
func TiktokenEstimator(encoding string) (TokenEstimator, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("loading tiktoken encoding %q: %w", encoding, err)
	}
	return func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}, nil
}
