// Package tokens estimates token costs for loaded content.
package tokens

// DefaultCharsPerToken is the rough chars-per-token ratio used when no
// tokenizer is configured.
const DefaultCharsPerToken = 4

// Counter estimates the token cost of text.
type Counter interface {
	Count(text string) int
}

// CharCounter estimates tokens by characters per token.
type CharCounter struct {
	CharsPerToken int
}

// Count implements Counter. Partial tokens round up, so any non-empty
// text costs at least one token.
func (c CharCounter) Count(text string) int {
	per := c.CharsPerToken
	if per <= 0 {
		per = DefaultCharsPerToken
	}
	if text == "" {
		return 0
	}
	return (len(text) + per - 1) / per
}

// Default returns the estimator used when callers do not supply one.
func Default() Counter {
	return CharCounter{CharsPerToken: DefaultCharsPerToken}
}

// Sum adds the estimates for every text.
func Sum(c Counter, texts ...string) int {
	if c == nil {
		c = Default()
	}
	total := 0
	for _, t := range texts {
		total += c.Count(t)
	}
	return total
}
