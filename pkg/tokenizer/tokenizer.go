// Package tokenizer counts and trims text by model tokens so large page
// content can be kept inside a caller's budget.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Encoding is the tiktoken encoding used for counting.
const Encoding = "cl100k_base"

// Tokenizer counts tokens. A nil *Tokenizer, or one whose encoding failed to
// load, estimates four characters per token.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New loads the encoding. The encoding data may need to be downloaded on
// first use; callers usually keep going with a nil tokenizer on error.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", Encoding, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// CountTokens returns the number of tokens in text.
func (t *Tokenizer) CountTokens(text string) int {
	if t == nil || t.enc == nil {
		return estimate(text)
	}
	return len(t.enc.EncodeOrdinary(text))
}

// Truncate cuts text to at most maxTokens tokens. It reports whether
// anything was removed. A non-positive budget leaves text untouched.
func (t *Tokenizer) Truncate(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 {
		return text, false
	}
	if t == nil || t.enc == nil {
		runes := []rune(text)
		if len(runes) <= maxTokens*4 {
			return text, false
		}
		return string(runes[:maxTokens*4]), true
	}

	tokens := t.enc.EncodeOrdinary(text)
	if len(tokens) <= maxTokens {
		return text, false
	}
	return t.enc.Decode(tokens[:maxTokens]), true
}

func estimate(text string) int {
	n := len([]rune(text))
	return (n + 3) / 4
}
