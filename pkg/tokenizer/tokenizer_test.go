package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilTokenizerEstimates(t *testing.T) {
	var tok *Tokenizer

	assert.Equal(t, 0, tok.CountTokens(""))
	assert.Equal(t, 1, tok.CountTokens("abc"))
	assert.Equal(t, 3, tok.CountTokens(strings.Repeat("x", 12)))

	out, cut := tok.Truncate(strings.Repeat("x", 100), 10)
	assert.True(t, cut)
	assert.Len(t, out, 40)

	out, cut = tok.Truncate("short", 10)
	assert.False(t, cut)
	assert.Equal(t, "short", out)
}

func TestTruncateWithoutBudget(t *testing.T) {
	var tok *Tokenizer
	out, cut := tok.Truncate("anything", 0)
	assert.False(t, cut)
	assert.Equal(t, "anything", out)
}

func TestEncoding(t *testing.T) {
	tok, err := New()
	if err != nil {
		t.Skipf("encoding unavailable (offline?): %v", err)
	}

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 50)
	total := tok.CountTokens(text)
	assert.Greater(t, total, 100)

	out, cut := tok.Truncate(text, 20)
	assert.True(t, cut)
	assert.LessOrEqual(t, tok.CountTokens(out), 20)
	assert.True(t, strings.HasPrefix(text, out))
}
