package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	x := NewExtractor(0, 0) // 默认 20 / 300

	t.Run("picks sentence with most query tokens", func(t *testing.T) {
		doc := "The weather was mild today. Apple unveiled its new silicon chip lineup at the event. Stocks were flat."
		got := x.Extract(doc, "some description", "Apple silicon chip")
		assert.Equal(t, "Apple unveiled its new silicon chip lineup at the event.", got)
	})

	t.Run("tie keeps first occurrence", func(t *testing.T) {
		doc := "Apple announced something big this spring. Later that year Apple announced another thing."
		got := x.Extract(doc, "", "what did Apple announce")
		assert.Equal(t, "Apple announced something big this spring.", got)
	})

	t.Run("short sentences are skipped", func(t *testing.T) {
		doc := "Apple wins. The quarterly earnings report from Apple exceeded analyst expectations."
		got := x.Extract(doc, "", "Apple earnings")
		assert.Equal(t, "The quarterly earnings report from Apple exceeded analyst expectations.", got)
	})

	t.Run("case insensitive matching", func(t *testing.T) {
		doc := "THE CENTRAL BANK RAISED INTEREST RATES ON THURSDAY. Nothing else happened."
		got := x.Extract(doc, "", "interest rates")
		assert.Equal(t, "THE CENTRAL BANK RAISED INTEREST RATES ON THURSDAY.", got)
	})

	t.Run("falls back to description when no match", func(t *testing.T) {
		doc := "Completely unrelated sentence about gardening and flowers."
		got := x.Extract(doc, "A summary of the article", "quantum computing")
		assert.Equal(t, "A summary of the article", got)
	})

	t.Run("falls back to truncated text without description", func(t *testing.T) {
		doc := strings.Repeat("unrelated words here ", 50)
		got := x.Extract(doc, "", "quantum computing")
		assert.LessOrEqual(t, len([]rune(got)), 300)
		assert.True(t, strings.HasPrefix(got, "unrelated words here"))
	})

	t.Run("short query tokens ignored", func(t *testing.T) {
		// 长度 <=2 的词不参与计分
		doc := "It is an odd day in the markets according to traders everywhere."
		got := x.Extract(doc, "fallback description", "is it an")
		assert.Equal(t, "fallback description", got)
	})
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First one. Second one! Third one? Trailing fragment")
	assert.Equal(t, []string{"First one.", "Second one!", "Third one?", "Trailing fragment"}, got)

	assert.Empty(t, splitSentences(""))
}

func TestQueryTokens(t *testing.T) {
	got := queryTokens("What did Apple announce?")
	assert.Equal(t, []string{"what", "did", "apple", "announce"}, got)

	// 标点剥除与短词过滤
	got = queryTokens("Is AI \"hot\" now?")
	assert.Equal(t, []string{"hot", "now"}, got)
}
