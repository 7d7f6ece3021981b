package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text unchanged",
			input: "Apple announced new chips today",
			want:  "Apple announced new chips today",
		},
		{
			name:  "strips html tags",
			input: "<p>Apple announced <b>new chips</b> today</p>",
			want:  "Apple announced new chips today",
		},
		{
			name:  "decodes html entities",
			input: "Profits &amp; losses up 5%",
			want:  "Profits & losses up 5%",
		},
		{
			name:  "collapses whitespace",
			input: "  multiple   spaces\t\tand\n\nnewlines  ",
			want:  "multiple spaces and newlines",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "whitespace only",
			input: "   \n\t  ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"<div>Central bank &amp; markets</div>",
		"  plain   text   with   gaps  ",
		"Already normalized text",
		"Analysts said &lt;b&gt;Apple&lt;/b&gt; beat expectations",
		"&amp;lt;p&amp;gt;doubly encoded markup&amp;lt;/p&amp;gt;",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "normalizing twice must equal normalizing once: %q", in)
	}
}

func TestNormalizeStripsEntityEncodedTags(t *testing.T) {
	got := Normalize("Analysts said &lt;b&gt;Apple&lt;/b&gt; beat expectations")
	assert.Equal(t, "Analysts said Apple beat expectations", got)
	assert.NotContains(t, got, "<")
}

func TestNormalizeWithLimitTruncates(t *testing.T) {
	long := strings.Repeat("a", 100)
	got := NormalizeWithLimit(long, 10)
	assert.Equal(t, 10, len([]rune(got)))

	// 默认上限 8000
	veryLong := strings.Repeat("x", 9000)
	assert.Equal(t, DefaultMaxInputRunes, len([]rune(Normalize(veryLong))))
}

func TestNormalizeWithLimitNoTruncation(t *testing.T) {
	got := NormalizeWithLimit("short text", 0)
	assert.Equal(t, "short text", got)
}
