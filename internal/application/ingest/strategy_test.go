package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategySet(t *testing.T) {
	set := NewStrategySet(map[string][]string{
		"technology": {"https://example.com/tech.xml"},
		"world":      {"https://example.com/world.xml", "https://example.org/world.xml"},
		"empty":      {},
	})

	t.Run("known category", func(t *testing.T) {
		s, err := set.Get("world")
		require.NoError(t, err)
		assert.Equal(t, "world", s.Category)
		assert.Len(t, s.FeedURLs, 2)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := set.Get("sports")
		assert.Error(t, err)
	})

	t.Run("empty feed list dropped", func(t *testing.T) {
		_, err := set.Get("empty")
		assert.Error(t, err)
	})

	t.Run("categories sorted", func(t *testing.T) {
		assert.Equal(t, []string{"technology", "world"}, set.Categories())
	})
}
