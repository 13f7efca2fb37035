package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClosestMatch(t *testing.T) {
	candidates := []string{"The Federation of Sol", "The Arborec", "The Nekro Virus"}

	best, ok := ClosestMatch("Federation of Sol", candidates)
	assert.True(t, ok)
	assert.Equal(t, "The Federation of Sol", best)

	best, ok = ClosestMatch("Nekro", candidates)
	assert.True(t, ok)
	assert.Equal(t, "The Nekro Virus", best)

	_, ok = ClosestMatch("qqqqqqqqqqqqqqqqqqqqqqqq", candidates)
	assert.False(t, ok)

	_, ok = ClosestMatch("anything", nil)
	assert.False(t, ok)
}

func TestParseInts(t *testing.T) {
	assert.Equal(t, []int{10, 5, 7}, ParseInts("10 5 7"))
	assert.Equal(t, []int{10, 5, 7}, ParseInts("10, 5 and 7"))
	assert.Equal(t, []int{-2, 3}, ParseInts("finish -2 3"))
	assert.Nil(t, ParseInts("no numbers here"))
}

func TestSourceShortforms(t *testing.T) {
	sources := []string{"Base Game", "Prophecy of Kings", "Discordant Stars", "Codex"}
	m := SourceShortforms(sources)

	assert.Equal(t, "Base Game", m["bg"])
	assert.Equal(t, "Base Game", m["base"])
	assert.Equal(t, "Prophecy of Kings", m["pok"])
	assert.Equal(t, "Prophecy of Kings", m["PoK"])
	assert.Equal(t, "Discordant Stars", m["ds"])
	assert.Equal(t, "Codex", m["codex"])

	// Full names always map to themselves.
	for _, s := range sources {
		assert.Equal(t, s, m[s])
	}
}
