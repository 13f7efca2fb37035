package refdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedData(t *testing.T) {
	catalog, err := Load()
	require.NoError(t, err)

	all := catalog.FactionNames(nil)
	assert.Len(t, all, 46)
	assert.Contains(t, all, "The Federation of Sol")

	base := catalog.FactionNames([]string{"base"})
	assert.Len(t, base, 17)

	pok := catalog.FactionNames([]string{"pok"})
	assert.Len(t, pok, 7)

	both := catalog.FactionNames([]string{"base", "pok"})
	assert.Len(t, both, 24)

	cards := catalog.StrategyCards()
	require.Len(t, cards, 8)
	assert.Equal(t, "Leadership", cards[0].Name)
	assert.Equal(t, 1, cards[0].Initiative)
	assert.Equal(t, "Imperial", cards[7].Name)
	assert.Equal(t, 8, cards[7].Initiative)
}

func TestRandomFactionNames(t *testing.T) {
	catalog, err := Load()
	require.NoError(t, err)

	names := catalog.RandomFactionNames(5, []string{"base"})
	require.Len(t, names, 5)

	base := make(map[string]struct{})
	for _, n := range catalog.FactionNames([]string{"base"}) {
		base[n] = struct{}{}
	}
	for _, n := range names {
		_, ok := base[n]
		assert.Truef(t, ok, "%s is not a base game faction", n)
	}

	// Asking for more than the pool holds returns the whole pool.
	all := catalog.RandomFactionNames(100, []string{"pok"})
	assert.Len(t, all, 7)
}
