// Package refdata loads the embedded faction and strategy-card catalogs
// that drafting pools are built from.
package refdata

import (
	"embed"
	"encoding/csv"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"draft-session-system/utils"
)

//go:embed data/factions.csv data/strategy_cards.csv
var dataFS embed.FS

// Faction is one pickable faction and the expansion it comes from.
type Faction struct {
	Name   string
	Source string
}

// StrategyCard is one of the eight strategy cards, ordered by initiative.
type StrategyCard struct {
	Initiative int
	Name       string
}

// Catalog is the loaded reference data plus the shortform index used to
// resolve user-facing source tokens ("base", "pok", "ds") to canonical
// source names.
type Catalog struct {
	factions   []Faction
	cards      []StrategyCard
	shortforms map[string]string
}

// Load parses the embedded catalogs. It fails hard on malformed data:
// reference data ships with the binary, so an error here is a build
// problem, not a runtime condition.
func Load() (*Catalog, error) {
	factions, err := readFactions()
	if err != nil {
		return nil, fmt.Errorf("load factions: %w", err)
	}
	cards, err := readStrategyCards()
	if err != nil {
		return nil, fmt.Errorf("load strategy cards: %w", err)
	}

	seen := make(map[string]struct{})
	var sources []string
	for _, f := range factions {
		if _, ok := seen[f.Source]; !ok {
			seen[f.Source] = struct{}{}
			sources = append(sources, f.Source)
		}
	}

	return &Catalog{
		factions:   factions,
		cards:      cards,
		shortforms: utils.SourceShortforms(sources),
	}, nil
}

func readFactions() ([]Faction, error) {
	f, err := dataFS.Open("data/factions.csv")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	var factions []Faction
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		factions = append(factions, Faction{
			Name:   strings.TrimSpace(row[0]),
			Source: strings.TrimSpace(row[1]),
		})
	}
	return factions, nil
}

func readStrategyCards() ([]StrategyCard, error) {
	f, err := dataFS.Open("data/strategy_cards.csv")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	var cards []StrategyCard
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		initiative, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad initiative: %w", i, err)
		}
		cards = append(cards, StrategyCard{
			Initiative: initiative,
			Name:       strings.TrimSpace(row[1]),
		})
	}
	return cards, nil
}

// NewCatalog builds a catalog from explicit data, for tests.
func NewCatalog(factions []Faction, cards []StrategyCard) *Catalog {
	seen := make(map[string]struct{})
	var sources []string
	for _, f := range factions {
		if _, ok := seen[f.Source]; !ok {
			seen[f.Source] = struct{}{}
			sources = append(sources, f.Source)
		}
	}
	return &Catalog{
		factions:   factions,
		cards:      cards,
		shortforms: utils.SourceShortforms(sources),
	}
}

// resolveSources maps source tokens (canonical names or shortforms) to a
// canonical source set. Unknown tokens are dropped.
func (c *Catalog) resolveSources(tokens []string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if canonical, ok := c.shortforms[t]; ok {
			out[canonical] = struct{}{}
		}
	}
	return out
}

// FactionNames returns the names of every faction from the given sources,
// in catalog order. With no tokens, every source is included.
func (c *Catalog) FactionNames(tokens []string) []string {
	var names []string
	if len(tokens) == 0 {
		for _, f := range c.factions {
			names = append(names, f.Name)
		}
		return names
	}
	sources := c.resolveSources(tokens)
	for _, f := range c.factions {
		if _, ok := sources[f.Source]; ok {
			names = append(names, f.Name)
		}
	}
	return names
}

// RandomFactionNames draws up to n distinct factions from the given
// sources, shuffled. Fewer than n are returned when the filtered pool is
// too small; the caller decides whether that is an error.
func (c *Catalog) RandomFactionNames(n int, tokens []string) []string {
	names := c.FactionNames(tokens)
	rand.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})
	if n < len(names) {
		names = names[:n]
	}
	return names
}

// StrategyCards returns the card list in initiative order.
func (c *Catalog) StrategyCards() []StrategyCard {
	return c.cards
}

// StrategyCardNames returns just the card names, in initiative order.
func (c *Catalog) StrategyCardNames() []string {
	var names []string
	for _, card := range c.cards {
		names = append(names, card.Name)
	}
	return names
}
