package utils

import (
	"regexp"
	"strconv"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// SimilarityCutoff is deliberately permissive: any best match at or below
// this ratio is treated as "no match" instead of guessing.
const SimilarityCutoff = 0.1

// ClosestMatch resolves a user-typed string against a candidate set by
// normalized Levenshtein similarity. Returns false when the candidate set
// is empty or the best ratio falls at or below the cutoff.
func ClosestMatch(input string, candidates []string) (string, bool) {
	lev := metrics.NewLevenshtein()

	best := ""
	bestScore := -1.0
	for _, c := range candidates {
		score := strutil.Similarity(input, c, lev)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	if bestScore <= SimilarityCutoff {
		return "", false
	}
	return best, true
}

var intPattern = regexp.MustCompile(`-?\d+`)

// ParseInts extracts every integer from free text, in order.
// "10 5 7" and "10, 5 and 7" both yield [10 5 7].
func ParseInts(s string) []int {
	var out []int
	for _, m := range intPattern.FindAllString(s, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
