package align

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Scorer returns a similarity in [0, 1] for two strings, 1 meaning identical.
type Scorer func(a, b string) float64

// Ratio is the default [Scorer]: twice the length of the longest common
// subsequence divided by the combined length of both strings, compared
// case-insensitively and counted in code points. Two empty strings are
// identical.
func Ratio(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchr.LongestCommonSubsequence(a, b)) / float64(total)
}

// JaroWinkler scores with the Jaro-Winkler similarity on lower-cased input.
// It rewards shared prefixes, which suits names that differ in their endings.
func JaroWinkler(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}
	return matchr.JaroWinkler(a, b, false)
}

// Levenshtein scores as one minus the edit distance over the longer length.
func Levenshtein(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(matchr.Levenshtein(a, b))/float64(longest)
}

// DefaultScorer names the scorer used when none is configured.
const DefaultScorer = "ratio"

var scorers = map[string]Scorer{
	"ratio":        Ratio,
	"jaro-winkler": JaroWinkler,
	"levenshtein":  Levenshtein,
}

// ScorerByName resolves a configured scorer name.
func ScorerByName(name string) (Scorer, bool) {
	s, ok := scorers[name]
	return s, ok
}

// ScorerNames lists the known scorer names in sorted order.
func ScorerNames() []string {
	names := make([]string, 0, len(scorers))
	for n := range scorers {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
