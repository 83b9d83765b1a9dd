package phoneme

import (
	"context"
	"strings"
	"unicode"
)

// letterDigraphs are matched before single letters, longest first.
var letterDigraphs = []struct {
	spelling string
	symbols  []string
}{
	{"aa", []string{"AA"}},
	{"ai", []string{"AE"}},
	{"au", []string{"AO"}},
	{"ee", []string{"IY"}},
	{"oo", []string{"UW"}},
	{"bh", []string{"BH"}},
	{"ch", []string{"CH"}},
	{"dh", []string{"DH"}},
	{"gh", []string{"GH"}},
	{"kh", []string{"KH"}},
	{"ng", []string{"NG"}},
	{"ph", []string{"F"}},
	{"sh", []string{"SH"}},
	{"th", []string{"TH"}},
}

var letterSingles = map[rune][]string{
	'a': {"AH"},
	'b': {"B"},
	'c': {"K"},
	'd': {"D"},
	'e': {"EH"},
	'f': {"F"},
	'g': {"G"},
	'h': {"HH"},
	'i': {"IH"},
	'j': {"JH"},
	'k': {"K"},
	'l': {"L"},
	'm': {"M"},
	'n': {"N"},
	'o': {"OW"},
	'p': {"P"},
	'q': {"K"},
	'r': {"R"},
	's': {"S"},
	't': {"T"},
	'u': {"UH"},
	'v': {"V"},
	'w': {"W"},
	'x': {"K", "S"},
	'y': {"Y"},
	'z': {"Z"},
}

// Letters is a spelling-driven [Source] for words missing from every
// dictionary. It reads the lower-cased word left to right, preferring the
// digraphs common in romanized Indian names, and collapses doubled
// consonant letters. The result is rough but never fails.
type Letters struct{}

// Compile-time assertion that Letters satisfies the Source interface.
var _ Source = Letters{}

// Phonemes implements [Source].
func (Letters) Phonemes(_ context.Context, word string) ([]string, error) {
	w := []rune(strings.ToLower(word))
	out := make([]string, 0, len(w))

	for i := 0; i < len(w); {
		r := w[i]
		if unicode.IsSpace(r) {
			out = append(out, wordSeparator)
			i++
			continue
		}
		if i+1 < len(w) && w[i+1] == r && !isVowelLetter(r) {
			i++
			continue
		}
		if sym, n := matchDigraph(w[i:]); n > 0 {
			out = append(out, sym...)
			i += n
			continue
		}
		if sym, ok := letterSingles[r]; ok {
			out = append(out, sym...)
		}
		i++
	}
	return out, nil
}

func matchDigraph(rest []rune) ([]string, int) {
	if len(rest) < 2 {
		return nil, 0
	}
	pair := string(rest[:2])
	for _, d := range letterDigraphs {
		if d.spelling == pair {
			return d.symbols, 2
		}
	}
	return nil, 0
}

func isVowelLetter(r rune) bool {
	return strings.ContainsRune("aeiou", r)
}
