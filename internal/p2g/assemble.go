package p2g

import (
	"strings"
	"unicode"
)

// CleanPhonemes strips stress digits from every symbol and drops any token
// that is not purely alphabetic afterwards. Order is preserved.
//
//	CleanPhonemes([]string{"D", "EH1", "L", "IY0", ","}) // [D EH L IY]
func CleanPhonemes(raw []string) []string {
	cleaned := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return -1
			}
			return r
		}, p)
		if isAlpha(p) {
			cleaned = append(cleaned, p)
		}
	}
	return cleaned
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Assemble renders a sequence of clean phoneme codes into a raw Devanagari
// string, before any orthographic repair.
//
// A single pending-consonant slot is carried across the scan. A consonant
// arriving while another is pending flushes the earlier one bare, leaving it
// with its inherent vowel. A vowel attaches to the pending consonant as a
// dependent sign or, when nothing is pending, is written as an independent
// letter. EH is approximated as short i after a consonant and as ए on its own.
// Unknown codes are ignored. A consonant still pending at the end receives a
// virama.
func Assemble(phonemes []string) string {
	var b strings.Builder
	pending := ""

	for _, p := range phonemes {
		if c, ok := consonants[p]; ok {
			b.WriteString(pending)
			pending = c
			continue
		}

		matra, ok := matras[p]
		if !ok {
			continue
		}

		switch {
		case p == "EH" && pending != "":
			b.WriteString(pending)
			b.WriteString(shortI)
		case p == "EH":
			b.WriteString(vowelE)
		case pending != "":
			b.WriteString(pending)
			b.WriteString(matra)
		default:
			b.WriteString(fullVowels[p])
		}
		pending = ""
	}

	if pending != "" {
		b.WriteString(pending)
		b.WriteString(virama)
	}
	return b.String()
}
