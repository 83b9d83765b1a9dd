package phoneme

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// wordSeparator is emitted between the words of a multi-word name. It is not
// alphabetic, so the renderer drops it.
const wordSeparator = " "

// Lexicon is a pronouncing dictionary in CMU dictionary format:
//
//	;;; comment
//	DELHI  D EH1 L IY0
//	DELHI(1)  D EH1 L HH IY0
//
// Alternate pronunciations (keys with a "(n)" suffix) are ignored; the first
// entry for a word wins. Keys are matched case-insensitively. A Lexicon is
// read-only after loading and safe for concurrent use.
type Lexicon struct {
	entries map[string][]string
}

// Compile-time assertion that Lexicon satisfies the Source interface.
var _ Source = (*Lexicon)(nil)

// LoadLexicon reads a CMU-format dictionary file from path.
func LoadLexicon(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("phoneme: open lexicon %q: %w", path, err)
	}
	defer f.Close()

	lex, err := ReadLexicon(f)
	if err != nil {
		return nil, fmt.Errorf("phoneme: parse lexicon %q: %w", path, err)
	}
	return lex, nil
}

// ReadLexicon parses a CMU-format dictionary from r. Blank lines and lines
// starting with ";;;" are skipped. A line with a word but no symbols is an
// error.
func ReadLexicon(r io.Reader) (*Lexicon, error) {
	lex := &Lexicon{entries: make(map[string][]string)}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, ";;;") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("phoneme: lexicon line %d: no phonemes for %q", line, fields[0])
		}
		key := strings.ToUpper(fields[0])
		if strings.HasSuffix(key, ")") && strings.Contains(key, "(") {
			continue
		}
		if _, dup := lex.entries[key]; dup {
			continue
		}
		lex.entries[key] = fields[1:]
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("phoneme: read lexicon: %w", err)
	}
	return lex, nil
}

// Len returns the number of words in the lexicon.
func (l *Lexicon) Len() int { return len(l.entries) }

// Phonemes implements [Source]. Multi-word input is looked up word by word;
// the symbols of consecutive words are separated by a blank symbol. If any
// word is missing the whole lookup fails with [ErrUnknownWord].
func (l *Lexicon) Phonemes(_ context.Context, word string) ([]string, error) {
	words := strings.Fields(word)
	if len(words) == 0 {
		return []string{}, nil
	}

	var out []string
	for i, w := range words {
		p, ok := l.entries[strings.ToUpper(w)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownWord, w)
		}
		if i > 0 {
			out = append(out, wordSeparator)
		}
		out = append(out, p...)
	}
	return out, nil
}
