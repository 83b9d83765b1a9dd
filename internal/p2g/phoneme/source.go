// Package phoneme defines the pronunciation boundary of the renderer and
// ships the sources used in practice.
//
// A [Source] turns an English word into ARPAbet symbols, each optionally
// carrying a trailing stress digit ("EH1"). Symbols that are not alphabetic
// after the digit is removed (word separators, punctuation) are allowed and
// are discarded by the renderer.
//
// Available sources:
//
//   - [Lexicon]: a CMU-dictionary formatted pronouncing dictionary.
//   - [Letters]: a spelling-based fallback for words no dictionary knows.
//   - [Chain]: tries several sources in order.
//   - [Cached]: an LRU cache in front of any other source.
//   - [Func]: adapts a plain function, mostly for tests.
//
// The openai sub-package provides an LLM-backed source and the mock
// sub-package a recording test double.
package phoneme

import (
	"context"
	"errors"
)

// ErrUnknownWord is returned by a [Source] that cannot pronounce a word.
// Callers test for it with [errors.Is].
var ErrUnknownWord = errors.New("phoneme: unknown word")

// Source produces the phonetic symbols for a word.
//
// Implementations must be safe for concurrent use and must not retain or
// mutate the returned slice after returning it.
type Source interface {
	Phonemes(ctx context.Context, word string) ([]string, error)
}

// Func adapts an ordinary function to the [Source] interface.
type Func func(ctx context.Context, word string) ([]string, error)

// Phonemes calls f.
func (f Func) Phonemes(ctx context.Context, word string) ([]string, error) {
	return f(ctx, word)
}

// Static returns a [Source] answering from a fixed word → symbols table.
// Lookups are exact; missing words yield [ErrUnknownWord].
func Static(table map[string][]string) Source {
	return Func(func(_ context.Context, word string) ([]string, error) {
		p, ok := table[word]
		if !ok {
			return nil, ErrUnknownWord
		}
		return append([]string(nil), p...), nil
	})
}
