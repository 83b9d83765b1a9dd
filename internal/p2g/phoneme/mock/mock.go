// Package mock provides a test double for the phoneme.Source interface.
//
// Use Source to return pre-canned pronunciations without a dictionary or
// model and to verify which words were looked up.
//
// Example:
//
//	src := &mock.Source{
//	    Pronunciations: map[string][]string{"Delhi": {"D", "EH1", "L", "IY0"}},
//	}
//	p, _ := src.Phonemes(ctx, "Delhi")
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/hindinames/internal/p2g/phoneme"
)

// Compile-time assertion that Source satisfies the phoneme.Source interface.
var _ phoneme.Source = (*Source)(nil)

// Source is a mock implementation of phoneme.Source.
type Source struct {
	mu sync.Mutex

	// Pronunciations maps words to the symbols returned for them. Words not
	// present yield phoneme.ErrUnknownWord.
	Pronunciations map[string][]string

	// Err, if non-nil, is returned for every call instead of a lookup.
	Err error

	// Calls records every word passed to Phonemes, in order.
	Calls []string
}

// Phonemes records the call and answers from Pronunciations.
func (s *Source) Phonemes(_ context.Context, word string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Calls = append(s.Calls, word)
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.Pronunciations[word]
	if !ok {
		return nil, phoneme.ErrUnknownWord
	}
	return append([]string(nil), p...), nil
}

// CallCount returns the number of Phonemes calls so far.
func (s *Source) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}
