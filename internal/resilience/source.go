package resilience

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/hindinames/internal/p2g/phoneme"
)

// GuardedSource runs every lookup of a phoneme source through a [Breaker].
type GuardedSource struct {
	next    phoneme.Source
	breaker *Breaker
}

// Compile-time assertion that GuardedSource satisfies phoneme.Source.
var _ phoneme.Source = (*GuardedSource)(nil)

// GuardSource wraps next with a breaker built from opts.
//
// Unknown words are answers, not failures, and never trip the breaker. While
// the breaker is open lookups fail with an error matching both
// [ErrCircuitOpen] and [phoneme.ErrUnknownWord], so a [phoneme.Chain] moves
// on to its next source.
func GuardSource(name string, next phoneme.Source, opts ...Option) *GuardedSource {
	opts = append([]Option{WithFailureFunc(func(err error) bool {
		return countsAsFailure(err) && !errors.Is(err, phoneme.ErrUnknownWord)
	})}, opts...)
	return &GuardedSource{next: next, breaker: NewBreaker(name, opts...)}
}

// Breaker returns the breaker guarding the source.
func (g *GuardedSource) Breaker() *Breaker { return g.breaker }

// Phonemes implements [phoneme.Source].
func (g *GuardedSource) Phonemes(ctx context.Context, word string) ([]string, error) {
	var out []string
	err := g.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = g.next.Phonemes(ctx, word)
		return err
	})
	if errors.Is(err, ErrCircuitOpen) {
		return nil, fmt.Errorf("%w: %w: %q", ErrCircuitOpen, phoneme.ErrUnknownWord, word)
	}
	return out, err
}
