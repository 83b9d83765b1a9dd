package phoneme

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Chain tries each source in order and returns the first answer. A source
// reporting [ErrUnknownWord] passes the word on to the next one; any other
// error stops the chain.
type Chain []Source

// Compile-time assertion that Chain satisfies the Source interface.
var _ Source = Chain(nil)

// Phonemes implements [Source].
func (c Chain) Phonemes(ctx context.Context, word string) ([]string, error) {
	for _, s := range c {
		p, err := s.Phonemes(ctx, word)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrUnknownWord) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownWord, word)
}

// CachedSource memoises successful lookups of another source in a
// fixed-size LRU cache. Failed lookups are not cached.
type CachedSource struct {
	next  Source
	cache *lru.Cache[string, []string]
}

// Compile-time assertion that CachedSource satisfies the Source interface.
var _ Source = (*CachedSource)(nil)

// Cached wraps next with an LRU cache holding up to size words.
func Cached(next Source, size int) (*CachedSource, error) {
	c, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("phoneme: create cache: %w", err)
	}
	return &CachedSource{next: next, cache: c}, nil
}

// Phonemes implements [Source].
func (c *CachedSource) Phonemes(ctx context.Context, word string) ([]string, error) {
	if p, ok := c.cache.Get(word); ok {
		return append([]string(nil), p...), nil
	}
	p, err := c.next.Phonemes(ctx, word)
	if err != nil {
		return nil, err
	}
	c.cache.Add(word, append([]string(nil), p...))
	return p, nil
}

// Len returns the number of cached words.
func (c *CachedSource) Len() int { return c.cache.Len() }
