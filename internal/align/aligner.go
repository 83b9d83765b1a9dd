// Package align scores, filters and tiers English–Hindi name pairs.
//
// An [Aligner] turns raw (English, Hindi) pairs into scored triples by
// comparing the P2G rendering of the English text with the observed Hindi
// text. A [Filter] then drops implausible triples through an ordered list of
// named rules, and [Split] sorts the survivors into confidence tiers.
package align

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/hindinames/internal/observe"
	"github.com/MrWong99/hindinames/internal/p2g/phoneme"
	"github.com/MrWong99/hindinames/pkg/types"
)

// Renderer produces the Hindi rendering of an English word.
// *p2g.Engine satisfies it.
type Renderer interface {
	Render(ctx context.Context, word string) (string, error)
}

// Pair is an unscored English–Hindi observation.
type Pair struct {
	English string `json:"english"`
	Hindi   string `json:"hindi"`
}

// AlignerOption is a functional option for [NewAligner].
type AlignerOption func(*Aligner)

// WithScorer sets the similarity function. Default: [Ratio].
func WithScorer(s Scorer) AlignerOption {
	return func(a *Aligner) { a.score = s }
}

// WithWorkers bounds the number of concurrent renderings in
// [Aligner.ScoreAll]. Values below one mean one worker.
func WithWorkers(n int) AlignerOption {
	return func(a *Aligner) { a.workers = n }
}

// Aligner scores pairs by how closely the Hindi text matches the rendering of
// the English text.
type Aligner struct {
	renderer Renderer
	score    Scorer
	workers  int
}

// NewAligner returns an [Aligner] backed by r.
func NewAligner(r Renderer, opts ...AlignerOption) (*Aligner, error) {
	if r == nil {
		return nil, errors.New("align: renderer must not be nil")
	}
	a := &Aligner{renderer: r, score: Ratio, workers: 1}
	for _, o := range opts {
		o(a)
	}
	if a.score == nil {
		return nil, errors.New("align: scorer must not be nil")
	}
	a.workers = max(a.workers, 1)
	return a, nil
}

// Score returns the similarity between the rendering of english and hindi.
// A word no phoneme source knows scores zero.
func (a *Aligner) Score(ctx context.Context, english, hindi string) (float64, error) {
	rendered, err := a.renderer.Render(ctx, english)
	if errors.Is(err, phoneme.ErrUnknownWord) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("align: score %q: %w", english, err)
	}
	return a.score(rendered, hindi), nil
}

// ScoreAll scores every pair and returns the triples in input order. Each
// distinct English text is rendered once; renderings run concurrently.
func (a *Aligner) ScoreAll(ctx context.Context, pairs []Pair) ([]types.Triple, error) {
	ctx, span := observe.StartSpan(ctx, "align.ScoreAll")
	defer span.End()

	var (
		mu       sync.Mutex
		rendered = make(map[string]string, len(pairs))
		unknown  = make(map[string]bool)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	seen := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		if seen[p.English] {
			continue
		}
		seen[p.English] = true
		word := p.English
		g.Go(func() error {
			hi, err := a.renderer.Render(gctx, word)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, phoneme.ErrUnknownWord):
				unknown[word] = true
			case err != nil:
				return fmt.Errorf("align: render %q: %w", word, err)
			default:
				rendered[word] = hi
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]types.Triple, len(pairs))
	for i, p := range pairs {
		out[i] = types.Triple{Source: p.English, Target: p.Hindi}
		if !unknown[p.English] {
			out[i].Score = a.score(rendered[p.English], p.Hindi)
		}
	}

	if len(unknown) > 0 {
		observe.Logger(ctx).Warn("no pronunciation for some English texts, scored zero",
			"unknown", len(unknown),
			"distinct", len(seen),
		)
	}
	return out, nil
}
