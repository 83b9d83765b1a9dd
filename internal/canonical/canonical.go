// Package canonical reconciles accepted English–Hindi triples into one
// canonical Hindi spelling per English name.
//
// Triples are grouped by their exact English text. Within a group the Hindi
// variant seen most often wins; equal counts go to the higher summed
// confidence and remaining ties to the variant seen first. Every entry carries
// a consistency score combining the winner's share of the group with its
// average confidence.
package canonical

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/MrWong99/hindinames/internal/observe"
	"github.com/MrWong99/hindinames/pkg/types"
)

// ErrZeroFrequency is returned when a group ends up with no observations.
// Grouping never produces such a group; the check guards the division.
var ErrZeroFrequency = errors.New("canonical: group has zero frequency")

// variant accumulates the observations of one Hindi spelling.
type variant struct {
	target string
	count  int
	sum    float64
}

// group collects the variants of one English name in first-seen order.
type group struct {
	variants []*variant
	index    map[string]*variant
	total    int
}

func (g *group) add(target string, score float64) {
	v, ok := g.index[target]
	if !ok {
		v = &variant{target: target}
		g.index[target] = v
		g.variants = append(g.variants, v)
	}
	v.count++
	v.sum += score
	g.total++
}

// best returns the variant maximising (count, sum). The first-seen variant
// wins exact ties.
func (g *group) best() *variant {
	var b *variant
	for _, v := range g.variants {
		if b == nil || v.count > b.count || (v.count == b.count && v.sum > b.sum) {
			b = v
		}
	}
	return b
}

func (g *group) entry(name string) (types.CanonicalEntry, error) {
	if g.total == 0 {
		return types.CanonicalEntry{}, fmt.Errorf("canonical: %q: %w", name, ErrZeroFrequency)
	}
	b := g.best()
	avg := b.sum / float64(b.count)

	variants := make([]string, 0, len(g.variants))
	for _, v := range g.variants {
		variants = append(variants, v.target)
	}
	slices.Sort(variants)

	return types.CanonicalEntry{
		Canonical:        b.target,
		Variants:         variants,
		ConsistencyScore: types.Round3(float64(b.count) * avg / float64(g.total)),
		Frequency:        g.total,
	}, nil
}

// Canonicalize groups triples by English text and selects a canonical Hindi
// spelling for each group. Map keys follow the first-seen order of the
// English texts. An empty input yields an empty map.
func Canonicalize(triples []types.Triple) (types.CanonicalMap, error) {
	groups := make(map[string]*group)
	var keys []string
	for _, t := range triples {
		g, ok := groups[t.Source]
		if !ok {
			g = &group{index: make(map[string]*variant)}
			groups[t.Source] = g
			keys = append(keys, t.Source)
		}
		g.add(t.Target, t.Score)
	}

	out := types.CanonicalMap{
		Entries: make(map[string]types.CanonicalEntry, len(keys)),
		Keys:    keys,
	}
	for _, k := range keys {
		e, err := groups[k].entry(k)
		if err != nil {
			return types.CanonicalMap{}, err
		}
		out.Entries[k] = e
	}
	return out, nil
}

// Canonicalizer wraps [Canonicalize] with metrics and tracing.
type Canonicalizer struct {
	metrics *observe.Metrics
}

// Option is a functional option for [New].
type Option func(*Canonicalizer)

// WithMetrics records every produced entry.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Canonicalizer) { c.metrics = m }
}

// New returns a [Canonicalizer].
func New(opts ...Option) *Canonicalizer {
	c := &Canonicalizer{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run canonicalizes triples.
func (c *Canonicalizer) Run(ctx context.Context, triples []types.Triple) (types.CanonicalMap, error) {
	ctx, span := observe.StartSpan(ctx, "canonical.Run")
	defer span.End()

	m, err := Canonicalize(triples)
	if err != nil {
		span.RecordError(err)
		return types.CanonicalMap{}, err
	}
	if c.metrics != nil {
		for _, k := range m.Keys {
			c.metrics.RecordCanonicalEntry(ctx, m.Entries[k].ConsistencyScore)
		}
	}
	observe.Logger(ctx).Info("canonicalization complete",
		"triples", len(triples),
		"entries", m.Len(),
	)
	return m, nil
}
