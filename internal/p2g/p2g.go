// Package p2g renders English names into Devanagari through their phonemes.
//
// Rendering is a fixed pipeline:
//
//  1. A [phoneme.Source] turns the word into ARPAbet symbols (for example
//     "Delhi" → D EH1 L IY0). The source is injected; this package never
//     decides how pronunciations are obtained.
//  2. [CleanPhonemes] strips stress digits and drops punctuation symbols.
//  3. [Assemble] walks the symbols with a pending-consonant slot and emits
//     consonants, dependent vowel signs and independent vowels.
//  4. A [Cascade] of orthographic repair rules rewrites the raw string. The
//     default cascade is skeleton, structure, suffix, schwa, anusvara,
//     clusters, nukta, applied once each in that order.
//
// Steps 2–4 are pure and deterministic: the same symbols always yield the
// same bytes. An [Engine] is read-only after construction and safe for
// concurrent use provided its source is.
package p2g

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/MrWong99/hindinames/internal/observe"
	"github.com/MrWong99/hindinames/internal/p2g/phoneme"
)

// Option is a functional option for configuring an [Engine].
type Option func(*Engine)

// WithCascade replaces the default repair cascade.
func WithCascade(c Cascade) Option {
	return func(e *Engine) {
		e.cascade = c
	}
}

// WithMetrics records render counts and latency on m. When nil (the default)
// nothing is recorded.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithInputNormalization enables NFKC normalization and whitespace trimming
// of the English word before it reaches the phoneme source. Default: true.
func WithInputNormalization(enabled bool) Option {
	return func(e *Engine) {
		e.normalize = enabled
	}
}

// Engine renders English words to Devanagari using an injected phoneme
// source and a repair cascade.
type Engine struct {
	source    phoneme.Source
	cascade   Cascade
	metrics   *observe.Metrics
	normalize bool
}

// New returns an [Engine] reading pronunciations from src.
func New(src phoneme.Source, opts ...Option) (*Engine, error) {
	if src == nil {
		return nil, fmt.Errorf("p2g: phoneme source must not be nil")
	}
	e := &Engine{
		source:    src,
		cascade:   DefaultCascade(),
		normalize: true,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Cascade returns the repair cascade the engine applies.
func (e *Engine) Cascade() Cascade { return e.cascade }

// Render looks up the pronunciation of word and returns its Devanagari
// rendering. Errors only come from the phoneme source.
func (e *Engine) Render(ctx context.Context, word string) (string, error) {
	start := time.Now()
	if e.normalize {
		word = norm.NFKC.String(strings.TrimSpace(word))
	}

	raw, err := e.source.Phonemes(ctx, word)
	if err != nil {
		e.record(ctx, start, "error")
		return "", fmt.Errorf("p2g: phonemes for %q: %w", word, err)
	}

	out := RenderPhonemes(e.cascade, word, raw)
	e.record(ctx, start, "ok")
	observe.Logger(ctx).Debug("rendered word", "word", word, "phonemes", raw, "hindi", out)
	return out, nil
}

func (e *Engine) record(ctx context.Context, start time.Time, status string) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordRender(ctx, status, time.Since(start))
}

// RenderPhonemes runs the pure half of the pipeline on raw symbols: clean,
// assemble, then repair with c. word is only consulted by word-aware rules
// such as suffix restoration.
func RenderPhonemes(c Cascade, word string, raw []string) string {
	return c.Apply(word, Assemble(CleanPhonemes(raw)))
}
