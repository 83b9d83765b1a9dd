package main

import (
	"fmt"

	"github.com/MrWong99/hindinames/internal/config"
	"github.com/MrWong99/hindinames/internal/observe"
	"github.com/MrWong99/hindinames/internal/p2g"
	"github.com/MrWong99/hindinames/internal/p2g/phoneme"
	"github.com/MrWong99/hindinames/internal/p2g/phoneme/openai"
	"github.com/MrWong99/hindinames/internal/resilience"
)

// registerBuiltinSources wires the phoneme sources that ship with hindinames
// into reg.
func registerBuiltinSources(reg *config.Registry) {
	reg.Register(config.SourceLexicon, func(cfg *config.Config) (phoneme.Source, error) {
		return phoneme.LoadLexicon(cfg.Render.Lexicon)
	})

	reg.Register(config.SourceOpenAI, func(cfg *config.Config) (phoneme.Source, error) {
		oc := cfg.Phonemes.OpenAI
		var opts []openai.Option
		if oc.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(oc.BaseURL))
		}
		src, err := openai.New(oc.APIKey, oc.Model, opts...)
		if err != nil {
			return nil, err
		}
		return resilience.GuardSource(config.SourceOpenAI, src,
			resilience.WithMaxFailures(oc.Breaker.MaxFailures),
			resilience.WithResetTimeout(oc.Breaker.ResetTimeout),
		), nil
	})

	reg.Register(config.SourceLetters, func(*config.Config) (phoneme.Source, error) {
		return phoneme.Letters{}, nil
	})
}

// newEngine builds the renderer described by the loaded config.
func (c *cli) newEngine() (*p2g.Engine, error) {
	src, err := c.registry.BuildSource(c.cfg)
	if err != nil {
		return nil, fmt.Errorf("phoneme sources: %w", err)
	}
	return p2g.New(src,
		p2g.WithCascade(c.cfg.Cascade()),
		p2g.WithInputNormalization(c.cfg.Render.Normalize),
		p2g.WithMetrics(observe.DefaultMetrics()),
	)
}
