package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/hindinames/internal/align"
	"github.com/MrWong99/hindinames/internal/p2g"
)

// Source names understood by the built-in registrations.
const (
	SourceLexicon = "lexicon"
	SourceOpenAI  = "openai"
	SourceLetters = "letters"
)

// Default returns the configuration used when no file is given and the base
// onto which [LoadFromReader] decodes.
func Default() *Config {
	return &Config{
		LogLevel: LogInfo,
		Render: RenderConfig{
			LettersFallback: true,
			CacheSize:       4096,
			Normalize:       true,
			Scorer:          align.DefaultScorer,
		},
		Phonemes: PhonemesConfig{
			OpenAI: OpenAIConfig{
				Breaker: BreakerConfig{
					MaxFailures:  5,
					ResetTimeout: 30 * time.Second,
				},
			},
		},
		Filter: FilterConfig{
			MinScoreShort: 0.70,
			MinScoreLong:  0.60,
		},
		Tiers: align.DefaultThresholds(),
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
	}
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates the result. Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	// Render
	for i, name := range cfg.Render.ExtraRules {
		if _, ok := p2g.OptionalRule(name); !ok {
			errs = append(errs, fmt.Errorf("render.extra_rules[%d] %q is unknown; valid values: %v", i, name, p2g.OptionalRuleNames()))
		}
	}
	if cfg.Render.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("render.cache_size %d must not be negative", cfg.Render.CacheSize))
	}
	if cfg.Render.Workers < 0 {
		errs = append(errs, fmt.Errorf("render.workers %d must not be negative", cfg.Render.Workers))
	}
	if b := cfg.Phonemes.OpenAI.Breaker; b.MaxFailures < 0 || b.ResetTimeout < 0 {
		errs = append(errs, errors.New("phonemes.openai.breaker: max_failures and reset_timeout must not be negative"))
	}
	if cfg.Render.Scorer != "" {
		if _, ok := align.ScorerByName(cfg.Render.Scorer); !ok {
			errs = append(errs, fmt.Errorf("render.scorer %q is unknown; valid values: %v", cfg.Render.Scorer, align.ScorerNames()))
		}
	}
	seen := make(map[string]int, len(cfg.Render.Sources))
	for i, name := range cfg.Render.Sources {
		if prev, ok := seen[name]; ok {
			errs = append(errs, fmt.Errorf("render.sources[%d] %q is a duplicate of render.sources[%d]", i, name, prev))
		}
		seen[name] = i
		if name == SourceLexicon && cfg.Render.Lexicon == "" {
			errs = append(errs, fmt.Errorf("render.sources[%d]: source %q requires render.lexicon", i, name))
		}
		if name == SourceOpenAI && cfg.Phonemes.OpenAI.APIKey == "" {
			errs = append(errs, fmt.Errorf("render.sources[%d]: source %q requires phonemes.openai.api_key", i, name))
		}
	}
	if len(cfg.SourceNames()) == 0 {
		slog.Warn("no phoneme source configured; every word will be reported as unknown")
	}

	// Filter
	for _, v := range []struct {
		key string
		val float64
	}{
		{"filter.min_score_short", cfg.Filter.MinScoreShort},
		{"filter.min_score_long", cfg.Filter.MinScoreLong},
	} {
		if v.val < 0 || v.val > 1 {
			errs = append(errs, fmt.Errorf("%s %.2f is out of range [0, 1]", v.key, v.val))
		}
	}

	// Tiers
	if err := cfg.Tiers.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tiers: %w", err))
	}

	// Store
	if cfg.Store.PostgresDSN != "" && cfg.Store.SQLitePath != "" {
		errs = append(errs, errors.New("store: postgres_dsn and sqlite_path are mutually exclusive"))
	}

	return errors.Join(errs...)
}

// SourceNames returns the phoneme sources to chain, in order. An explicit
// render.sources list wins; otherwise the list follows from which sources
// are configured.
func (c *Config) SourceNames() []string {
	if len(c.Render.Sources) > 0 {
		return c.Render.Sources
	}
	var names []string
	if c.Render.Lexicon != "" {
		names = append(names, SourceLexicon)
	}
	if c.Phonemes.OpenAI.APIKey != "" {
		names = append(names, SourceOpenAI)
	}
	if c.Render.LettersFallback {
		names = append(names, SourceLetters)
	}
	return names
}

// Cascade returns the default repair cascade followed by the configured
// extra rules. Unknown names are skipped; [Validate] reports them.
func (c *Config) Cascade() p2g.Cascade {
	cascade := p2g.DefaultCascade()
	for _, name := range c.Render.ExtraRules {
		if r, ok := p2g.OptionalRule(name); ok {
			cascade = append(cascade, r)
		}
	}
	return cascade
}

// FilterOptions translates the filter section into [align.FilterOption]s.
func (c *Config) FilterOptions() []align.FilterOption {
	opts := []align.FilterOption{
		align.WithMinScores(c.Filter.MinScoreShort, c.Filter.MinScoreLong),
	}
	if len(c.Filter.GenericTerms) > 0 {
		opts = append(opts, align.WithGenericTerms(c.Filter.GenericTerms...))
	}
	if len(c.Filter.BadHeads) > 0 {
		opts = append(opts, align.WithBadHeads(c.Filter.BadHeads...))
	}
	if len(c.Filter.BadHindi) > 0 {
		opts = append(opts, align.WithBadHindi(c.Filter.BadHindi...))
	}
	return opts
}
