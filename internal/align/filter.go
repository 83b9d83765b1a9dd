package align

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/MrWong99/hindinames/internal/observe"
	"github.com/MrWong99/hindinames/pkg/types"
)

// Names of the default filter rules, in evaluation order.
const (
	RuleSeparator           = "separator"
	RuleGenericEnglish      = "generic_english"
	RuleBadEnglishHead      = "bad_english_head"
	RuleShortMultiword      = "short_multiword"
	RuleBadHindi            = "bad_hindi"
	RuleAbstractSuffix      = "abstract_suffix"
	RuleAgentSuffixExtra    = "agent_suffix_extra"
	RuleShortHindi          = "short_hindi"
	RuleSubstringLength     = "substring_length"
	RuleMinScore            = "min_score"
	RuleSingleWordLowScore  = "single_word_low_score"
	RuleLengthDisproportion = "length_disproportion"
	RulePluralLowScore      = "plural_low_score"
)

const (
	defaultMinScoreShort = 0.70
	defaultMinScoreLong  = 0.60

	// shortEnglishLen is the longest English text that gets the stricter
	// minimum score.
	shortEnglishLen = 5
)

// Candidate is a triple together with the derived values the filter rules
// consult. Lengths are counted in code points.
type Candidate struct {
	types.Triple
	EnglishLower string
	EnglishLen   int
	HindiLen     int
}

// NewCandidate derives a [Candidate] from t.
func NewCandidate(t types.Triple) Candidate {
	return Candidate{
		Triple:       t,
		EnglishLower: strings.ToLower(t.Source),
		EnglishLen:   utf8.RuneCountInString(t.Source),
		HindiLen:     utf8.RuneCountInString(t.Target),
	}
}

// Rule is a single named filter predicate. Reject reports whether the
// candidate must be dropped.
type Rule struct {
	Name   string
	Reject func(c Candidate) bool
}

// FilterOption is a functional option for [NewFilter].
type FilterOption func(*Filter)

// WithMinScores overrides the minimum confidence for short (five code points
// or fewer) and long English texts. Defaults: 0.70 and 0.60.
func WithMinScores(short, long float64) FilterOption {
	return func(f *Filter) {
		f.minShort = short
		f.minLong = long
	}
}

// WithGenericTerms adds English generic terms to the built-in list.
func WithGenericTerms(terms ...string) FilterOption {
	return func(f *Filter) { f.genericEnglish.add(lowerAll(terms)...) }
}

// WithBadHeads adds English terms to the built-in bad-head list.
func WithBadHeads(terms ...string) FilterOption {
	return func(f *Filter) { f.badHeads.add(lowerAll(terms)...) }
}

// WithBadHindi adds Hindi words to the built-in semantic denylist.
func WithBadHindi(words ...string) FilterOption {
	return func(f *Filter) { f.badHindiSemantic.add(words...) }
}

// WithFilterMetrics records every decision made by [Filter.Apply].
func WithFilterMetrics(m *observe.Metrics) FilterOption {
	return func(f *Filter) { f.metrics = m }
}

// Filter decides which aligned triples are plausible name transliterations.
// Rules run in a fixed order and the first one that matches rejects the
// triple. A Filter is read-only after construction and safe for concurrent
// use.
type Filter struct {
	minShort float64
	minLong  float64

	genericEnglish   set
	badHeads         set
	badEnglishExtra  set
	badHindiSemantic set

	metrics *observe.Metrics
	rules   []Rule
}

// NewFilter returns a [Filter] with the default rule list.
func NewFilter(opts ...FilterOption) *Filter {
	f := &Filter{
		minShort:         defaultMinScoreShort,
		minLong:          defaultMinScoreLong,
		genericEnglish:   genericEnglish.clone(),
		badHeads:         badEnglishHeads.clone(),
		badEnglishExtra:  badEnglishExtra,
		badHindiSemantic: badHindiSemantic.clone(),
	}
	for _, o := range opts {
		o(f)
	}
	f.rules = f.defaultRules()
	return f
}

func (f *Filter) defaultRules() []Rule {
	return []Rule{
		{RuleSeparator, func(c Candidate) bool {
			return strings.ContainsAny(c.Source, "/&")
		}},
		{RuleGenericEnglish, func(c Candidate) bool {
			return f.genericEnglish.has(c.EnglishLower)
		}},
		{RuleBadEnglishHead, func(c Candidate) bool {
			return f.badHeads.has(c.EnglishLower) || f.badEnglishExtra.has(c.EnglishLower)
		}},
		{RuleShortMultiword, func(c Candidate) bool {
			return strings.Contains(c.Source, " ") && c.HindiLen <= 5
		}},
		{RuleBadHindi, func(c Candidate) bool {
			return f.badHindiSemantic.has(c.Target) ||
				badHindiTranslations.has(c.Target) ||
				badHindiExtra.has(c.Target) ||
				hindiHonorifics.has(c.Target)
		}},
		{RuleAbstractSuffix, func(c Candidate) bool {
			return hasAnySuffix(c.Target, abstractSuffixes)
		}},
		{RuleAgentSuffixExtra, func(c Candidate) bool {
			return hasAnySuffix(c.EnglishLower, agentSuffixes) && badHindiExtra.has(c.Target)
		}},
		{RuleShortHindi, func(c Candidate) bool {
			return c.HindiLen <= 3 || hindiFunctionWords.has(c.Target)
		}},
		{RuleSubstringLength, func(c Candidate) bool {
			contained := strings.Contains(c.EnglishLower, c.Target) || strings.Contains(c.Target, c.EnglishLower)
			return contained && abs(c.EnglishLen-c.HindiLen) > 4
		}},
		{RuleMinScore, func(c Candidate) bool {
			return c.Score < f.minScore(c)
		}},
		{RuleSingleWordLowScore, func(c Candidate) bool {
			return c.Score < 0.7 && !strings.Contains(c.Source, " ") && !f.badHeads.has(c.EnglishLower)
		}},
		{RuleLengthDisproportion, func(c Candidate) bool {
			limit := max(4, int(float64(c.EnglishLen)*0.6))
			return c.Score < 0.75 && abs(c.HindiLen-c.EnglishLen) > limit
		}},
		{RulePluralLowScore, func(c Candidate) bool {
			return hasAnySuffix(c.Target, pluralSuffixes) && c.Score < 0.75
		}},
	}
}

func (f *Filter) minScore(c Candidate) float64 {
	if c.EnglishLen <= shortEnglishLen {
		return f.minShort
	}
	return f.minLong
}

// Rules returns the filter's rules in evaluation order.
func (f *Filter) Rules() []Rule {
	return append([]Rule(nil), f.rules...)
}

// Check returns the name of the first rule rejecting t, or "" when t passes
// every rule.
func (f *Filter) Check(t types.Triple) string {
	c := NewCandidate(t)
	for _, r := range f.rules {
		if r.Reject(c) {
			return r.Name
		}
	}
	return ""
}

// Accept reports whether t passes every rule.
func (f *Filter) Accept(t types.Triple) bool {
	return f.Check(t) == ""
}

// Stats summarises one [Filter.Apply] run.
type Stats struct {
	Total    int            `json:"total"`
	Accepted int            `json:"accepted"`
	Rejected map[string]int `json:"rejected"`
}

// Apply returns the accepted triples in input order, unmodified, together
// with per-rule rejection counts.
func (f *Filter) Apply(ctx context.Context, triples []types.Triple) ([]types.Triple, Stats) {
	st := Stats{Total: len(triples), Rejected: make(map[string]int)}
	accepted := make([]types.Triple, 0, len(triples))
	for _, t := range triples {
		rule := f.Check(t)
		if f.metrics != nil {
			f.metrics.RecordFilterDecision(ctx, rule)
		}
		if rule != "" {
			st.Rejected[rule]++
			continue
		}
		accepted = append(accepted, t)
	}
	st.Accepted = len(accepted)

	observe.Logger(ctx).Debug("filter applied",
		"total", st.Total,
		"accepted", st.Accepted,
		"rejected", st.Total-st.Accepted,
	)
	return accepted, st
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func lowerAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
