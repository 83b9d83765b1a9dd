// Package types defines the data shapes shared between the hindinames
// pipelines, the dataset codecs, the canonical stores, and the HTTP server.
//
// They are intentionally minimal. Each package owns its own working types; the
// records that cross package boundaries live here to avoid circular imports.
package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Triple is one observed English–Hindi name pair together with the similarity
// score assigned by the aligner. On the wire a Triple is a positional
// three-element array: ["Delhi", "दिल्ली", 0.9].
type Triple struct {
	// Source is the English (Latin script) text.
	Source string

	// Target is the Hindi (Devanagari) text.
	Target string

	// Score is the alignment confidence, expected in [0, 1] but not validated.
	Score float64
}

// MarshalJSON encodes t as [source, target, score].
func (t Triple) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{t.Source, t.Target, t.Score})
}

// UnmarshalJSON decodes a positional [source, target, score] array. It does
// not check that the score is present; see the dataset package for the
// validating reader.
func (t *Triple) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("types: triple: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("types: triple: want 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &t.Source); err != nil {
		return fmt.Errorf("types: triple source: %w", err)
	}
	if err := json.Unmarshal(raw[1], &t.Target); err != nil {
		return fmt.Errorf("types: triple target: %w", err)
	}
	if err := json.Unmarshal(raw[2], &t.Score); err != nil {
		return fmt.Errorf("types: triple score: %w", err)
	}
	return nil
}

// CanonicalEntry is the reconciled spelling for a single English name.
type CanonicalEntry struct {
	// Canonical is the chosen Hindi spelling. Always an element of Variants.
	Canonical string `json:"canonical"`

	// Variants is the sorted set of every Hindi spelling observed for the name.
	Variants []string `json:"variants"`

	// ConsistencyScore combines the canonical variant's share of the group
	// with its average confidence, rounded to three decimals.
	ConsistencyScore float64 `json:"consistency_score"`

	// Frequency is the number of accepted pairs grouped under the name.
	Frequency int `json:"frequency"`
}

// CanonicalMap is the output of a canonicalization run. Entries is keyed by
// English name; Keys lists those names in the order their groups were first
// seen so that iteration is reproducible.
type CanonicalMap struct {
	Entries map[string]CanonicalEntry
	Keys    []string
}

// Len returns the number of entries in m.
func (m CanonicalMap) Len() int { return len(m.Keys) }

// Get returns the entry for name and whether it exists.
func (m CanonicalMap) Get(name string) (CanonicalEntry, bool) {
	e, ok := m.Entries[name]
	return e, ok
}

// Round3 rounds x to three decimals, half to even on its exact binary value.
// Every score and statistic that leaves the pipeline is rounded this way.
func Round3(x float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 3, 64), 64)
	return r
}
