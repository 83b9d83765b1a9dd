// Package report computes the summary statistics printed after each pipeline
// stage: variant spread of a canonical map, consistency and stability of its
// entries, and the confidence profile of a set of triples.
package report

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/MrWong99/hindinames/pkg/types"
)

// Stability band lower bounds.
const (
	HighStability = 0.95
	MidStability  = 0.90
)

// CanonicalSummary describes how many Hindi variants the names carry.
type CanonicalSummary struct {
	Entries        int     `json:"entries"`
	MeanVariants   float64 `json:"mean_variants"`
	MedianVariants float64 `json:"median_variants"`
	MaxVariants    int     `json:"max_variants"`
}

// Canonical summarises the variant counts of m.
func Canonical(m types.CanonicalMap) CanonicalSummary {
	counts := make([]float64, 0, m.Len())
	for _, k := range m.Keys {
		counts = append(counts, float64(len(m.Entries[k].Variants)))
	}
	s := CanonicalSummary{Entries: len(counts)}
	if len(counts) == 0 {
		return s
	}
	s.MeanVariants = stat.Mean(counts, nil)
	s.MedianVariants = median(counts)
	s.MaxVariants = int(floats.Max(counts))
	return s
}

// ConsistencySummary describes the distribution of consistency scores.
type ConsistencySummary struct {
	Entries  int     `json:"entries"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	StdDev   float64 `json:"std_dev"`
	High     int     `json:"high"`
	VeryHigh int     `json:"very_high"`
}

// Consistency summarises the consistency scores of m. High counts entries at
// or above 0.9 and VeryHigh those at or above 0.95. Mean and median are
// rounded to three decimals.
func Consistency(m types.CanonicalMap) ConsistencySummary {
	scores := consistencyScores(m)
	s := ConsistencySummary{Entries: len(scores)}
	if len(scores) == 0 {
		return s
	}
	s.Mean = types.Round3(stat.Mean(scores, nil))
	s.Median = types.Round3(median(scores))
	if len(scores) > 1 {
		s.StdDev = types.Round3(stat.StdDev(scores, nil))
	}
	for _, v := range scores {
		if v >= MidStability {
			s.High++
		}
		if v >= HighStability {
			s.VeryHigh++
		}
	}
	return s
}

// Stability splits m into bands: High holds consistency ≥ 0.95, Mid holds
// [0.90, 0.95) and Low the rest. Each band keeps the key order of m.
type Stability struct {
	High types.CanonicalMap
	Mid  types.CanonicalMap
	Low  types.CanonicalMap
}

// Stable partitions m into stability bands.
func Stable(m types.CanonicalMap) Stability {
	st := Stability{High: emptyMap(), Mid: emptyMap(), Low: emptyMap()}
	for _, k := range m.Keys {
		e := m.Entries[k]
		band := &st.Low
		switch {
		case e.ConsistencyScore >= HighStability:
			band = &st.High
		case e.ConsistencyScore >= MidStability:
			band = &st.Mid
		}
		band.Entries[k] = e
		band.Keys = append(band.Keys, k)
	}
	return st
}

// NameCount is an English name with the number of triples naming it.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ConfidenceSummary describes the confidence profile of a triple set.
type ConfidenceSummary struct {
	Pairs       int         `json:"pairs"`
	UniqueNames int         `json:"unique_names"`
	Mean        float64     `json:"mean"`
	Median      float64     `json:"median"`
	Top         []NameCount `json:"top"`
}

// Confidence summarises triples and lists the top most frequent English
// names. Names with equal counts keep first-seen order.
func Confidence(triples []types.Triple, top int) ConfidenceSummary {
	s := ConfidenceSummary{Pairs: len(triples)}
	if len(triples) == 0 {
		return s
	}

	scores := make([]float64, len(triples))
	counts := make(map[string]int)
	var order []string
	for i, t := range triples {
		scores[i] = t.Score
		if counts[t.Source] == 0 {
			order = append(order, t.Source)
		}
		counts[t.Source]++
	}
	s.UniqueNames = len(order)
	s.Mean = types.Round3(stat.Mean(scores, nil))
	s.Median = types.Round3(median(scores))

	ranked := make([]NameCount, len(order))
	for i, n := range order {
		ranked[i] = NameCount{Name: n, Count: counts[n]}
	}
	slices.SortStableFunc(ranked, func(a, b NameCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	s.Top = ranked[:min(max(top, 0), len(ranked))]
	return s
}

// Sample draws n triples without replacement using a generator seeded with
// seed. It returns every triple, shuffled, when n exceeds the input.
func Sample(triples []types.Triple, n int, seed uint64) []types.Triple {
	r := rand.New(rand.NewPCG(seed, seed))
	n = min(max(n, 0), len(triples))
	out := make([]types.Triple, 0, n)
	for _, i := range r.Perm(len(triples))[:n] {
		out = append(out, triples[i])
	}
	return out
}

func consistencyScores(m types.CanonicalMap) []float64 {
	scores := make([]float64, 0, m.Len())
	for _, k := range m.Keys {
		scores = append(scores, m.Entries[k].ConsistencyScore)
	}
	return scores
}

// median averages the two middle values of an even-length sample.
func median(x []float64) float64 {
	s := slices.Clone(x)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func emptyMap() types.CanonicalMap {
	return types.CanonicalMap{Entries: make(map[string]types.CanonicalEntry)}
}
