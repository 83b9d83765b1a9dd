package align

import (
	"errors"
	"fmt"

	"github.com/MrWong99/hindinames/pkg/types"
)

// Thresholds are the lower bounds of the high and mid confidence tiers.
type Thresholds struct {
	High float64 `yaml:"high"`
	Mid  float64 `yaml:"mid"`
}

// DefaultThresholds returns high ≥ 0.85 and mid ≥ 0.70.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 0.85, Mid: 0.70}
}

// Validate reports whether the thresholds describe non-overlapping tiers.
func (th Thresholds) Validate() error {
	if th.Mid > th.High {
		return fmt.Errorf("align: mid threshold %.3f above high threshold %.3f", th.Mid, th.High)
	}
	if th.Mid < 0 || th.High > 1 {
		return errors.New("align: tier thresholds must lie within [0, 1]")
	}
	return nil
}

// Tiers partitions triples by confidence score. Each slice keeps input order.
type Tiers struct {
	High []types.Triple `json:"high"`
	Mid  []types.Triple `json:"mid"`
	Low  []types.Triple `json:"low"`
}

// Split sorts triples into tiers: High holds scores ≥ th.High, Mid holds
// scores in [th.Mid, th.High) and Low everything else.
func Split(triples []types.Triple, th Thresholds) Tiers {
	var t Tiers
	for _, tr := range triples {
		switch {
		case tr.Score >= th.High:
			t.High = append(t.High, tr)
		case tr.Score >= th.Mid:
			t.Mid = append(t.Mid, tr)
		default:
			t.Low = append(t.Low, tr)
		}
	}
	return t
}

// Tier returns the named tier ("high", "mid" or "low").
func (t Tiers) Tier(name string) ([]types.Triple, error) {
	switch name {
	case "high":
		return t.High, nil
	case "mid":
		return t.Mid, nil
	case "low":
		return t.Low, nil
	default:
		return nil, fmt.Errorf("align: unknown tier %q", name)
	}
}
