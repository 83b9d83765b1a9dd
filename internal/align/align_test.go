package align_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/MrWong99/hindinames/internal/align"
	"github.com/MrWong99/hindinames/internal/p2g/phoneme"
	"github.com/MrWong99/hindinames/pkg/types"
)

func TestScorers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		scorer align.Scorer
		a, b   string
		want   float64
	}{
		{"ratio identical", align.Ratio, "abc", "abc", 1},
		{"ratio both empty", align.Ratio, "", "", 1},
		{"ratio one empty", align.Ratio, "abc", "", 0},
		{"ratio case insensitive", align.Ratio, "Delhi", "delhi", 1},
		{"ratio transposed", align.Ratio, "ab", "ba", 0.5},
		{"ratio devanagari code points", align.Ratio, "दिली", "दिल्ली", 0.8},
		{"jaro-winkler", align.JaroWinkler, "MARTHA", "marhta", 0.9611111111111111},
		{"jaro-winkler identical empty", align.JaroWinkler, "", "", 1},
		{"levenshtein", align.Levenshtein, "kitten", "sitting", 1 - 3.0/7.0},
		{"levenshtein both empty", align.Levenshtein, "", "", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.scorer(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("score(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestScorerByName(t *testing.T) {
	t.Parallel()

	for _, name := range align.ScorerNames() {
		if _, ok := align.ScorerByName(name); !ok {
			t.Errorf("ScorerByName(%q) not found", name)
		}
	}
	if _, ok := align.ScorerByName(align.DefaultScorer); !ok {
		t.Errorf("default scorer %q not registered", align.DefaultScorer)
	}
	if _, ok := align.ScorerByName("soundex"); ok {
		t.Error("ScorerByName(soundex) should not resolve")
	}
}

func TestFilter_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		triple types.Triple
		want   string
	}{
		{"slash in english", types.Triple{Source: "Ram/Shyam", Target: "रामश्याम", Score: 0.95}, align.RuleSeparator},
		{"generic english", types.Triple{Source: "Report", Target: "रिपोर्ट", Score: 0.95}, align.RuleGenericEnglish},
		{"bad head", types.Triple{Source: "India", Target: "इंडिया", Score: 0.95}, align.RuleBadEnglishHead},
		{"bad english extra", types.Triple{Source: "Where", Target: "व्हेयर", Score: 0.95}, align.RuleBadEnglishHead},
		{"short multiword hindi", types.Triple{Source: "Abu Road", Target: "आबूरो", Score: 0.95}, align.RuleShortMultiword},
		{"semantic hindi", types.Triple{Source: "Kiran", Target: "किरण", Score: 0.95}, align.RuleBadHindi},
		{"honorific", types.Triple{Source: "Shri", Target: "श्री", Score: 0.95}, align.RuleBadHindi},
		{"abstract suffix", types.Triple{Source: "Mamata", Target: "ममता", Score: 0.95}, align.RuleAbstractSuffix},
		{"short hindi", types.Triple{Source: "Ram", Target: "का", Score: 0.95}, align.RuleShortHindi},
		{"substring length", types.Triple{Source: "Bangalore City", Target: "bangalore", Score: 0.95}, align.RuleSubstringLength},
		{"short english low score", types.Triple{Source: "Zog", Target: "ज़ोग", Score: 0.55}, align.RuleMinScore},
		{"single word low score", types.Triple{Source: "Jaipuram", Target: "जयपुरम", Score: 0.65}, align.RuleSingleWordLowScore},
		{"length disproportion", types.Triple{Source: "Nagar Haveli Dadra", Target: "दादरान", Score: 0.72}, align.RuleLengthDisproportion},
		{"plural low score", types.Triple{Source: "Bharaton", Target: "भारतों", Score: 0.72}, align.RulePluralLowScore},
		{"accepted", types.Triple{Source: "Delhi", Target: "दिल्ली", Score: 0.9}, ""},
		{"plural high score accepted", types.Triple{Source: "Bharaton", Target: "भारतों", Score: 0.8}, ""},
		{"disproportion high score accepted", types.Triple{Source: "Nagar Haveli Dadra", Target: "दादरान", Score: 0.8}, ""},
	}

	f := align.NewFilter()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := f.Check(tc.triple); got != tc.want {
				t.Errorf("Check(%v) = %q, want %q", tc.triple, got, tc.want)
			}
			if got := f.Accept(tc.triple); got != (tc.want == "") {
				t.Errorf("Accept(%v) = %v", tc.triple, got)
			}
		})
	}
}

func TestFilter_RuleOrder(t *testing.T) {
	t.Parallel()

	want := []string{
		align.RuleSeparator,
		align.RuleGenericEnglish,
		align.RuleBadEnglishHead,
		align.RuleShortMultiword,
		align.RuleBadHindi,
		align.RuleAbstractSuffix,
		align.RuleAgentSuffixExtra,
		align.RuleShortHindi,
		align.RuleSubstringLength,
		align.RuleMinScore,
		align.RuleSingleWordLowScore,
		align.RuleLengthDisproportion,
		align.RulePluralLowScore,
	}
	var got []string
	for _, r := range align.NewFilter().Rules() {
		got = append(got, r.Name)
	}
	if !slices.Equal(got, want) {
		t.Errorf("rule order = %q, want %q", got, want)
	}
}

func TestFilter_AgentSuffixRuleInIsolation(t *testing.T) {
	t.Parallel()

	// The bad-hindi rule already covers these words, so the agent suffix rule
	// is exercised on its own.
	var rule align.Rule
	for _, r := range align.NewFilter().Rules() {
		if r.Name == align.RuleAgentSuffixExtra {
			rule = r
		}
	}
	if rule.Reject == nil {
		t.Fatal("agent suffix rule not found")
	}
	if !rule.Reject(align.NewCandidate(types.Triple{Source: "Teacher", Target: "मेरा", Score: 1})) {
		t.Error("expected rejection for -er English with a grammatical Hindi word")
	}
	if rule.Reject(align.NewCandidate(types.Triple{Source: "Teacher", Target: "टीचर", Score: 1})) {
		t.Error("unexpected rejection for an ordinary rendering")
	}
}

func TestFilter_Options(t *testing.T) {
	t.Parallel()

	zog := types.Triple{Source: "Zog", Target: "ज़ोग", Score: 0.55}
	if got := align.NewFilter(align.WithMinScores(0.5, 0.5)).Check(zog); got != align.RuleSingleWordLowScore {
		t.Errorf("with lowered minimum: Check = %q, want %q", got, align.RuleSingleWordLowScore)
	}

	nagar := types.Triple{Source: "Nagar", Target: "नगर", Score: 0.95}
	if got := align.NewFilter(align.WithGenericTerms(" NAGAR ")).Check(nagar); got != align.RuleGenericEnglish {
		t.Errorf("with extra generic term: Check = %q, want %q", got, align.RuleGenericEnglish)
	}

	delhi := types.Triple{Source: "Delhi", Target: "दिल्ली", Score: 0.9}
	if got := align.NewFilter(align.WithBadHindi("दिल्ली")).Check(delhi); got != align.RuleBadHindi {
		t.Errorf("with extra bad hindi: Check = %q, want %q", got, align.RuleBadHindi)
	}

	pune := types.Triple{Source: "Pune", Target: "पुणेनगर", Score: 0.95}
	if got := align.NewFilter(align.WithBadHeads("Pune")).Check(pune); got != align.RuleBadEnglishHead {
		t.Errorf("with extra bad head: Check = %q, want %q", got, align.RuleBadEnglishHead)
	}

	// Extensions must not leak into filters built later.
	if got := align.NewFilter().Check(delhi); got != "" {
		t.Errorf("default filter rejected Delhi with %q after another filter was extended", got)
	}
}

func TestFilter_Monotonic(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"Delhi", "दिल्ली"},
		{"Zog", "ज़ोग"},
		{"Bharaton", "भारतों"},
		{"Nagar Haveli Dadra", "दादरान"},
		{"Jaipuram", "जयपुरम"},
		{"Gandhinagar", "गांधीनगर"},
	}
	f := align.NewFilter()

	for _, p := range pairs {
		rejected := false
		for score := 1.0; score >= 0; score -= 0.01 {
			ok := f.Accept(types.Triple{Source: p[0], Target: p[1], Score: score})
			if rejected && ok {
				t.Errorf("%s/%s: accepted at %.2f after a rejection at a higher score", p[0], p[1], score)
				break
			}
			rejected = rejected || !ok
		}
	}
}

func TestFilter_Apply(t *testing.T) {
	t.Parallel()

	in := []types.Triple{
		{Source: "Delhi", Target: "दिल्ली", Score: 0.9},
		{Source: "Ram", Target: "का", Score: 0.95},
		{Source: "Zog", Target: "ज़ोग", Score: 0.55},
		{Source: "Bharaton", Target: "भारतों", Score: 0.8},
		{Source: "Shri", Target: "श्री", Score: 0.95},
	}
	got, st := align.NewFilter().Apply(context.Background(), in)

	want := []types.Triple{in[0], in[3]}
	if !slices.Equal(got, want) {
		t.Errorf("Apply accepted %v, want %v", got, want)
	}
	if st.Total != 5 || st.Accepted != 2 {
		t.Errorf("stats = %+v, want total 5 accepted 2", st)
	}
	if st.Rejected[align.RuleShortHindi] != 1 || st.Rejected[align.RuleMinScore] != 1 || st.Rejected[align.RuleBadHindi] != 1 {
		t.Errorf("rejections = %v", st.Rejected)
	}

	empty, st := align.NewFilter().Apply(context.Background(), nil)
	if len(empty) != 0 || st.Total != 0 {
		t.Errorf("Apply(nil) = %v, %+v; want empty", empty, st)
	}
}

func TestSplit(t *testing.T) {
	t.Parallel()

	in := []types.Triple{
		{Source: "a", Score: 0.9},
		{Source: "b", Score: 0.85},
		{Source: "c", Score: 0.84},
		{Source: "d", Score: 0.7},
		{Source: "e", Score: 0.69},
	}
	tiers := align.Split(in, align.DefaultThresholds())

	names := func(ts []types.Triple) []string {
		var out []string
		for _, tr := range ts {
			out = append(out, tr.Source)
		}
		return out
	}
	if got := names(tiers.High); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("high = %q", got)
	}
	if got := names(tiers.Mid); !slices.Equal(got, []string{"c", "d"}) {
		t.Errorf("mid = %q", got)
	}
	if got := names(tiers.Low); !slices.Equal(got, []string{"e"}) {
		t.Errorf("low = %q", got)
	}

	if _, err := tiers.Tier("medium"); err == nil {
		t.Error("Tier(medium) should fail")
	}
}

func TestThresholds_Validate(t *testing.T) {
	t.Parallel()

	if err := align.DefaultThresholds().Validate(); err != nil {
		t.Errorf("default thresholds invalid: %v", err)
	}
	if err := (align.Thresholds{High: 0.6, Mid: 0.7}).Validate(); err == nil {
		t.Error("expected error for mid above high")
	}
	if err := (align.Thresholds{High: 1.5, Mid: 0.7}).Validate(); err == nil {
		t.Error("expected error for threshold above one")
	}
}

// fakeRenderer answers from a fixed table and counts calls per word.
type fakeRenderer struct {
	mu    sync.Mutex
	table map[string]string
	err   error
	calls map[string]int
}

func (f *fakeRenderer) Render(_ context.Context, word string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[word]++
	if f.err != nil {
		return "", f.err
	}
	hi, ok := f.table[word]
	if !ok {
		return "", fmt.Errorf("fake: %q: %w", word, phoneme.ErrUnknownWord)
	}
	return hi, nil
}

func TestAligner_Score(t *testing.T) {
	t.Parallel()

	a, err := align.NewAligner(&fakeRenderer{table: map[string]string{"Delhi": "दिली"}})
	if err != nil {
		t.Fatalf("NewAligner: %v", err)
	}

	got, err := a.Score(context.Background(), "Delhi", "दिल्ली")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if math.Abs(got-0.8) > 1e-9 {
		t.Errorf("Score = %v, want 0.8", got)
	}

	got, err = a.Score(context.Background(), "Zog", "ज़ोग")
	if err != nil || got != 0 {
		t.Errorf("Score(unknown) = %v, %v; want 0, nil", got, err)
	}
}

func TestAligner_ScoreAll(t *testing.T) {
	t.Parallel()

	r := &fakeRenderer{table: map[string]string{"Delhi": "दिली", "Ram": "राम"}}
	a, err := align.NewAligner(r, align.WithWorkers(4))
	if err != nil {
		t.Fatalf("NewAligner: %v", err)
	}

	pairs := []align.Pair{
		{English: "Delhi", Hindi: "दिल्ली"},
		{English: "Ram", Hindi: "राम"},
		{English: "Delhi", Hindi: "दिली"},
		{English: "Zog", Hindi: "ज़ोग"},
	}
	got, err := a.ScoreAll(context.Background(), pairs)
	if err != nil {
		t.Fatalf("ScoreAll: %v", err)
	}

	wantScores := []float64{0.8, 1, 1, 0}
	for i, tr := range got {
		if tr.Source != pairs[i].English || tr.Target != pairs[i].Hindi {
			t.Errorf("triple %d = %v, want pair %v", i, tr, pairs[i])
		}
		if math.Abs(tr.Score-wantScores[i]) > 1e-9 {
			t.Errorf("triple %d score = %v, want %v", i, tr.Score, wantScores[i])
		}
	}
	if r.calls["Delhi"] != 1 {
		t.Errorf("Delhi rendered %d times, want 1", r.calls["Delhi"])
	}
}

func TestAligner_ScoreAllHardError(t *testing.T) {
	t.Parallel()

	boom := errors.New("lexicon unreadable")
	a, err := align.NewAligner(&fakeRenderer{err: boom})
	if err != nil {
		t.Fatalf("NewAligner: %v", err)
	}
	if _, err := a.ScoreAll(context.Background(), []align.Pair{{English: "Ram", Hindi: "राम"}}); !errors.Is(err, boom) {
		t.Errorf("ScoreAll: err = %v, want %v", err, boom)
	}
}

func TestNewAligner_Validation(t *testing.T) {
	t.Parallel()

	if _, err := align.NewAligner(nil); err == nil {
		t.Error("expected error for nil renderer")
	}
	if _, err := align.NewAligner(&fakeRenderer{}, align.WithScorer(nil)); err == nil {
		t.Error("expected error for nil scorer")
	}
}
