package dataset_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/MrWong99/hindinames/internal/dataset"
	"github.com/MrWong99/hindinames/pkg/types"
)

func TestReadTriples(t *testing.T) {
	t.Parallel()

	in := `[["Delhi", "दिल्ली", 0.9], ["Agra", "आगरा", 1]]`
	got, err := dataset.ReadTriples(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadTriples: %v", err)
	}
	want := []types.Triple{
		{Source: "Delhi", Target: "दिल्ली", Score: 0.9},
		{Source: "Agra", Target: "आगरा", Score: 1},
	}
	if !slices.Equal(got, want) {
		t.Errorf("ReadTriples = %v, want %v", got, want)
	}
}

func TestReadTriples_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        string
		wantIndex int
		wantIn    string
	}{
		{"missing score", `[["Delhi", "दिल्ली", 0.9], ["Agra", "आगरा"]]`, 1, "missing confidence score"},
		{"null score", `[["Agra", "आगरा", null]]`, 0, "not a number"},
		{"string score", `[["Agra", "आगरा", "high"]]`, 0, "not a number"},
		{"extra field", `[["Agra", "आगरा", 0.9, 1]]`, 0, "want 3 fields"},
		{"record not array", `[{"en": "Agra"}]`, 0, "not an array"},
		{"numeric english", `[[42, "आगरा", 0.9]]`, 0, "english text is not a string"},
		{"null hindi", `[["Agra", null, 0.9]]`, 0, "hindi text is null"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := dataset.ReadTriples(strings.NewReader(tc.in))
			var inv *dataset.InvalidInputError
			if !errors.As(err, &inv) {
				t.Fatalf("err = %v, want *InvalidInputError", err)
			}
			if inv.Index != tc.wantIndex {
				t.Errorf("Index = %d, want %d", inv.Index, tc.wantIndex)
			}
			if !strings.Contains(inv.Error(), tc.wantIn) {
				t.Errorf("Error() = %q, want it to contain %q", inv.Error(), tc.wantIn)
			}
		})
	}
}

func TestReadTriples_NotJSON(t *testing.T) {
	t.Parallel()

	_, err := dataset.ReadTriples(strings.NewReader(`{"not": "an array"}`))
	if err == nil {
		t.Fatal("expected error")
	}
	var inv *dataset.InvalidInputError
	if errors.As(err, &inv) {
		t.Errorf("decode failure should not be an InvalidInputError: %v", err)
	}
}

func TestReadTriples_Empty(t *testing.T) {
	t.Parallel()

	got, err := dataset.ReadTriples(strings.NewReader(`[]`))
	if err != nil {
		t.Fatalf("ReadTriples: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadTriples([]) = %v, want empty", got)
	}
}

func TestReadTriples_NFC(t *testing.T) {
	t.Parallel()

	// न followed by a nukta sign has the precomposed form U+0929 under NFC.
	in := `[["Ponnan", "पोन\u0928\u093cन", 0.9]]`
	raw, err := dataset.ReadTriples(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadTriples: %v", err)
	}
	if raw[0].Target != "पोन\u0928\u093cन" {
		t.Errorf("without normalization Target = %q, want input unchanged", raw[0].Target)
	}
	got, err := dataset.ReadTriples(strings.NewReader(in), dataset.WithNFC())
	if err != nil {
		t.Fatalf("ReadTriples: %v", err)
	}
	if got[0].Target != "पोन\u0929न" {
		t.Errorf("NFC Target = %q, want %q", got[0].Target, "पोन\u0929न")
	}

	// ज़ and फ़ are composition exclusions and stay decomposed.
	nukta := `[["Zafar", "\u091c\u093c\u092b\u093cर", 0.9]]`
	got, err = dataset.ReadTriples(strings.NewReader(nukta), dataset.WithNFC())
	if err != nil {
		t.Fatalf("ReadTriples: %v", err)
	}
	if want := "\u091c\u093c\u092b\u093cर"; got[0].Target != want {
		t.Errorf("NFC changed nukta spelling to %q, want %q", got[0].Target, want)
	}
}

func TestReadPairs(t *testing.T) {
	t.Parallel()

	got, err := dataset.ReadPairs(strings.NewReader(`[["Delhi", "दिल्ली"], ["Agra", "आगरा", 0.5]]`))
	if err != nil {
		t.Fatalf("ReadPairs: %v", err)
	}
	if len(got) != 2 || got[0].English != "Delhi" || got[1].Hindi != "आगरा" {
		t.Errorf("ReadPairs = %+v", got)
	}

	_, err = dataset.ReadPairs(strings.NewReader(`[["Delhi"]]`))
	var inv *dataset.InvalidInputError
	if !errors.As(err, &inv) {
		t.Errorf("ReadPairs(short record): err = %v, want *InvalidInputError", err)
	}
}

func TestReadWords(t *testing.T) {
	t.Parallel()

	got, err := dataset.ReadWords(strings.NewReader("Delhi\n\n  Agra  \nNagar Haveli\n"))
	if err != nil {
		t.Fatalf("ReadWords: %v", err)
	}
	want := []string{"Delhi", "Agra", "Nagar Haveli"}
	if !slices.Equal(got, want) {
		t.Errorf("ReadWords = %q, want %q", got, want)
	}
}

func TestWriteTriples_RoundTrip(t *testing.T) {
	t.Parallel()

	in := []types.Triple{{Source: "Delhi", Target: "दिल्ली", Score: 0.9}}
	var buf bytes.Buffer
	if err := dataset.WriteTriples(&buf, in); err != nil {
		t.Fatalf("WriteTriples: %v", err)
	}
	if !strings.Contains(buf.String(), "दिल्ली") {
		t.Errorf("Devanagari escaped in output: %s", buf.String())
	}
	out, err := dataset.ReadTriples(&buf)
	if err != nil {
		t.Fatalf("ReadTriples: %v", err)
	}
	if !slices.Equal(in, out) {
		t.Errorf("round trip = %v, want %v", out, in)
	}

	buf.Reset()
	if err := dataset.WriteTriples(&buf, nil); err != nil {
		t.Fatalf("WriteTriples(nil): %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("WriteTriples(nil) = %q, want []", got)
	}
}

func TestCanonical_KeyOrderPreserved(t *testing.T) {
	t.Parallel()

	m := types.CanonicalMap{
		Keys: []string{"Pune", "Agra", "Delhi"},
		Entries: map[string]types.CanonicalEntry{
			"Pune":  {Canonical: "पुणे", Variants: []string{"पुणे"}, ConsistencyScore: 0.9, Frequency: 1},
			"Agra":  {Canonical: "आगरा", Variants: []string{"आगरा", "आग्रा"}, ConsistencyScore: 0.61, Frequency: 3},
			"Delhi": {Canonical: "दिल्ली", Variants: []string{"डेल्ही", "दिल्ली"}, ConsistencyScore: 0.675, Frequency: 4},
		},
	}

	var buf bytes.Buffer
	if err := dataset.WriteCanonical(&buf, m); err != nil {
		t.Fatalf("WriteCanonical: %v", err)
	}
	if !strings.Contains(buf.String(), `"consistency_score": 0.675`) {
		t.Errorf("unexpected encoding:\n%s", buf.String())
	}

	got, err := dataset.ReadCanonical(&buf)
	if err != nil {
		t.Fatalf("ReadCanonical: %v", err)
	}
	if !slices.Equal(got.Keys, m.Keys) {
		t.Errorf("keys = %q, want %q", got.Keys, m.Keys)
	}
	if e := got.Entries["Agra"]; e.Frequency != 3 || !slices.Equal(e.Variants, m.Entries["Agra"].Variants) {
		t.Errorf("Agra = %+v", e)
	}
}

func TestCanonical_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := dataset.WriteCanonical(&buf, types.CanonicalMap{}); err != nil {
		t.Fatalf("WriteCanonical: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "{}" {
		t.Errorf("WriteCanonical(empty) = %q, want {}", got)
	}
	m, err := dataset.ReadCanonical(&buf)
	if err != nil {
		t.Fatalf("ReadCanonical: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}

func TestFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	triples := []types.Triple{{Source: "Agra", Target: "आगरा", Score: 0.95}}
	path := filepath.Join(dir, "pairs.json")
	if err := dataset.SaveTriples(path, triples); err != nil {
		t.Fatalf("SaveTriples: %v", err)
	}
	got, err := dataset.LoadTriples(path)
	if err != nil {
		t.Fatalf("LoadTriples: %v", err)
	}
	if !slices.Equal(got, triples) {
		t.Errorf("LoadTriples = %v", got)
	}

	if _, err := dataset.LoadTriples(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for a missing file")
	}
}
