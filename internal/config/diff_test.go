package config_test

import (
	"slices"
	"testing"

	"github.com/MrWong99/hindinames/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Filter.BadHindi = []string{"वार्ड"}

	d := config.Diff(cfg, cfg)
	if d.LogLevelChanged || d.FilterChanged || d.TiersChanged {
		t.Errorf("identical configs reported changes: %+v", d)
	}
	if !d.HotReloadable() {
		t.Errorf("RestartRequired = %q, want empty", d.RestartRequired)
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.LogLevel = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel = %q, want debug", d.NewLogLevel)
	}
}

func TestDiff_Filter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.FilterConfig)
	}{
		{"threshold", func(f *config.FilterConfig) { f.MinScoreLong = 0.65 }},
		{"generic terms", func(f *config.FilterConfig) { f.GenericTerms = []string{"ward"} }},
		{"bad heads", func(f *config.FilterConfig) { f.BadHeads = []string{"zone"} }},
		{"bad hindi", func(f *config.FilterConfig) { f.BadHindi = []string{"वार्ड"} }},
		{"nfc", func(f *config.FilterConfig) { f.NFC = true }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			old := config.Default()
			new := config.Default()
			tc.mutate(&new.Filter)

			d := config.Diff(old, new)
			if !d.FilterChanged {
				t.Error("expected FilterChanged=true")
			}
			if !d.HotReloadable() {
				t.Errorf("filter change should be hot reloadable, RestartRequired = %q", d.RestartRequired)
			}
		})
	}
}

func TestDiff_Tiers(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Tiers.High = 0.9

	if d := config.Diff(old, new); !d.TiersChanged || d.FilterChanged {
		t.Errorf("Diff = %+v, want only TiersChanged", d)
	}
}

func TestDiff_RestartRequired(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Render.ExtraRules = []string{"gemination"}
	new.Phonemes.OpenAI.Model = "gpt-4o"
	new.Store.PostgresDSN = "postgres://localhost/hindinames"
	new.Server.ListenAddr = ":9090"

	d := config.Diff(old, new)
	want := []string{"render", "phonemes", "store", "server"}
	if !slices.Equal(d.RestartRequired, want) {
		t.Errorf("RestartRequired = %q, want %q", d.RestartRequired, want)
	}
	if d.HotReloadable() {
		t.Error("HotReloadable() = true, want false")
	}
}
