package config

import (
	"reflect"
	"slices"
)

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// FilterChanged is true when any filter threshold or word list changed.
	FilterChanged bool

	TiersChanged bool

	// RestartRequired lists the top-level sections that changed but are
	// only read at startup.
	RestartRequired []string
}

// HotReloadable reports whether the running server can apply every change
// in d without a restart.
func (d ConfigDiff) HotReloadable() bool {
	return len(d.RestartRequired) == 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.LogLevel != new.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.LogLevel
	}

	d.FilterChanged = !filterEqual(old.Filter, new.Filter)
	d.TiersChanged = old.Tiers != new.Tiers

	if !reflect.DeepEqual(old.Render, new.Render) {
		d.RestartRequired = append(d.RestartRequired, "render")
	}
	if old.Phonemes != new.Phonemes {
		d.RestartRequired = append(d.RestartRequired, "phonemes")
	}
	if old.Store != new.Store {
		d.RestartRequired = append(d.RestartRequired, "store")
	}
	if old.Server != new.Server {
		d.RestartRequired = append(d.RestartRequired, "server")
	}

	return d
}

func filterEqual(a, b FilterConfig) bool {
	return a.MinScoreShort == b.MinScoreShort &&
		a.MinScoreLong == b.MinScoreLong &&
		a.NFC == b.NFC &&
		slices.Equal(a.GenericTerms, b.GenericTerms) &&
		slices.Equal(a.BadHeads, b.BadHeads) &&
		slices.Equal(a.BadHindi, b.BadHindi)
}
