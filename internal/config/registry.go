package config

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/MrWong99/hindinames/internal/p2g/phoneme"
)

// ErrSourceNotRegistered is returned by [Registry.Create] when no factory has
// been registered under the requested source name.
var ErrSourceNotRegistered = errors.New("config: phoneme source not registered")

// SourceFactory builds a phoneme source from the loaded configuration.
type SourceFactory func(cfg *Config) (phoneme.Source, error)

// Registry maps phoneme source names to their constructor functions.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]SourceFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]SourceFactory)}
}

// Register registers a phoneme source factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) Register(name string, factory SourceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = factory
}

// Names lists the registered source names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for n := range r.sources {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Create instantiates the source registered under name.
// Returns [ErrSourceNotRegistered] if no factory has been registered for that name.
func (r *Registry) Create(name string, cfg *Config) (phoneme.Source, error) {
	r.mu.RLock()
	factory, ok := r.sources[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSourceNotRegistered, name)
	}
	src, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: create source %q: %w", name, err)
	}
	return src, nil
}

// BuildSource chains the sources named by [Config.SourceNames] and, when
// render.cache_size is positive, puts an LRU cache in front of the chain.
func (r *Registry) BuildSource(cfg *Config) (phoneme.Source, error) {
	var chain phoneme.Chain
	for _, name := range cfg.SourceNames() {
		src, err := r.Create(name, cfg)
		if err != nil {
			return nil, err
		}
		chain = append(chain, src)
	}
	if cfg.Render.CacheSize <= 0 {
		return chain, nil
	}
	cached, err := phoneme.Cached(chain, cfg.Render.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("config: phoneme cache: %w", err)
	}
	return cached, nil
}
