// Package server exposes rendering, canonical lookups and pair filtering
// over HTTP.
//
// Routes:
//
//   - GET  /v1/render?word=Delhi      renders one English name.
//   - GET  /v1/canonical              lists the stored canonical map.
//   - GET  /v1/canonical/{name}       looks up one canonical entry.
//   - POST /v1/filter                 filters a JSON array of triples and
//     splits the survivors into confidence tiers.
//   - GET  /healthz, /readyz          liveness and readiness probes.
//   - GET  /metrics                   Prometheus scrape endpoint.
//
// Every route runs behind [observe.Middleware]. The filter and tier
// thresholds can be swapped at runtime with [Server.SetFilter], which the
// config watcher uses for hot reload.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/hindinames/internal/align"
	"github.com/MrWong99/hindinames/internal/canonical"
	"github.com/MrWong99/hindinames/internal/dataset"
	"github.com/MrWong99/hindinames/internal/observe"
	"github.com/MrWong99/hindinames/internal/p2g/phoneme"
	"github.com/MrWong99/hindinames/pkg/types"
)

const (
	// maxBodyBytes caps the size of a /v1/filter request body.
	maxBodyBytes = 32 << 20

	shutdownTimeout = 15 * time.Second
)

// filterState is swapped atomically on hot reload.
type filterState struct {
	filter *align.Filter
	tiers  align.Thresholds
	nfc    bool
}

// Option is a functional option for [New].
type Option func(*Server)

// WithMetrics sets the metrics recorded by the HTTP middleware. Default:
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithGatherer sets the registry served on /metrics. Default:
// [prometheus.DefaultGatherer].
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithChecks adds readiness checks evaluated by /readyz.
func WithChecks(checks ...Check) Option {
	return func(s *Server) { s.checks = append(s.checks, checks...) }
}

// WithFilter sets the initial filter, tier thresholds and Hindi
// normalization used by /v1/filter.
func WithFilter(f *align.Filter, th align.Thresholds, nfc bool) Option {
	return func(s *Server) { s.SetFilter(f, th, nfc) }
}

// Server routes HTTP requests to the renderer, canonical store and filter.
type Server struct {
	renderer align.Renderer
	store    canonical.Store
	metrics  *observe.Metrics
	gatherer prometheus.Gatherer
	checks   []Check

	state atomic.Pointer[filterState]
}

// New returns a [Server] rendering with r and answering canonical lookups
// from store.
func New(r align.Renderer, store canonical.Store, opts ...Option) (*Server, error) {
	if r == nil {
		return nil, errors.New("server: renderer must not be nil")
	}
	if store == nil {
		return nil, errors.New("server: store must not be nil")
	}
	s := &Server{
		renderer: r,
		store:    store,
		gatherer: prometheus.DefaultGatherer,
	}
	s.SetFilter(align.NewFilter(), align.DefaultThresholds(), false)
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s, nil
}

// SetFilter replaces the filter used by subsequent /v1/filter requests.
// Requests already in flight finish with the previous filter.
func (s *Server) SetFilter(f *align.Filter, th align.Thresholds, nfc bool) {
	s.state.Store(&filterState{filter: f, tiers: th, nfc: nfc})
}

// Handler returns the routed, instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/render", s.render)
	mux.HandleFunc("GET /v1/canonical", s.listCanonical)
	mux.HandleFunc("GET /v1/canonical/{name}", s.getCanonical)
	mux.HandleFunc("POST /v1/filter", s.filter)
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("GET /readyz", s.readyz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return observe.Middleware(s.metrics)(mux)
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %q: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	observe.Logger(ctx).Info("http server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: serve: %w", err)
	}
	return nil
}

type renderResponse struct {
	Word  string `json:"word"`
	Hindi string `json:"hindi"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	word := strings.TrimSpace(r.URL.Query().Get("word"))
	if word == "" {
		writeError(w, http.StatusBadRequest, "query parameter word is required")
		return
	}

	hi, err := s.renderer.Render(r.Context(), word)
	switch {
	case errors.Is(err, phoneme.ErrUnknownWord):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		observe.Logger(r.Context()).Error("render failed", "word", word, "err", err)
		writeError(w, http.StatusBadGateway, "phoneme source unavailable")
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{Word: word, Hindi: hi})
}

func (s *Server) getCanonical(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	e, ok, err := s.store.Get(r.Context(), name)
	if err != nil {
		observe.Logger(r.Context()).Error("canonical lookup failed", "name", name, "err", err)
		writeError(w, http.StatusInternalServerError, "canonical store unavailable")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no canonical entry for %q", name))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) listCanonical(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.List(r.Context())
	if err != nil {
		observe.Logger(r.Context()).Error("canonical list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "canonical store unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := dataset.WriteCanonical(w, m); err != nil {
		observe.Logger(r.Context()).Warn("write canonical response", "err", err)
	}
}

type filterResponse struct {
	Accepted []types.Triple `json:"accepted"`
	Stats    align.Stats    `json:"stats"`
	Tiers    align.Tiers    `json:"tiers"`
}

func (s *Server) filter(w http.ResponseWriter, r *http.Request) {
	st := s.state.Load()

	var opts []dataset.ReadOption
	if st.nfc {
		opts = append(opts, dataset.WithNFC())
	}
	triples, err := dataset.ReadTriples(http.MaxBytesReader(w, r.Body, maxBodyBytes), opts...)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	accepted, stats := st.filter.Apply(r.Context(), triples)
	writeJSON(w, http.StatusOK, filterResponse{
		Accepted: accepted,
		Stats:    stats,
		Tiers:    align.Split(accepted, st.tiers),
	})
}

// writeJSON encodes v as JSON and writes it with the given status code.
// Devanagari is written verbatim.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
