package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/MrWong99/hindinames/internal/align"
	"github.com/MrWong99/hindinames/internal/canonical"
	"github.com/MrWong99/hindinames/internal/observe"
	"github.com/MrWong99/hindinames/internal/p2g"
	"github.com/MrWong99/hindinames/internal/p2g/phoneme/mock"
	"github.com/MrWong99/hindinames/internal/server"
	"github.com/MrWong99/hindinames/pkg/types"
)

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

func newTestServer(t *testing.T, src *mock.Source, opts ...server.Option) (*server.Server, *canonical.MemStore) {
	t.Helper()
	engine, err := p2g.New(src)
	if err != nil {
		t.Fatalf("p2g.New: %v", err)
	}
	store := canonical.NewMemStore()
	err = store.Save(context.Background(), types.CanonicalMap{
		Keys: []string{"Delhi"},
		Entries: map[string]types.CanonicalEntry{
			"Delhi": {Canonical: "दिल्ली", Variants: []string{"डेल्ही", "दिल्ली"}, ConsistencyScore: 0.675, Frequency: 4},
		},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	opts = append([]server.Option{server.WithMetrics(testMetrics(t))}, opts...)
	s, err := server.New(engine, store, opts...)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	return s, store
}

func defaultSource() *mock.Source {
	return &mock.Source{Pronunciations: map[string][]string{
		"Delhi": {"D", "EH1", "L", "IY0"},
	}}
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRender(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, defaultSource())
	h := s.Handler()

	rec := do(t, h, "GET", "/v1/render?word=Delhi", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	var body struct {
		Word  string `json:"word"`
		Hindi string `json:"hindi"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Word != "Delhi" || body.Hindi != "दिली" {
		t.Errorf("body = %+v, want Delhi/दिली", body)
	}
}

// Not parallel: installs a global tracer provider.
func TestHandler_CorrelationID(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(orig)
		_ = tp.Shutdown(context.Background())
	})

	s, _ := newTestServer(t, defaultSource())
	for _, target := range []string{"/v1/render?word=Delhi", "/v1/canonical/Delhi", "/v1/canonical/Zog"} {
		rec := do(t, s.Handler(), "GET", target, "")
		if cid := rec.Header().Get("X-Correlation-ID"); len(cid) != 32 {
			t.Errorf("GET %s: X-Correlation-ID = %q, want a 32-digit trace id", target, cid)
		}
	}
}

func TestRender_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    *mock.Source
		target string
		want   int
	}{
		{"missing word", defaultSource(), "/v1/render", http.StatusBadRequest},
		{"blank word", defaultSource(), "/v1/render?word=%20", http.StatusBadRequest},
		{"unknown word", defaultSource(), "/v1/render?word=Zog", http.StatusNotFound},
		{"source down", &mock.Source{Err: errors.New("connection refused")}, "/v1/render?word=Delhi", http.StatusBadGateway},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s, _ := newTestServer(t, tc.src)
			rec := do(t, s.Handler(), "GET", tc.target, "")
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d; body %s", rec.Code, tc.want, rec.Body)
			}
			var body struct {
				Error string `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Error == "" {
				t.Errorf("error body missing: %v", err)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, defaultSource())
	h := s.Handler()

	rec := do(t, h, "GET", "/v1/canonical/Delhi", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var e types.CanonicalEntry
	if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Canonical != "दिल्ली" || e.Frequency != 4 {
		t.Errorf("entry = %+v", e)
	}

	if rec := do(t, h, "GET", "/v1/canonical/Agra", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown name: status = %d, want 404", rec.Code)
	}

	rec = do(t, h, "GET", "/v1/canonical", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"Delhi"`) {
		t.Errorf("list: status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, defaultSource())

	in := `[["Delhi", "दिल्ली", 0.9], ["Report", "रिपोर्ट", 0.95], ["Bharaton", "भारतों", 0.8]]`
	rec := do(t, s.Handler(), "POST", "/v1/filter", in)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}

	var body struct {
		Accepted []types.Triple `json:"accepted"`
		Stats    align.Stats    `json:"stats"`
		Tiers    align.Tiers    `json:"tiers"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Accepted) != 2 {
		t.Errorf("accepted = %v, want Delhi and Bharaton", body.Accepted)
	}
	if body.Stats.Rejected[align.RuleGenericEnglish] != 1 {
		t.Errorf("stats = %+v", body.Stats)
	}
	if len(body.Tiers.High) != 1 || len(body.Tiers.Mid) != 1 {
		t.Errorf("tiers = %+v", body.Tiers)
	}
}

func TestFilter_InvalidInput(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, defaultSource())

	rec := do(t, s.Handler(), "POST", "/v1/filter", `[["Delhi", "दिल्ली"]]`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "missing confidence score") {
		t.Errorf("body = %s", rec.Body)
	}
}

func filterStats(t *testing.T, h http.Handler, in string) align.Stats {
	t.Helper()
	rec := do(t, h, "POST", "/v1/filter", in)
	var body struct {
		Stats align.Stats `json:"stats"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body.Stats
}

func TestSetFilter_HotSwap(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, defaultSource())
	h := s.Handler()
	in := `[["Delhi", "दिल्ली", 0.9]]`

	if st := filterStats(t, h, in); st.Accepted != 1 {
		t.Fatalf("before swap stats = %+v", st)
	}

	s.SetFilter(align.NewFilter(align.WithBadHeads("Delhi")), align.DefaultThresholds(), false)

	if st := filterStats(t, h, in); st.Accepted != 0 || st.Rejected[align.RuleBadEnglishHead] != 1 {
		t.Errorf("after swap stats = %+v", st)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ok := server.Check{Name: "store", Probe: func(context.Context) error { return nil }}
	bad := server.Check{Name: "phonemes", Probe: func(context.Context) error { return errors.New("connection refused") }}

	s, _ := newTestServer(t, defaultSource(), server.WithChecks(ok))
	h := s.Handler()
	if rec := do(t, h, "GET", "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", rec.Code)
	}
	if rec := do(t, h, "GET", "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz = %d, want 200", rec.Code)
	}

	s, _ = newTestServer(t, defaultSource(), server.WithChecks(ok, bad))
	rec := do(t, s.Handler(), "GET", "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with failing check = %d, want 503", rec.Code)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "fail" || body.Checks["store"] != "ok" || !strings.HasPrefix(body.Checks["phonemes"], "fail: ") {
		t.Errorf("body = %+v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "hindinames_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	s, _ := newTestServer(t, defaultSource(), server.WithGatherer(reg))
	rec := do(t, s.Handler(), "GET", "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "hindinames_test_total 1") {
		t.Errorf("metrics body missing counter:\n%s", rec.Body)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	engine, err := p2g.New(defaultSource())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := server.New(nil, canonical.NewMemStore()); err == nil {
		t.Error("expected error for nil renderer")
	}
	if _, err := server.New(engine, nil); err == nil {
		t.Error("expected error for nil store")
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, defaultSource())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve = %v, want nil after shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
