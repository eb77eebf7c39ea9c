package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hylla/famboard/internal/adapters/server/common"
	"github.com/hylla/famboard/internal/app"
	"github.com/hylla/famboard/internal/state"
)

func newTestDeps(t *testing.T) Dependencies {
	t.Helper()
	store := app.NewStore(state.New(), nil, app.StoreConfig{})
	t.Cleanup(store.Close)
	return Dependencies{Store: common.NewStoreAdapter(store, common.StoreAdapterConfig{})}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// TestNewHandlerRoutes verifies health, api, and metrics mounting.
func TestNewHandlerRoutes(t *testing.T) {
	deps := newTestDeps(t)
	deps.Metrics = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("famboard_store_sequence 0\n"))
	})
	handler, cfg, err := NewHandler(Config{APIEndpoint: "api/v1/"}, deps)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if cfg.HTTPBind != defaultBindAddress || cfg.APIEndpoint != "/api/v1" || cfg.MetricsPath != "/metrics" || cfg.ServerName != "famboard" {
		t.Fatalf("unexpected normalized config %#v", cfg)
	}

	for _, target := range []string{"/healthz", "/readyz", "/api/v1/state", "/api/v1/intents/catalog"} {
		if rec := get(t, handler, target); rec.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d: %s", target, rec.Code, rec.Body.String())
		}
	}
	if rec := get(t, handler, "/metrics"); !strings.Contains(rec.Body.String(), "famboard_store_sequence") {
		t.Fatalf("metrics body = %q", rec.Body.String())
	}
}

// TestReadinessReportsStoreFailure verifies /readyz follows the ready probe.
func TestReadinessReportsStoreFailure(t *testing.T) {
	deps := newTestDeps(t)
	deps.Ready = func(context.Context) error { return errors.New("database is locked") }
	handler, _, err := NewHandler(Config{}, deps)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	rec := get(t, handler, "/readyz")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "database is locked") {
		t.Fatalf("readyz status = %d body = %q", rec.Code, rec.Body.String())
	}
	if rec := get(t, handler, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", rec.Code)
	}
	if rec := get(t, handler, "/metrics"); rec.Code != http.StatusNotFound {
		t.Fatalf("metrics without handler status = %d, want 404", rec.Code)
	}
}

// TestNormalizeConfigRejectsCollisions verifies endpoint collision checks.
func TestNormalizeConfigRejectsCollisions(t *testing.T) {
	cases := []Config{
		{APIEndpoint: "/x", MCPEndpoint: "x/"},
		{APIEndpoint: "/x", MetricsPath: "/x"},
		{MCPEndpoint: "/metrics"},
	}
	for _, cfg := range cases {
		if _, err := normalizeConfig(cfg); err == nil {
			t.Fatalf("normalizeConfig(%#v) error = nil, want collision error", cfg)
		}
	}
	if _, _, err := NewHandler(Config{}, Dependencies{}); err == nil {
		t.Fatal("NewHandler() without store error = nil")
	}
}
