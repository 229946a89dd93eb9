package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/teemow/taskplugin/internal/plugin"
	"github.com/teemow/taskplugin/internal/tasks/taskstest"
)

type staticStates plugin.State

func (s staticStates) PluginState(context.Context) plugin.State { return plugin.State(s) }

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil)
	rec := serve(t, h.LivenessHandler(), "/healthz")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != healthStatusOK {
		t.Errorf("status = %q, want %q", resp.Status, healthStatusOK)
	}
}

func TestHealthChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		shutdown   bool
		granted    bool
		wantCode   int
		wantPlugin string
	}{
		{"ready and granted", true, false, true, http.StatusOK, string(plugin.StateReady)},
		{"setup required stays ready", true, false, false, http.StatusOK, string(plugin.StateSetupRequired)},
		{"not ready", false, false, true, http.StatusServiceUnavailable, string(plugin.StateReady)},
		{"shutting down", true, true, true, http.StatusServiceUnavailable, string(plugin.StateReady)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestServerContext(t, taskstest.Fixture{Granted: tt.granted})
			h := NewHealthChecker(sc)
			h.SetReady(tt.ready)
			if tt.shutdown {
				_ = sc.Shutdown()
			}

			rec := serve(t, h.ReadinessHandler(), "/readyz")
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}

			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Checks["plugin"] != tt.wantPlugin {
				t.Errorf("plugin check = %q, want %q", resp.Checks["plugin"], tt.wantPlugin)
			}
		})
	}
}

func TestHealthChecker_Detailed(t *testing.T) {
	h := NewHealthChecker(nil)
	h.SetStateReporter(staticStates(plugin.SetupRequired("missing", plugin.SetupAction{
		Kind:   plugin.ActionOpenURL,
		Target: "https://tasks.org/",
	})))
	tracker := NewSessionTracker(nil, nil)
	tracker.Register(context.Background(), "a")
	h.SetSessionTracker(tracker)

	rec := serve(t, h.DetailedHealthHandler(), "/healthz/detailed")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp DetailedHealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Uptime == "" {
		t.Error("uptime should be set")
	}
	if resp.Plugin == nil || resp.Plugin.Kind != plugin.StateSetupRequired {
		t.Fatalf("plugin = %+v, want setup_required", resp.Plugin)
	}
	if resp.Plugin.Action == nil || resp.Plugin.Action.Target != "https://tasks.org/" {
		t.Errorf("plugin action = %+v, want open_url https://tasks.org/", resp.Plugin.Action)
	}
	if resp.ActiveSessions == nil || *resp.ActiveSessions != 1 {
		t.Errorf("active_sessions = %v, want 1", resp.ActiveSessions)
	}
}

func TestHealthChecker_DetailedNotReady(t *testing.T) {
	h := NewHealthChecker(nil)
	h.SetReady(false)

	rec := serve(t, h.DetailedHealthHandler(), "/healthz/detailed")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestHealthChecker_RegisterEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthChecker(nil).RegisterHealthEndpoints(mux)

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		if rec := serve(t, mux, path); rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}
