package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

// --- Mock Pinger ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error {
	return m.err
}

// --- Livez ---

func TestLivez_ReturnsOK(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/v1/livez", nil)

	if w.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusOK)
	}
	if resp := decode[map[string]string](t, w); resp["status"] != "ok" {
		t.Errorf("status: got %q, want %q", resp["status"], "ok")
	}
}

// --- Readyz ---

func TestReadyz_NoBackends_ReturnsOK(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/v1/readyz", nil)

	if w.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusOK)
	}
}

func TestReadyz_AllHealthy(t *testing.T) {
	env := newTestEnv(t, map[string]Pinger{
		"primary":   &mockPinger{},
		"secondary": &mockPinger{},
	})
	w := env.do(t, http.MethodGet, "/v1/readyz", nil)

	if w.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d\nbody: %s", w.Code, http.StatusOK, w.Body.String())
	}

	resp := decode[readyzResponse](t, w)
	if resp.Status != "ok" {
		t.Errorf("status: got %q, want %q", resp.Status, "ok")
	}
	if len(resp.Backends) != 2 {
		t.Fatalf("backends: got %d, want 2", len(resp.Backends))
	}
	for name, bs := range resp.Backends {
		if bs.Status != "ok" {
			t.Errorf("backend %s: got %q, want %q", name, bs.Status, "ok")
		}
	}
}

func TestReadyz_OneBackendDown(t *testing.T) {
	env := newTestEnv(t, map[string]Pinger{
		"primary":   &mockPinger{},
		"secondary": &mockPinger{err: errors.New("connection refused")},
	})
	w := env.do(t, http.MethodGet, "/v1/readyz", nil)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want %d\nbody: %s", w.Code, http.StatusServiceUnavailable, w.Body.String())
	}

	resp := decode[readyzResponse](t, w)
	if resp.Status != "unavailable" {
		t.Errorf("status: got %q, want %q", resp.Status, "unavailable")
	}
	if resp.Backends["primary"].Status != "ok" {
		t.Errorf("primary: got %q, want %q", resp.Backends["primary"].Status, "ok")
	}
	if resp.Backends["secondary"].Error != "connection refused" {
		t.Errorf("secondary error: got %q", resp.Backends["secondary"].Error)
	}
}

func TestReadyz_PingsHypermediaAPI(t *testing.T) {
	env := newTestEnv(t, nil)
	ready := NewServer(testLogger(), Deps{
		Customers: env.customers,
		Trainings: env.trainings,
		Backends:  map[string]Pinger{"hypermedia_api": env.client},
	})

	env.server = ready
	if w := env.do(t, http.MethodGet, "/v1/readyz", nil); w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d\nbody: %s", w.Code, http.StatusOK, w.Body.String())
	}

	env.upstream.Close()
	w := env.do(t, http.MethodGet, "/v1/readyz", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status after upstream shutdown: got %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}
