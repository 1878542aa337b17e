package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/efebarandurmaz/multillm/internal/llm"
)

func stubFactory(backends ...llm.Backend) *llm.ProviderFactory {
	f := llm.NewFactory()
	for _, b := range backends {
		f.Register(b, func(llm.ProviderConfig) (llm.Provider, error) { return nil, errors.New("unused") })
	}
	return f
}

func getHealth(t *testing.T, s *Server) (int, HealthResponse) {
	t.Helper()
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rr.Code, resp
}

func TestHealth_NoChecks(t *testing.T) {
	code, resp := getHealth(t, New(nil, nil))
	if code != http.StatusOK || resp.Status != HealthStatusHealthy {
		t.Fatalf("got %d %s", code, resp.Status)
	}
}

func TestHealth_Aggregation(t *testing.T) {
	tests := []struct {
		name     string
		statuses []HealthStatus
		want     HealthStatus
		code     int
	}{
		{"all healthy", []HealthStatus{HealthStatusHealthy, HealthStatusHealthy}, HealthStatusHealthy, http.StatusOK},
		{"degraded", []HealthStatus{HealthStatusHealthy, HealthStatusDegraded}, HealthStatusDegraded, http.StatusOK},
		{"unhealthy wins", []HealthStatus{HealthStatusUnhealthy, HealthStatusDegraded}, HealthStatusUnhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(nil, nil)
			for i, st := range tt.statuses {
				st := st
				s.RegisterCheck(string(rune('a'+i)), func(context.Context) HealthCheck { return HealthCheck{Status: st} })
			}
			code, resp := getHealth(t, s)
			if code != tt.code || resp.Status != tt.want {
				t.Errorf("got %d %s, want %d %s", code, resp.Status, tt.code, tt.want)
			}
			if len(resp.Checks) != len(tt.statuses) || resp.Checks[0].Name != "a" {
				t.Errorf("unexpected checks %+v", resp.Checks)
			}
		})
	}
}

func TestBackendChecker(t *testing.T) {
	tests := []struct {
		name    string
		model   string
		key     string
		factory *llm.ProviderFactory
		status  HealthStatus
		message string
	}{
		{"ready", "qwen", "k", stubFactory(llm.BackendQwen), HealthStatusHealthy, "Qwen ready"},
		{"unsupported", "llama", "k", stubFactory(), HealthStatusUnhealthy, "Error: Unsupported model 'llama'"},
		{"not installed", "claude", "k", stubFactory(llm.BackendQwen), HealthStatusUnhealthy, "Error: Anthropic not installed. Run: go build without -tags noclaude"},
		{"placeholder key", "qwen", "YOUR_API_KEY", stubFactory(llm.BackendQwen), HealthStatusUnhealthy, llm.NotConfiguredMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := BackendChecker(tt.model, tt.key, tt.factory)(context.Background())
			if check.Status != tt.status || check.Message != tt.message {
				t.Errorf("got %s %q, want %s %q", check.Status, check.Message, tt.status, tt.message)
			}
		})
	}
}

func TestHandler_MetricsAndLive(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "multillm_llm_requests_total 0\n")
	})
	h := New(metrics, nil).Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "multillm_llm_requests_total") {
		t.Errorf("metrics body = %q", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/livez", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("livez = %d", rr.Code)
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(nil, nil).Serve(ctx, addr) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/livez")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
