package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agentaudit/internal/analyzer"
	"agentaudit/internal/checks"
	"agentaudit/internal/fetcher"
	"agentaudit/internal/pagespeed"
	"agentaudit/internal/storage"
	"agentaudit/pkg/types"
)

func newTestServer(t *testing.T) (*Server, storage.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMemoryStore()

	client, err := fetcher.NewClient(fetcher.Options{Timeout: time.Second})
	if err != nil {
		t.Fatalf("build fetch client: %v", err)
	}
	prober := checks.NewProber(checks.ProberOptions{})
	an := analyzer.New(analyzer.Options{
		Store:     store,
		Fetcher:   fetcher.NewSmartClient(client, nil, logger),
		Discovery: checks.NewDiscovery(checks.DiscoveryOptions{Prober: prober, CriticalBots: []string{"GPTBot"}, Logger: logger}),
		Protocol:  checks.NewProtocol(prober, time.Second, logger),
		Performance: checks.NewPerformance(checks.PerformanceOptions{
			Client: pagespeed.NewClient(pagespeed.Options{Logger: logger}),
			Logger: logger,
		}),
		Logger: logger,
	})
	return NewServer(an, store, logger), store
}

func TestServerRoutes(t *testing.T) {
	server, _ := newTestServer(t)

	assertRoute(t, server, http.MethodGet, "/health", http.StatusOK, "application/json")
	assertRoute(t, server, http.MethodGet, "/openapi.yaml", http.StatusOK, "application/yaml")
	assertRoute(t, server, http.MethodGet, "/docs", http.StatusOK, "text/html; charset=utf-8")
	assertRoute(t, server, http.MethodGet, "/api/audits/unknown", http.StatusNotFound, "")
	assertRoute(t, server, http.MethodGet, "/api/analyses/unknown", http.StatusNotFound, "")
	assertRoute(t, server, http.MethodDelete, "/health", http.StatusMethodNotAllowed, "")
	assertRoute(t, server, http.MethodGet, "/api/audits", http.StatusMethodNotAllowed, "")
}

func TestCreateAuditValidation(t *testing.T) {
	server, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", "{"},
		{"missing url", `{}`},
		{"blank url", `{"url": "  "}`},
		{"unsupported scheme", `{"url": "ftp://example.com"}`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/audits", strings.NewReader(tc.body))
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d (body=%s)", tc.name, rr.Code, rr.Body.String())
		}
	}
}

func TestCreateAuditAcceptsJob(t *testing.T) {
	server, store := newTestServer(t)

	// Unroutable target: the background run fails fast without touching
	// the network, and the job stays readable throughout.
	req := httptest.NewRequest(http.MethodPost, "/api/audits", strings.NewReader(`{"url": "http://127.0.0.1:1/shop"}`))
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d (body=%s)", rr.Code, rr.Body.String())
	}
	var job types.Job
	if err := json.Unmarshal(rr.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.ID == "" {
		t.Fatal("expected a job id")
	}

	if _, err := store.GetJob(req.Context(), job.ID); err != nil {
		t.Fatalf("job not persisted: %v", err)
	}

	assertRoute(t, server, http.MethodGet, "/api/audits/"+job.ID, http.StatusOK, "application/json")

	// The analysis endpoint reports conflict until an analysis exists.
	rr = httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/audits/"+job.ID+"/analysis", nil))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 before completion, got %d", rr.Code)
	}
}

func TestGetAnalysisByID(t *testing.T) {
	server, store := newTestServer(t)

	analysis := &types.Analysis{ID: "a-1", URL: "https://shop.example.com", Domain: "example.com"}
	if err := store.InsertAnalysis(httptest.NewRequest(http.MethodGet, "/", nil).Context(), analysis); err != nil {
		t.Fatalf("insert analysis: %v", err)
	}
	assertRoute(t, server, http.MethodGet, "/api/analyses/a-1", http.StatusOK, "application/json")
}

func assertRoute(t *testing.T, h http.Handler, method, path string, wantStatus int, wantContentType string) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != wantStatus {
		t.Fatalf("%s %s: expected status %d, got %d (body=%s)", method, path, wantStatus, rr.Code, rr.Body.String())
	}
	if wantContentType != "" {
		if got := rr.Header().Get("Content-Type"); got != wantContentType {
			t.Fatalf("%s %s: expected content-type %s, got %s", method, path, wantContentType, got)
		}
	}
	if rr.Body.Len() == 0 {
		t.Fatalf("%s %s: expected non-empty body", method, path)
	}
}
