package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubDocuments struct {
	titles map[string][]string
}

func (s stubDocuments) Titles(tenantID string) []string  { return s.titles[tenantID] }
func (s stubDocuments) DocumentCount(tenantID string) int { return len(s.titles[tenantID]) }
func (s stubDocuments) LoadedTenantCount() int            { return len(s.titles) }

func TestTenantHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs := stubDocuments{titles: map[string][]string{
		"tenantA": {"a.txt", "b.txt"},
		"tenantB": {"secret.txt"},
	}}
	h := NewTenantHandler(docs, logger)

	t.Run("List Documents", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ListDocuments(rr, withTenant(httptest.NewRequest(http.MethodGet, "/documents", nil), "tenantA", "Tenant A"))

		if rr.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200", rr.Code)
		}
		if want := `["a.txt","b.txt"]`; rr.Body.String() != want {
			t.Errorf("got body %q, want %q", rr.Body.String(), want)
		}
	})

	t.Run("Empty Tenant Lists Nothing", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ListDocuments(rr, withTenant(httptest.NewRequest(http.MethodGet, "/documents", nil), "tenantC", "Tenant C"))

		if want := `[]`; rr.Body.String() != want {
			t.Errorf("got body %q, want %q", rr.Body.String(), want)
		}
	})

	t.Run("Tenant Info", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Info(rr, withTenant(httptest.NewRequest(http.MethodGet, "/tenant/info", nil), "tenantB", "Tenant B"))

		want := `{"tenant_id":"tenantB","display_name":"Tenant B","document_count":1}`
		if rr.Body.String() != want {
			t.Errorf("got body %q, want %q", rr.Body.String(), want)
		}
	})

	t.Run("Missing Tenant Context", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Info(rr, httptest.NewRequest(http.MethodGet, "/tenant/info", nil))

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("got status %d, want 500", rr.Code)
		}
	})
}

func TestHealthHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHealthHandler(stubDocuments{titles: map[string][]string{"tenantA": nil, "tenantB": nil}}, logger)
	h.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600)) }

	t.Run("Health", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		want := `{"status":"healthy","tenants_loaded":2,"timestamp":"2024-05-01T10:00:00Z"}`
		if rr.Body.String() != want {
			t.Errorf("got body %q, want %q", rr.Body.String(), want)
		}
	})

	t.Run("Root", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Root(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		want := `{"name":"Multi-Tenant SaaS API","version":"1.0.0","description":"Multi-tenant document Q&A system with strict data isolation","docs":"/docs","health":"/health"}`
		if rr.Body.String() != want {
			t.Errorf("got body %q, want %q", rr.Body.String(), want)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("got content type %q", ct)
		}
	})
}
