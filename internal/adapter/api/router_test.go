package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/docqa/internal/adapter/metrics"
	"github.com/V4T54L/docqa/internal/pkg/config"
	"github.com/V4T54L/docqa/internal/pkg/token"
	"github.com/V4T54L/docqa/internal/search"
	"github.com/V4T54L/docqa/internal/store"
	"github.com/V4T54L/docqa/internal/tenant"
	"github.com/V4T54L/docqa/internal/usecase"
)

type testServer struct {
	handler  http.Handler
	admin    http.Handler
	docs     *store.DocumentStore
	base     string
	registry *tenant.Registry
}

func testConfig() *config.Config {
	return &config.Config{
		APIKeyHeader:    "X-API-KEY",
		AuthExemptPaths: []string{"/", "/docs", "/openapi.json", "/redoc", "/health"},
		RequestTimeout:  5 * time.Second,
		MaxRequestBytes: 4096,
		RateLimitRPS:    1000,
		RateLimitBurst:  1000,
	}
}

func writeDoc(t *testing.T, base, tenantDir, name, content string) {
	t.Helper()
	dir := filepath.Join(base, tenantDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	base := t.TempDir()
	writeDoc(t, base, "tenanta", "procedure_resiliation.txt",
		"La résiliation doit être enregistrée dans le CRM. Le client reçoit un email de confirmation.")
	writeDoc(t, base, "tenanta", "contrat_cadre.txt", "Le contrat cadre couvre la maintenance annuelle.")
	writeDoc(t, base, "tenantb", "guide_vacances.txt", "Les congés sont posés dans le portail RH. Validation par le manager.")

	registry, err := tenant.NewRegistry(tenant.Table{
		Keys:         map[string]string{"tenantA_key": "tenantA", "tenantB_key": "tenantB"},
		DisplayNames: map[string]string{"tenantA": "Tenant A", "tenantB": "Tenant B"},
	})
	require.NoError(t, err)

	docs := store.New(base, logger, m)
	require.NoError(t, docs.LoadAll(t.Context(), registry.TenantIDs(), 2))

	engine := search.NewKeywordEngine(docs, logger, m)
	ask := usecase.NewAskUseCase(engine, docs, logger, usecase.WithMetrics(m))
	reload := usecase.NewReloadUseCase(docs, registry, nil, logger)

	return &testServer{
		handler:  NewRouter(cfg, logger, m, registry, docs, ask),
		admin:    NewAdminRouter(reload, nil, reg, "", logger),
		docs:     docs,
		base:     base,
		registry: registry,
	}
}

func (s *testServer) do(t *testing.T, method, path, apiKey, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if apiKey != "" {
		req.Header.Set("X-API-KEY", apiKey)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestRouter_Ask(t *testing.T) {
	s := newTestServer(t, testConfig())

	t.Run("Answer From Own Documents", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/ask", "tenantA_key", `{"question": "Comment enregistrer une résiliation dans le CRM ?"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		body := decode(t, rr)
		assert.Equal(t, "La résiliation doit être enregistrée dans le CRM.", body["answer"])
		assert.Equal(t, "procedure_resiliation.txt", body["source"])
		assert.Equal(t, "Tenant A", body["tenant"])
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})

	t.Run("Other Tenant Cannot See Documents", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/ask", "tenantB_key", `{"question": "Comment enregistrer une résiliation dans le CRM ?"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		body := decode(t, rr)
		assert.Equal(t, "No information available for this client.", body["answer"])
		assert.Nil(t, body["source"])
		assert.Equal(t, "Tenant B", body["tenant"])
	})

	t.Run("Body Tenant Field Ignored", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/ask", "tenantB_key", `{"question": "résiliation CRM", "tenant_id": "tenantA"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		body := decode(t, rr)
		assert.Nil(t, body["source"])
		assert.Equal(t, "Tenant B", body["tenant"])
	})

	t.Run("Missing Key", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/ask", "", `{"question": "résiliation"}`)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"detail":"Missing X-API-KEY header","error":"unauthorized"}`, rr.Body.String())
	})

	t.Run("Invalid Key", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/ask", "tenantC_key", `{"question": "résiliation"}`)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"detail":"Invalid API key","error":"unauthorized"}`, rr.Body.String())
	})

	t.Run("Empty Question", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/ask", "tenantA_key", `{"question": ""}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "validation_error", decode(t, rr)["error"])
	})

	t.Run("Question Too Long", func(t *testing.T) {
		q := strings.Repeat("é", 1001)
		rr := s.do(t, http.MethodPost, "/ask", "tenantA_key", `{"question": "`+q+`"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("Question At Limit", func(t *testing.T) {
		q := strings.Repeat("é", 1000)
		rr := s.do(t, http.MethodPost, "/ask", "tenantA_key", `{"question": "`+q+`"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Only Stop Words", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/ask", "tenantA_key", `{"question": "the and of"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "No information available for this client.", decode(t, rr)["answer"])
	})
}

func TestRouter_TenantEndpoints(t *testing.T) {
	s := newTestServer(t, testConfig())

	rr := s.do(t, http.MethodGet, "/documents", "tenantA_key", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `["contrat_cadre.txt","procedure_resiliation.txt"]`, rr.Body.String())

	rr = s.do(t, http.MethodGet, "/documents", "tenantB_key", "")
	assert.JSONEq(t, `["guide_vacances.txt"]`, rr.Body.String())

	rr = s.do(t, http.MethodGet, "/tenant/info", "tenantA_key", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"tenant_id":"tenantA","display_name":"Tenant A","document_count":2}`, rr.Body.String())

	rr = s.do(t, http.MethodGet, "/documents", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_PublicEndpoints(t *testing.T) {
	s := newTestServer(t, testConfig())

	rr := s.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 2, body["tenants_loaded"])
	_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err)

	rr = s.do(t, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"name":"Multi-Tenant SaaS API","version":"1.0.0","description":"Multi-tenant document Q&A system with strict data isolation","docs":"/docs","health":"/health"}`, rr.Body.String())
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	s := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/documents", "tenantA_key", "").Code)
	rr := s.do(t, http.MethodGet, "/documents", "tenantA_key", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.JSONEq(t, `{"detail":"Rate limit exceeded","error":"rate_limited"}`, rr.Body.String())
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/documents", "tenantB_key", "").Code)
}

func TestRouter_PayloadTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRequestBytes = 64
	s := newTestServer(t, cfg)

	rr := s.do(t, http.MethodPost, "/ask", "tenantA_key", `{"question": "`+strings.Repeat("x", 200)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestAdminRouter_ReloadAndMetrics(t *testing.T) {
	s := newTestServer(t, testConfig())

	// A new document is invisible until the tenant is reloaded.
	writeDoc(t, s.base, "tenantb", "teletravail.txt", "Le télétravail est autorisé deux jours par semaine.")
	rr := s.do(t, http.MethodPost, "/ask", "tenantB_key", `{"question": "télétravail autorisé ?"}`)
	assert.Nil(t, decode(t, rr)["source"])

	req := httptest.NewRequest(http.MethodPost, "/admin/tenants/tenantB/reload", nil)
	adm := httptest.NewRecorder()
	s.admin.ServeHTTP(adm, req)
	require.Equal(t, http.StatusOK, adm.Code)
	assert.JSONEq(t, `{"tenant_id":"tenantB","document_count":2}`, adm.Body.String())

	rr = s.do(t, http.MethodPost, "/ask", "tenantB_key", `{"question": "télétravail autorisé ?"}`)
	body := decode(t, rr)
	assert.Equal(t, "teletravail.txt", body["source"])
	assert.Equal(t, "Le télétravail est autorisé deux jours par semaine.", body["answer"])

	req = httptest.NewRequest(http.MethodPost, "/admin/tenants/tenantZ/reload", nil)
	adm = httptest.NewRecorder()
	s.admin.ServeHTTP(adm, req)
	assert.Equal(t, http.StatusNotFound, adm.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	adm = httptest.NewRecorder()
	s.admin.ServeHTTP(adm, req)
	require.Equal(t, http.StatusOK, adm.Code)
	assert.Contains(t, adm.Body.String(), `docqa_store_documents_loaded{tenant="tenantB"} 2`)
	assert.Contains(t, adm.Body.String(), "docqa_ask_total")

	// Stream routes are absent without an audit stream.
	req = httptest.NewRequest(http.MethodGet, "/admin/streams/docqa:audit/groups", nil)
	adm = httptest.NewRecorder()
	s.admin.ServeHTTP(adm, req)
	assert.Equal(t, http.StatusNotFound, adm.Code)
}

func TestAdminRouter_RequiresToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	registry, err := tenant.NewRegistry(tenant.Table{Keys: map[string]string{"k": "tenantA"}})
	require.NoError(t, err)
	docs := store.New(t.TempDir(), logger, metrics.New(reg))
	h := NewAdminRouter(usecase.NewReloadUseCase(docs, registry, nil, logger), nil, reg, "s3cret", logger)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	tok, err := token.Generate("ops", "s3cret", time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/admin/reload", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"tenants":{"tenantA":0}}`, rr.Body.String())

	// Health and metrics stay open.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
