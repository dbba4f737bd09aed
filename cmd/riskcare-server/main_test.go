package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/riskcare/internal/config"
)

func memoryConfig(scorerURL string) *config.Config {
	return &config.Config{
		Port:          "0",
		Env:           "test",
		StoreDriver:   config.StoreMemory,
		ScorerURL:     scorerURL,
		ScorerTimeout: time.Second,
		CORSOrigins:   []string{"http://localhost:5173"},
		BodyLimit:     "1M",
	}
}

func newTestApp(t *testing.T, scorer http.HandlerFunc) *app {
	t.Helper()
	srv := httptest.NewServer(scorer)
	t.Cleanup(srv.Close)

	a, err := newApp(context.Background(), memoryConfig(srv.URL), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { a.close(context.Background()) })

	assert.Nil(t, a.pool)
	assert.Nil(t, a.redis)
	assert.Nil(t, a.events)
	return a
}

func healthyScorer(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path == "/health" {
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
		return
	}
	_, _ = w.Write([]byte(`{"risk_score": 12.5, "risk_category": "Low"}`))
}

func TestRouter_Health(t *testing.T) {
	e := newTestApp(t, healthyScorer).router()

	for _, path := range []string{"/health", "/health/scorer"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"), path)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"), path)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/db", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "no database route on the memory store")
}

func TestRouter_CreatePatientThenMetrics(t *testing.T) {
	e := newTestApp(t, healthyScorer).router()

	body := `{"clinician_id": 3, "age": 30, "sex": "female", "social_life": "village", "bmi": 22}`
	req := httptest.NewRequest(http.MethodPost, "/api/patients", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"risk_category":"low"`)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "riskcare_patient_workflow_total")
	assert.Contains(t, rec.Body.String(), "riskcare_http_requests_total")
}

func TestRouter_UnknownRouteUsesEnvelope(t *testing.T) {
	e := newTestApp(t, healthyScorer).router()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestRouter_ScorerDownReportsUnhealthy(t *testing.T) {
	e := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}).router()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/scorer", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
