// Package api_test runs HTTP-level smoke tests using net/http/httptest and
// an in-memory engine (memstore + TestOracle, test mode on). These tests do
// NOT require a PostgreSQL database — they verify:
//   - Gin router routing and middleware wiring
//   - Request validation error responses (400)
//   - Domain-error -> HTTP status translation
//   - Response format consistency (success/error envelope)
//   - CORS preflight handling
package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/evetabi/prediction/internal/api"
	"github.com/evetabi/prediction/internal/config"
	"github.com/evetabi/prediction/internal/engine"
	"github.com/evetabi/prediction/internal/oracle"
	"github.com/evetabi/prediction/internal/repository/memstore"
)

// ── Test helpers ──────────────────────────────────────────────────────────────

func testCfg() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Env:  "development",
			Port: "8080",
		},
	}
}

// buildTestRouter wires the router over an in-memory engine (test mode:
// every AccessRequest is accepted as Root) so handler-layer behavior can be
// exercised without a database.
func buildTestRouter(t *testing.T) http.Handler {
	t.Helper()
	eng := engine.New(memstore.New(), oracle.NewTestOracle(), engine.Secp256k1Verifier{}, engine.WithTestMode(true))

	r := api.SetupRouter(api.RouterDeps{
		Engine: eng,
		Hub:    nil,
		Cfg:    testCfg(),
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatalf("response is not valid JSON: %v — body: %s", err, rr.Body.String())
	}
	return m
}

// ── /health ───────────────────────────────────────────────────────────────────

func TestHealthEndpoint(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/metrics", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("GET /metrics = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "prediction_sweep_duration_seconds") {
		t.Errorf("GET /metrics body missing prediction_sweep_duration_seconds collector")
	}
}

// ── Prediction creation — validation layer ────────────────────────────────────

func TestCreatePrediction_MissingFields(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodPost, "/api/predictions", `{}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("POST /api/predictions empty body = %d, want 400", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["success"] != false {
		t.Errorf("response.success should be false on error, got %v", body["success"])
	}
	if body["code"] == nil {
		t.Errorf("error envelope missing 'code', got: %v", body)
	}
}

func TestCreatePrediction_Valid(t *testing.T) {
	h := buildTestRouter(t)
	payload := `{
		"question": "will it rain tomorrow?",
		"judges": ["judge-a", "judge-b", "judge-c"],
		"judge_count": 3,
		"judge_share_ppm": 50000,
		"trading_end": "` + time.Now().Add(72*time.Hour).Format(time.RFC3339) + `",
		"decision_period_sec": 86400
	}`
	rr := do(t, h, http.MethodPost, "/api/predictions", payload, nil)
	if rr.Code != http.StatusCreated {
		t.Errorf("POST /api/predictions valid body = %d, want 201, body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreatePrediction_TradingEndTooSoon(t *testing.T) {
	h := buildTestRouter(t)
	payload := `{
		"question": "too soon?",
		"judges": ["judge-a"],
		"judge_count": 1,
		"trading_end": "` + time.Now().Add(1*time.Hour).Format(time.RFC3339) + `",
		"decision_period_sec": 86400
	}`
	rr := do(t, h, http.MethodPost, "/api/predictions", payload, nil)
	if rr.Code != http.StatusConflict && rr.Code != http.StatusInternalServerError {
		t.Errorf("POST /api/predictions too-soon trading_end = %d, want a domain-error status", rr.Code)
	}
}

// ── Access-request validation (no AccessRequest -> 400 from body binding) ────

func TestAcceptNomination_MissingAccess(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodPost, "/api/predictions/1/judges/accept", `{}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("POST .../judges/accept empty body = %d, want 400", rr.Code)
	}
}

// ── Public read endpoints ─────────────────────────────────────────────────────

func TestListPredictions_IsPublic(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/api/predictions", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("GET /api/predictions = %d, want 200", rr.Code)
	}
}

func TestListJudges_IsPublic(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/api/judges", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("GET /api/judges = %d, want 200", rr.Code)
	}
}

func TestGetPrediction_NotFound(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/api/predictions/999", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("GET /api/predictions/999 = %d, want 404", rr.Code)
	}
}

// ── Error envelope format ─────────────────────────────────────────────────────

func TestErrorEnvelope_HasRequiredFields(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodPost, "/api/predictions", `{}`, nil)
	body := decodeBody(t, rr)

	for _, field := range []string{"success", "error", "code"} {
		if _, ok := body[field]; !ok {
			t.Errorf("error envelope missing field %q, got: %v", field, body)
		}
	}
	if body["success"] != false {
		t.Errorf("error envelope.success = %v, want false", body["success"])
	}
}

// ── CORS headers ──────────────────────────────────────────────────────────────

func TestCORSOptionsRequest(t *testing.T) {
	h := buildTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/predictions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent && rr.Code != http.StatusOK {
		t.Errorf("OPTIONS /api/predictions = %d, want 204 or 200", rr.Code)
	}
	allow := rr.Header().Get("Access-Control-Allow-Methods")
	if !strings.Contains(allow, "POST") {
		t.Errorf("Access-Control-Allow-Methods missing POST, got %q", allow)
	}
}

func TestCORSAllowOrigin_Dev(t *testing.T) {
	h := buildTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	origin := rr.Header().Get("Access-Control-Allow-Origin")
	if origin != "*" {
		t.Errorf("Dev CORS origin = %q, want *", origin)
	}
}
