package controller_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"content-optimizer-be/internal/controller"
	"content-optimizer-be/internal/pkg/logger"
	"content-optimizer-be/internal/pkg/serverutils"
	"content-optimizer-be/internal/repository/memory"
	"content-optimizer-be/internal/service"
	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/corrector"
	"content-optimizer-be/pkg/seo/issue"
	"content-optimizer-be/pkg/seo/optimizer"
	"content-optimizer-be/pkg/seo/prompt"
	"content-optimizer-be/pkg/seo/recovery"
	"content-optimizer-be/pkg/seo/seotest"
	"content-optimizer-be/pkg/seo/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, caps ...corrector.Capability) *fiber.App {
	t.Helper()
	log := logger.NewNop()
	var corr *corrector.Corrector
	if len(caps) > 0 {
		rh := recovery.NewHandler(recovery.Options{MaxAttempts: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 1}, log)
		corr = corrector.NewCorrector(caps, rh, log, 10)
	}
	pipeline := validation.NewPipeline(
		issue.NewDetector(log),
		validation.NewCache(validation.DefaultCacheOptions(), log),
		prompt.NewGenerator(nil),
		corr,
		log,
	)
	opt, err := optimizer.New(optimizer.Deps{Pipeline: pipeline, Logger: log}, seo.DefaultConfig())
	require.NoError(t, err)
	svc := service.NewOptimizerService(opt, pipeline, memory.NewSessionRepository(time.Minute), nil, log)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware(controller.StatusFor))
	controller.NewOptimizerController(svc).RegisterRoutes(app.Group("/api"))
	return app
}

func documentBody(d seo.Document) map[string]interface{} {
	return map[string]interface{}{
		"title":            d.Title,
		"body":             d.Body,
		"meta_description": d.MetaDescription,
		"focus_keyword":    d.FocusKeyword,
	}
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return resp.StatusCode, decoded
}

func TestOptimizerRoutes(t *testing.T) {
	app := newApp(t)
	missingKeyword := seotest.Compliant()
	missingKeyword.FocusKeyword = ""

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		code   int
	}{
		{name: "validate", method: http.MethodPost, path: "/api/optimizer/v1/validate", body: map[string]interface{}{"document": documentBody(seotest.ShortMeta())}, code: http.StatusOK},
		{name: "validate without keyword", method: http.MethodPost, path: "/api/optimizer/v1/validate", body: map[string]interface{}{"document": documentBody(missingKeyword)}, code: http.StatusBadRequest},
		{name: "optimize", method: http.MethodPost, path: "/api/optimizer/v1/optimize", body: map[string]interface{}{"document": documentBody(seotest.Compliant()), "session_id": "s-1"}, code: http.StatusOK},
		{name: "async without bus", method: http.MethodPost, path: "/api/optimizer/v1/optimize/async", body: map[string]interface{}{"document": documentBody(seotest.Compliant())}, code: http.StatusServiceUnavailable},
		{name: "unknown session", method: http.MethodGet, path: "/api/optimizer/v1/sessions/nope", code: http.StatusNotFound},
		{name: "show config", method: http.MethodGet, path: "/api/optimizer/v1/config", code: http.StatusOK},
		{name: "invalid config patch", method: http.MethodPatch, path: "/api/optimizer/v1/config", body: map[string]interface{}{"max_iterations": 0}, code: http.StatusBadRequest},
		{name: "override missing reason", method: http.MethodPut, path: "/api/optimizer/v1/overrides", body: map[string]interface{}{"field": "title"}, code: http.StatusBadRequest},
		{name: "cache stats", method: http.MethodGet, path: "/api/optimizer/v1/cache/stats", code: http.StatusOK},
		{name: "corrections", method: http.MethodGet, path: "/api/optimizer/v1/corrections", code: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.code == http.StatusOK, body["success"])
		})
	}
}

func TestOptimizeThenShowSession(t *testing.T) {
	app := newApp(t)

	code, _ := do(t, app, http.MethodPost, "/api/optimizer/v1/optimize", map[string]interface{}{
		"document":   documentBody(seotest.Compliant()),
		"session_id": "s-42",
	})
	require.Equal(t, http.StatusOK, code)

	code, body := do(t, app, http.MethodGet, "/api/optimizer/v1/sessions/s-42", nil)
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "s-42", data["session_id"])
	summary := data["summary"].(map[string]interface{})
	assert.Equal(t, string(optimizer.ReasonInitialCompliance), summary["termination_reason"])
}

func TestConfigPatchAndOverrides(t *testing.T) {
	app := newApp(t)

	code, body := do(t, app, http.MethodPatch, "/api/optimizer/v1/config", map[string]interface{}{"max_title_length": 70})
	require.Equal(t, http.StatusOK, code)
	cfg := body["data"].(map[string]interface{})["config"].(map[string]interface{})
	assert.Equal(t, float64(70), cfg["max_title_length"])

	code, body = do(t, app, http.MethodPut, "/api/optimizer/v1/overrides", map[string]interface{}{
		"field": "title", "reason": "brand", "skip_validation": true,
	})
	require.Equal(t, http.StatusOK, code)
	overrides := body["data"].(map[string]interface{})["overrides"].([]interface{})
	assert.Len(t, overrides, 1)

	code, body = do(t, app, http.MethodDelete, "/api/optimizer/v1/overrides", map[string]interface{}{"field": "title", "reason": "brand"})
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["data"].(map[string]interface{})["overrides"])
}

func TestCorrectionsRoute(t *testing.T) {
	app := newApp(t, seotest.Fixer("primary"))

	code, _ := do(t, app, http.MethodPost, "/api/optimizer/v1/validate", map[string]interface{}{
		"document":     documentBody(seotest.ShortMeta()),
		"auto_correct": true,
	})
	require.Equal(t, http.StatusOK, code)

	code, body := do(t, app, http.MethodGet, "/api/optimizer/v1/corrections", nil)
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{"primary"}, data["providers"])
	entries := data["entries"].([]interface{})
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]interface{})
	assert.Equal(t, string(seo.IssueMetaDescriptionShort), entry["issue_type"])
	assert.Equal(t, true, entry["success"])
}

func TestValidateRefusesDisabledCorrection(t *testing.T) {
	app := newApp(t, seotest.Fixer("primary"))

	code, _ := do(t, app, http.MethodPatch, "/api/optimizer/v1/config", map[string]interface{}{"auto_correction": false})
	require.Equal(t, http.StatusOK, code)

	code, body := do(t, app, http.MethodPost, "/api/optimizer/v1/validate", map[string]interface{}{
		"document":     documentBody(seotest.ShortMeta()),
		"auto_correct": true,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
}
