package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func readyBody(t *testing.T, r *gin.Engine) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealth(t *testing.T) {
	r := gin.New()
	RegisterHealth(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReady(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	r := gin.New()
	RegisterHealth(r,
		ReadinessCheck{Name: "mongo", Check: ok},
		ReadinessCheck{Name: "redis", Optional: true, Check: down},
	)
	code, body := readyBody(t, r)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ready", body["status"])
	require.Equal(t, map[string]any{"mongo": "ok", "redis": "unavailable"}, body["deps"])

	r = gin.New()
	RegisterHealth(r, ReadinessCheck{Name: "discord", Check: down})
	code, body = readyBody(t, r)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "not_ready", body["status"])
}
