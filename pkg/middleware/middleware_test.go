package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/slayerbot/panel/pkg/logger"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecovery_ReturnsInternalError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	defer logger.Use(zap.New(core))()

	g := gin.New()
	g.Use(RequestID(), Recovery())
	g.GET("/boom", func(c *gin.Context) { panic("secret internal detail") })

	w := hit(g, "/boom")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"InternalError","message":"Internal server error"}`, w.Body.String())
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestRequestID(t *testing.T) {
	g := gin.New()
	g.Use(RequestID())
	g.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := hit(g, "/")
	_, err := uuid.Parse(w.Body.String())
	require.NoError(t, err)
	require.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, "abc-123", w.Body.String())
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	defer logger.Use(zap.New(core))()

	g := gin.New()
	g.Use(RequestID(), RequestLogger())
	g.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	g.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	hit(g, "/ok")
	hit(g, "/missing")

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, int64(404), entries[1].ContextMap()["status"])
	require.NotEmpty(t, entries[0].ContextMap()["request_id"])
}

func TestCORS(t *testing.T) {
	g := gin.New()
	g.Use(CORS([]string{"http://localhost:5173", "https://panel.example/"}))
	g.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://panel.example")
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "https://panel.example", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w = httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}
