package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slayerbot/panel/internal/apierr"
	"github.com/slayerbot/panel/internal/models"
	"github.com/slayerbot/panel/internal/tokens"
	"github.com/slayerbot/panel/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newLimitedRouter allows two requests per client IP; the bucket does not
// refill within a test run.
func newLimitedRouter(codec *tokens.Codec) *gin.Engine {
	r := gin.New()
	APIRoutes{
		Auth:    NewAuthHandler(&fakeExchanger{}, codec),
		Session: middleware.RequireSession(codec),
		PreAuth: []gin.HandlerFunc{middleware.RateLimitMiddleware(0.001, 2)},
	}.Register(r.Group("/api"))
	return r
}

func getMe(r http.Handler, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAPIRoutes_RateLimitsAuthMe(t *testing.T) {
	codec := tokens.NewCodec(testSecret, time.Hour)
	tok, _, err := codec.Issue(&models.Identity{User: models.User{ID: "42"}, AccessToken: "at"})
	require.NoError(t, err)

	r := newLimitedRouter(codec)
	var got []int
	for i := 0; i < 3; i++ {
		got = append(got, getMe(r, tok).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, got)
}

func TestAPIRoutes_RateLimitsBadTokens(t *testing.T) {
	r := newLimitedRouter(tokens.NewCodec(testSecret, time.Hour))

	var got []int
	for _, bearer := range []string{"bogus", "", "bogus"} {
		got = append(got, getMe(r, bearer).Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, got)

	w := getMe(r, "bogus")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, apierr.CodeRateLimited, errBody(t, w).Error)
}

func TestAPIRoutes_CallbackSharesIPBudget(t *testing.T) {
	r := newLimitedRouter(tokens.NewCodec(testSecret, time.Hour))

	require.Equal(t, http.StatusUnauthorized, getMe(r, "bogus").Code)
	require.Equal(t, http.StatusOK, postJSON(r, "/api/auth/discord/callback", `{"code":"good"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, postJSON(r, "/api/auth/discord/callback", `{"code":"good"}`).Code)
}
