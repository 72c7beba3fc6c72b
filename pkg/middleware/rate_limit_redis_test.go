package middleware

import (
	"net/http"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisRateLimitMiddleware_Basic(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	now := fixClock(t, time.Unix(1_700_000_000, 0))

	r := gin.New()
	r.Use(RedisRateLimitMiddleware(client, 2, 10*time.Second))
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, hit(r, "/r").Code)
	require.Equal(t, http.StatusOK, hit(r, "/r").Code)

	w := hit(r, "/r")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "10", w.Header().Get("Retry-After"))

	// next window starts a fresh count
	*now = now.Add(10 * time.Second)
	require.Equal(t, http.StatusOK, hit(r, "/r").Code)
}

func TestRedisRateLimitMiddleware_RedisDown(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1})
	m.Close()

	r := gin.New()
	r.Use(RedisRateLimitMiddleware(client, 2, time.Minute))
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusInternalServerError, hit(r, "/r").Code)
}

func TestRedisRateLimitMiddleware_NilClientFallsBack(t *testing.T) {
	fixClock(t, time.Unix(1_700_000_000, 0))

	r := gin.New()
	r.Use(RedisRateLimitMiddleware(nil, 1, time.Minute))
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, hit(r, "/r").Code)
	require.Equal(t, http.StatusTooManyRequests, hit(r, "/r").Code)
}
