package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slayerbot/panel/internal/apierr"
	"github.com/slayerbot/panel/pkg/metrics"
	"golang.org/x/time/rate"
)

// clock is the time source of both limiters.
var clock = time.Now

// minIdle is the shortest time a bucket is kept after its last use.
const minIdle = time.Minute

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiterStore holds one token bucket per key. A bucket idle for longer than
// a full refill is indistinguishable from a new one, so sweep drops it; the
// map is bounded by the keys seen within one idle window.
type limiterStore struct {
	mu        sync.Mutex
	m         map[string]*limiterEntry
	rps       float64
	burst     int
	idle      time.Duration
	lastSweep time.Time
}

func newLimiterStore(rps float64, burst int) *limiterStore {
	idle := 24 * time.Hour
	if rps > 0 {
		idle = time.Duration(float64(burst) / rps * float64(time.Second))
	}
	if idle < minIdle {
		idle = minIdle
	}
	return &limiterStore{m: make(map[string]*limiterEntry), rps: rps, burst: burst, idle: idle}
}

func (s *limiterStore) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.lastSweep) >= s.idle {
		s.sweep(now)
	}
	e, ok := s.m[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rate.Limit(s.rps), s.burst)}
		s.m[key] = e
	}
	e.seen = now
	return e.lim
}

func (s *limiterStore) sweep(now time.Time) {
	for k, e := range s.m {
		if now.Sub(e.seen) >= s.idle {
			delete(s.m, k)
		}
	}
	s.lastSweep = now
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// rateKey prefers the verified user id, so users behind one NAT do not share
// a budget, and falls back to the client IP.
func rateKey(c *gin.Context) string {
	if id, ok := GetIdentity(c); ok {
		return "user:" + id.ID
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

func rejectRateLimited(c *gin.Context, limiter string, retryAfter time.Duration) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
	metrics.RateLimitRejected.WithLabelValues(limiter).Inc()
	apierr.Respond(c, apierr.RateLimited())
}

// RateLimitMiddleware enforces an in-memory token bucket per key.
// rps = allowed events per second, burst = maximum tokens in bucket.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	store := newLimiterStore(rps, burst)
	return func(c *gin.Context) {
		now := clock()
		lim := store.get(rateKey(c), now)
		res := lim.ReserveN(now, 1)
		if !res.OK() {
			rejectRateLimited(c, "memory", time.Second)
			return
		}
		if d := res.DelayFrom(now); d > 0 {
			res.CancelAt(now)
			rejectRateLimited(c, "memory", d)
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
