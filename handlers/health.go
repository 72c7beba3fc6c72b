package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slayerbot/panel/pkg/logger"
)

// ReadinessCheck checks one dependency. Optional failures are reported but
// do not make the service unready.
type ReadinessCheck struct {
	Name     string
	Optional bool
	Check    func(ctx context.Context) error
}

// RegisterHealth mounts GET /health and GET /ready.
func RegisterHealth(r gin.IRoutes, checks ...ReadinessCheck) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		ready := true
		deps := make(map[string]string, len(checks))
		for _, chk := range checks {
			if err := chk.Check(ctx); err != nil {
				logger.Warnf("readiness: %s unavailable: %v", chk.Name, err)
				deps[chk.Name] = "unavailable"
				if !chk.Optional {
					ready = false
				}
				continue
			}
			deps[chk.Name] = "ok"
		}
		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps})
	})
}
