package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/slayerbot/panel/internal/apierr"
	"github.com/slayerbot/panel/pkg/logger"
	"go.uber.org/zap"
)

// Recovery turns a panic into a 500 InternalError without leaking details.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.L().Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.Stack("stack"))
		apierr.Respond(c, apierr.Internal(fmt.Errorf("panic: %v", recovered)))
	})
}
