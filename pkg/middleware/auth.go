package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/slayerbot/panel/internal/apierr"
	"github.com/slayerbot/panel/internal/models"
)

// Context keys set by the auth middlewares.
const (
	IdentityKey = "identity"
	GuildIDKey  = "guildId"
)

// SessionVerifier is the minimal interface the middleware depends on; it is
// satisfied by *tokens.Codec.
type SessionVerifier interface {
	Verify(raw string) (*models.Identity, error)
}

// GuildAuthorizer is satisfied by *discord.Oracle.
type GuildAuthorizer interface {
	CanManage(ctx context.Context, userID, guildID string) bool
}

// bearer extracts the token from an "Authorization: Bearer <token>" header.
func bearer(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// RequireSession verifies the bearer token and stores the identity on the context.
func RequireSession(ver SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearer(c.GetHeader("Authorization"))
		if raw == "" {
			apierr.Respond(c, apierr.MissingToken())
			return
		}
		id, err := ver.Verify(raw)
		if err != nil {
			apierr.Respond(c, apierr.InvalidToken(err))
			return
		}
		c.Set(IdentityKey, id)
		c.Next()
	}
}

// GetIdentity returns the identity stored by RequireSession.
func GetIdentity(c *gin.Context) (*models.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*models.Identity)
	return id, ok && id != nil
}

// RequireGuildAccess denies the request unless the verified identity can
// manage the guild named by the path parameter param.
func RequireGuildAccess(auth GuildAuthorizer, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		guildID := strings.TrimSpace(c.Param(param))
		if guildID == "" {
			apierr.Respond(c, apierr.MissingGuildID())
			return
		}
		id, ok := GetIdentity(c)
		if !ok {
			apierr.Respond(c, apierr.MissingToken())
			return
		}
		if !auth.CanManage(c.Request.Context(), id.ID, guildID) {
			apierr.Respond(c, apierr.Forbidden())
			return
		}
		c.Set(GuildIDKey, guildID)
		c.Next()
	}
}
