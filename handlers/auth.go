package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slayerbot/panel/internal/apierr"
	"github.com/slayerbot/panel/internal/models"
	"github.com/slayerbot/panel/internal/oauth"
	"github.com/slayerbot/panel/pkg/logger"
	"github.com/slayerbot/panel/pkg/middleware"
	"go.uber.org/zap"
)

// SessionIssuer is satisfied by *tokens.Codec.
type SessionIssuer interface {
	Issue(id *models.Identity) (string, time.Time, error)
	TTL() time.Duration
}

// CallbackRequest is the body of POST /auth/discord/callback.
type CallbackRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// TokenResponse is returned after a successful code exchange.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	exchanger oauth.Exchanger
	sessions  SessionIssuer
}

func NewAuthHandler(ex oauth.Exchanger, s SessionIssuer) *AuthHandler {
	return &AuthHandler{exchanger: ex, sessions: s}
}

// Register routes under /auth. The callback goes on public; /auth/me goes on
// protected, which must already carry the session check.
func (h *AuthHandler) Register(public, protected *gin.RouterGroup) {
	public.POST("/auth/discord/callback", h.Callback)
	protected.GET("/auth/me", h.Me)
}

// Callback exchanges a Discord authorization code for a panel session token.
func (h *AuthHandler) Callback(c *gin.Context) {
	var req CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		apierr.Respond(c, apierr.Validation(apierr.CodeInvalidBody, "Request body must be a JSON object"))
		return
	}
	if req.Code == "" {
		apierr.Respond(c, apierr.Validation(apierr.CodeMissingCode, "Authorization code is required"))
		return
	}
	if req.RedirectURI != "" && req.RedirectURI != h.exchanger.RedirectURI() {
		apierr.Respond(c, apierr.Validation(apierr.CodeRedirectMismatch, "redirect_uri does not match the registered redirect"))
		return
	}

	ctx := c.Request.Context()
	tok, err := h.exchanger.Exchange(ctx, req.Code)
	if err != nil {
		logger.L().Warn("discord code exchange failed", zap.Int("code_len", len(req.Code)), zap.Error(err))
		if errors.Is(err, oauth.ErrUpstreamAuth) {
			apierr.Respond(c, apierr.UpstreamAuth(err))
			return
		}
		apierr.Respond(c, apierr.Upstream("Authentication failed", err))
		return
	}

	user, err := h.exchanger.FetchUser(ctx, tok.AccessToken)
	if err != nil {
		logger.L().Error("discord user lookup failed", zap.Error(err))
		apierr.Respond(c, apierr.Upstream("Authentication failed", err))
		return
	}

	signed, _, err := h.sessions.Issue(&models.Identity{User: *user, AccessToken: tok.AccessToken})
	if err != nil {
		apierr.Respond(c, apierr.Internal(err))
		return
	}
	logger.Infof("user %s (%s) logged in", user.ID, user.Username)
	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.sessions.TTL() / time.Second),
	})
}

// Me returns the identity embedded in the verified session token.
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		apierr.Respond(c, apierr.MissingToken())
		return
	}
	c.JSON(http.StatusOK, id.User)
}
