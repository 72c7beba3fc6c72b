package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slayerbot/panel/internal/apierr"
	"github.com/slayerbot/panel/internal/discord"
	"github.com/slayerbot/panel/internal/models"
	"github.com/slayerbot/panel/internal/settings/service"
	"github.com/slayerbot/panel/pkg/middleware"
)

// ChannelLister is satisfied by *discord.Bot.
type ChannelLister interface {
	Channels(ctx context.Context, guildID string) ([]models.Channel, error)
}

// SettingsStore is satisfied by *service.Service.
type SettingsStore interface {
	FindOrCreateLogChannels(ctx context.Context, guildID string) (service.LogChannelsResult, error)
	UpdateLogChannels(ctx context.Context, guildID string, patch models.LogChannelPatch) (*models.LogChannels, error)
	FindOrCreateLanguage(ctx context.Context, guildID string) (service.LanguageResult, error)
	UpdateLanguage(ctx context.Context, guildID string, lang models.Language) (*models.GuildLanguage, error)
}

// GuildsHandler serves guild listing, channel listing and the two settings
// documents.
type GuildsHandler struct {
	guilds   discord.GuildLister
	channels ChannelLister
	settings SettingsStore
}

func NewGuildsHandler(g discord.GuildLister, ch ChannelLister, s SettingsStore) *GuildsHandler {
	return &GuildsHandler{guilds: g, channels: ch, settings: s}
}

// Register mounts the routes on an authenticated group. guard runs before
// every guild-scoped route.
func (h *GuildsHandler) Register(rg *gin.RouterGroup, guard gin.HandlerFunc) {
	rg.GET("/guilds", h.List)

	g := rg.Group("/guilds/:guildId", guard)
	g.GET("/channels", h.Channels)
	g.GET("/logs", h.GetLogs)
	g.PUT("/logs", h.PutLogs)
	g.GET("/language", h.GetLanguage)
	g.PUT("/language", h.PutLanguage)
}

func guildID(c *gin.Context) string {
	if id := c.GetString(middleware.GuildIDKey); id != "" {
		return id
	}
	return c.Param("guildId")
}

// List returns the caller's guilds with hasBot and canManage.
func (h *GuildsHandler) List(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		apierr.Respond(c, apierr.MissingToken())
		return
	}
	guilds, err := h.guilds.UserGuilds(c.Request.Context(), id.AccessToken)
	if err != nil {
		apierr.Respond(c, apierr.Upstream("Failed to get user guilds", err))
		return
	}
	c.JSON(http.StatusOK, guilds)
}

// Channels returns the guild's text-capable channels in display order.
func (h *GuildsHandler) Channels(c *gin.Context) {
	chs, err := h.channels.Channels(c.Request.Context(), guildID(c))
	if err != nil {
		apierr.Respond(c, apierr.Upstream("Failed to get guild channels", err))
		return
	}
	c.JSON(http.StatusOK, chs)
}

func (h *GuildsHandler) GetLogs(c *gin.Context) {
	res, err := h.settings.FindOrCreateLogChannels(c.Request.Context(), guildID(c))
	if err != nil {
		apierr.Respond(c, apierr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, res.Doc)
}

// PutLogs merges the categories present in the body; guildId in the body is ignored.
func (h *GuildsHandler) PutLogs(c *gin.Context) {
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil || raw == nil {
		apierr.Respond(c, apierr.Validation(apierr.CodeInvalidBody, "Log channel data is required"))
		return
	}
	patch, err := service.ParseLogChannelPatch(raw)
	if err != nil {
		apierr.Respond(c, apierr.Validation(apierr.CodeInvalidLogChannel, err.Error()))
		return
	}
	doc, err := h.settings.UpdateLogChannels(c.Request.Context(), guildID(c), patch)
	if err != nil {
		apierr.Respond(c, apierr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *GuildsHandler) GetLanguage(c *gin.Context) {
	res, err := h.settings.FindOrCreateLanguage(c.Request.Context(), guildID(c))
	if err != nil {
		apierr.Respond(c, apierr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, res.Doc)
}

type languageRequest struct {
	Language models.Language `json:"language"`
}

func (h *GuildsHandler) PutLanguage(c *gin.Context) {
	var req languageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, apierr.Validation(apierr.CodeInvalidBody, "Language is required"))
		return
	}
	doc, err := h.settings.UpdateLanguage(c.Request.Context(), guildID(c), req.Language)
	switch {
	case errors.Is(err, service.ErrMissingLanguage):
		apierr.Respond(c, apierr.Validation(apierr.CodeInvalidLanguage, "Language is required"))
	case errors.Is(err, service.ErrInvalidLanguage):
		apierr.Respond(c, apierr.Validation(apierr.CodeInvalidLanguage, "Invalid language code"))
	case err != nil:
		apierr.Respond(c, apierr.Internal(err))
	default:
		c.JSON(http.StatusOK, doc)
	}
}
