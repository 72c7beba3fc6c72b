package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slayerbot/panel/handlers"
	"github.com/slayerbot/panel/internal/client"
	"github.com/slayerbot/panel/internal/config"
	"github.com/slayerbot/panel/internal/models"
	"github.com/slayerbot/panel/internal/sessions"
	"github.com/slayerbot/panel/internal/settings/service"
	"github.com/slayerbot/panel/internal/tokens"
	"github.com/slayerbot/panel/pkg/middleware"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type stubExchanger struct{}

func (stubExchanger) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "discord-" + code}, nil
}

func (stubExchanger) FetchUser(context.Context, string) (*models.User, error) {
	return &models.User{ID: "42", Username: "alice", Discriminator: "0"}, nil
}

func (stubExchanger) RedirectURI() string { return "http://localhost:5173/callback" }

type stubDiscord struct{}

func (stubDiscord) UserGuilds(context.Context, string) ([]models.GuildSummary, error) {
	return []models.GuildSummary{{ID: "123", Name: "Slayer HQ", HasBot: true, CanManage: true, Features: []string{}}}, nil
}

func (stubDiscord) Channels(context.Context, string) ([]models.Channel, error) {
	return []models.Channel{{ID: "555", Name: "mod-log"}}, nil
}

func (stubDiscord) CanManage(_ context.Context, userID, guildID string) bool {
	return userID == "42" && guildID == "123"
}

func newTestApp(t *testing.T) (*app, *bytes.Buffer, *service.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec := tokens.NewCodec("testsecret123456789012345678901234", time.Hour)
	settings := service.NewMemoryService()
	r := gin.New()
	api := r.Group("/api")
	handlers.APIRoutes{
		Auth:        handlers.NewAuthHandler(stubExchanger{}, codec),
		Guilds:      handlers.NewGuildsHandler(stubDiscord{}, stubDiscord{}, settings),
		Session:     middleware.RequireSession(codec),
		GuildAccess: middleware.RequireGuildAccess(stubDiscord{}, "guildId"),
	}.Register(api)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	cfg := &config.ClientConfig{APIURL: srv.URL + "/api", ClientID: "1", RedirectURI: "http://localhost:5173/callback"}
	store := sessions.NewMemoryStore()
	c := client.New(cfg.APIURL, nil, sessions.TokenSource(context.Background(), store))
	out := &bytes.Buffer{}
	return &app{cfg: cfg, api: c, session: sessions.NewManager(store, c), out: out}, out, settings
}

func TestPanelctl_LoginAndEdit(t *testing.T) {
	a, out, settings := newTestApp(t)
	ctx := context.Background()

	require.Error(t, a.run(ctx, "whoami", nil), "commands need a session")

	require.NoError(t, a.run(ctx, "callback", []string{"http://localhost:5173/callback?code=abc"}))
	require.Contains(t, out.String(), "logged in as alice")

	out.Reset()
	require.NoError(t, a.run(ctx, "servers", nil))
	require.Contains(t, out.String(), "Slayer HQ")

	out.Reset()
	require.NoError(t, a.run(ctx, "logs", []string{"123", "set", "modLog", "555"}))
	require.Contains(t, out.String(), "saved")
	require.Contains(t, out.String(), "#mod-log (555)")
	doc, err := settings.FindLogChannels(ctx, "123")
	require.NoError(t, err)
	require.Equal(t, "555", *doc.ModLog)
	require.Nil(t, doc.MuteLog)

	out.Reset()
	require.NoError(t, a.run(ctx, "language", []string{"123"}))
	require.Contains(t, out.String(), "tr: Turkish")

	require.NoError(t, a.run(ctx, "language", []string{"123", "set", "en"}))
	lang, err := settings.FindLanguage(ctx, "123")
	require.NoError(t, err)
	require.Equal(t, models.Language("en"), lang.Language)

	require.Error(t, a.run(ctx, "language", []string{"123", "set", "xx"}))
	require.Error(t, a.run(ctx, "logs", []string{"456"}), "forbidden guild")

	require.NoError(t, a.run(ctx, "logout", nil))
	require.Error(t, a.run(ctx, "servers", nil))
}

func TestPanelctl_CallbackFailures(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()

	err := a.run(ctx, "callback", []string{"http://localhost:5173/callback?error=access_denied"})
	require.ErrorContains(t, err, client.ReasonAuthFailed)

	err = a.run(ctx, "callback", []string{"http://localhost:5173/callback?state=x"})
	require.ErrorContains(t, err, client.ReasonNoCode)
}
