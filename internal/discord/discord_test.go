package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

// rewrite sends every request to the test server, keeping the path.
type rewrite struct {
	target *url.URL
	base   http.RoundTripper
}

func (r rewrite) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = r.target.Scheme
	req.URL.Host = r.target.Host
	req.Host = r.target.Host
	return r.base.RoundTrip(req)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func unknown(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, http.StatusNotFound, map[string]any{"code": code, "message": msg})
}

// fakeAPI serves guild 123 owned by "owner" with roles:
// @everyone (0), admin (8), manager (32), helper (1024).
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v9/guilds/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "123":
			writeJSON(w, http.StatusOK, map[string]any{
				"id":       "123",
				"name":     "Slayer HQ",
				"owner_id": "owner",
				"roles": []map[string]any{
					{"id": "123", "name": "@everyone", "permissions": "0"},
					{"id": "r-admin", "name": "admin", "permissions": "8"},
					{"id": "r-manager", "name": "manager", "permissions": "32"},
					{"id": "r-helper", "name": "helper", "permissions": "1024"},
				},
			})
		case "500":
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
		default:
			unknown(w, discordgo.ErrCodeUnknownGuild, "Unknown Guild")
		}
	})
	mux.HandleFunc("GET /api/v9/guilds/{id}/members/{uid}", func(w http.ResponseWriter, r *http.Request) {
		roles := map[string][]string{
			"admin":   {"r-admin"},
			"manager": {"r-helper", "r-manager"},
			"helper":  {"r-helper"},
		}
		rs, ok := roles[r.PathValue("uid")]
		if !ok {
			unknown(w, discordgo.ErrCodeUnknownMember, "Unknown Member")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": r.PathValue("uid")}, "roles": rs})
	})
	mux.HandleFunc("GET /api/v9/guilds/{id}/channels", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": "5", "name": "voice", "type": 2, "position": 0},
			{"id": "4", "name": "general", "type": 0, "position": 2, "parent_id": "9"},
			{"id": "3", "name": "announcements", "type": 5, "position": 1},
			{"id": "9", "name": "Text", "type": 4, "position": 0},
			{"id": "2", "name": "logs", "type": 0, "position": 2},
			{"id": "7", "name": "forum", "type": 15, "position": 3},
		})
	})
	mux.HandleFunc("GET /api/v9/users/@me/guilds", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-at" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "401: Unauthorized", "code": 0})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": "123", "name": "Slayer HQ", "icon": "abc", "owner": false, "permissions": "8", "features": []string{"COMMUNITY"}},
			{"id": "456", "name": "Other", "icon": nil, "owner": false, "permissions": "1024", "features": []string{}},
			{"id": "789", "name": "Mine", "owner": true, "permissions": "0"},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestBot(t *testing.T, srv *httptest.Server) *Bot {
	t.Helper()
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	b, err := NewBot("bot-token", &http.Client{Transport: rewrite{target: target, base: http.DefaultTransport}})
	require.NoError(t, err)
	return b
}

func TestOracle_CanManage(t *testing.T) {
	o := NewOracle(newTestBot(t, fakeAPI(t)))
	ctx := context.Background()

	require.True(t, o.CanManage(ctx, "owner", "123"))
	require.True(t, o.CanManage(ctx, "admin", "123"))
	require.True(t, o.CanManage(ctx, "manager", "123"))
	require.False(t, o.CanManage(ctx, "helper", "123"))
	require.False(t, o.CanManage(ctx, "stranger", "123"), "non-member denies")
	require.False(t, o.CanManage(ctx, "admin", "999"), "unknown guild denies")
	require.False(t, o.CanManage(ctx, "admin", "500"), "upstream failure denies")
}

func TestOracle_CapabilitiesOwner(t *testing.T) {
	o := NewOracle(newTestBot(t, fakeAPI(t)))
	caps, err := o.Capabilities(context.Background(), "owner", "123")
	require.NoError(t, err)
	require.True(t, caps.Owner)
	require.True(t, caps.Administrator)
}

func TestOracle_UpstreamUnreachable(t *testing.T) {
	srv := fakeAPI(t)
	b := newTestBot(t, srv)
	srv.Close()
	require.False(t, NewOracle(b).CanManage(context.Background(), "admin", "123"))
}

func TestBot_Channels_FilterAndSort(t *testing.T) {
	b := newTestBot(t, fakeAPI(t))
	chs, err := b.Channels(context.Background(), "123")
	require.NoError(t, err)

	var ids []string
	for _, c := range chs {
		ids = append(ids, c.ID)
	}
	require.Equal(t, []string{"3", "2", "4"}, ids)
	require.Nil(t, chs[0].ParentID)
	require.NotNil(t, chs[2].ParentID)
	require.Equal(t, "9", *chs[2].ParentID)

	again, err := b.Channels(context.Background(), "123")
	require.NoError(t, err)
	require.Equal(t, chs, again)
}

func TestBot_Channels_UnknownGuild(t *testing.T) {
	b := newTestBot(t, fakeAPI(t))
	_, err := b.Channels(context.Background(), "999")
	require.ErrorIs(t, err, ErrGuildNotFound)
}

func TestBot_GuildFromState(t *testing.T) {
	b := newTestBot(t, fakeAPI(t))
	require.False(t, b.InCache("321"))
	require.NoError(t, b.Session().State.GuildAdd(&discordgo.Guild{ID: "321", Name: "cached"}))
	require.True(t, b.InCache("321"))

	g, err := b.Guild(context.Background(), "321")
	require.NoError(t, err)
	require.Equal(t, "cached", g.Name)
}

func TestUserGuilds(t *testing.T) {
	b := newTestBot(t, fakeAPI(t))
	require.NoError(t, b.Session().State.GuildAdd(&discordgo.Guild{ID: "123"}))

	guilds, err := NewUserGuilds(b).UserGuilds(context.Background(), "user-at")
	require.NoError(t, err)
	require.Len(t, guilds, 3)

	require.Equal(t, "123", guilds[0].ID)
	require.True(t, guilds[0].HasBot)
	require.True(t, guilds[0].CanManage)
	require.Equal(t, "8", guilds[0].Permissions)
	require.Equal(t, "abc", *guilds[0].Icon)
	require.Equal(t, []string{"COMMUNITY"}, guilds[0].Features)

	require.False(t, guilds[1].HasBot)
	require.False(t, guilds[1].CanManage)
	require.Nil(t, guilds[1].Icon)

	require.True(t, guilds[2].CanManage, "owner can manage")
	require.NotNil(t, guilds[2].Features)
}

func TestUserGuilds_RevokedToken(t *testing.T) {
	b := newTestBot(t, fakeAPI(t))
	_, err := NewUserGuilds(b).UserGuilds(context.Background(), "revoked")
	require.Error(t, err)
}

func TestFilterTextChannels_TieBreak(t *testing.T) {
	out := FilterTextChannels([]*discordgo.Channel{
		{ID: "100", Type: discordgo.ChannelTypeGuildText, Position: 1},
		{ID: "99", Type: discordgo.ChannelTypeGuildText, Position: 1},
		nil,
		{ID: "1", Type: discordgo.ChannelTypeGuildVoice, Position: 0},
	})
	require.Len(t, out, 2)
	require.Equal(t, "99", out[0].ID)
	require.Equal(t, "100", out[1].ID)
}

// flakyAPI answers channels and user guilds with 502 and members with 429,
// counting every request it sees.
func flakyAPI(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v9/guilds/{id}/channels", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadGateway, map[string]any{"message": "bad gateway"})
	})
	mux.HandleFunc("GET /api/v9/users/@me/guilds", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadGateway, map[string]any{"message": "bad gateway"})
	})
	mux.HandleFunc("GET /api/v9/guilds/{id}/members/{uid}", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"message": "You are being rate limited.", "retry_after": 0.5, "global": false})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestBot_FailsFastOnBadGateway(t *testing.T) {
	srv, calls := flakyAPI(t)
	b := newTestBot(t, srv)
	require.NoError(t, b.Session().State.GuildAdd(&discordgo.Guild{ID: "123"}))

	_, err := b.Channels(context.Background(), "123")
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load(), "no retry after 502")
}

func TestBot_FailsFastOnRateLimit(t *testing.T) {
	srv, calls := flakyAPI(t)
	b := newTestBot(t, srv)

	_, err := b.Member(context.Background(), "123", "admin")
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load(), "no retry after 429")
}

func TestUserGuilds_FailsFastOnBadGateway(t *testing.T) {
	srv, calls := flakyAPI(t)
	_, err := NewUserGuilds(newTestBot(t, srv)).UserGuilds(context.Background(), "user-at")
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load(), "no retry after 502")
}
