package discord

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/slayerbot/panel/internal/models"
	"github.com/slayerbot/panel/pkg/metrics"
)

// userGuildPageSize is the maximum page Discord serves for /users/@me/guilds.
const userGuildPageSize = 200

// GuildLister lists the guilds of the user behind a delegated access token.
type GuildLister interface {
	UserGuilds(ctx context.Context, accessToken string) ([]models.GuildSummary, error)
}

// UserGuilds lists guilds with the user's own bearer token and marks which
// ones the bot is in and which ones the user can manage.
type UserGuilds struct {
	bot    *Bot
	client *http.Client
}

// NewUserGuilds returns a lister that shares client with the bot session.
func NewUserGuilds(bot *Bot) *UserGuilds {
	return &UserGuilds{bot: bot, client: bot.s.Client}
}

func (u *UserGuilds) UserGuilds(ctx context.Context, accessToken string) ([]models.GuildSummary, error) {
	dg, err := discordgo.New("Bearer " + accessToken)
	if err != nil {
		return nil, fmt.Errorf("create bearer session: %w", err)
	}
	dg.StateEnabled = false
	failFast(dg)
	dg.Client = u.client

	var all []*discordgo.UserGuild
	after := ""
	for {
		page, err := dg.UserGuilds(userGuildPageSize, "", after, false, discordgo.WithContext(ctx))
		metrics.ObserveUpstream("user_guilds", err)
		if err != nil {
			return nil, fmt.Errorf("fetch user guilds: %w", err)
		}
		all = append(all, page...)
		if len(page) < userGuildPageSize {
			break
		}
		after = page[len(page)-1].ID
	}

	out := make([]models.GuildSummary, 0, len(all))
	for _, g := range all {
		out = append(out, u.summarize(g))
	}
	return out, nil
}

func (u *UserGuilds) summarize(g *discordgo.UserGuild) models.GuildSummary {
	caps := models.CapabilitiesFromBits(g.Permissions)
	caps.Owner = g.Owner

	s := models.GuildSummary{
		ID:          g.ID,
		Name:        g.Name,
		Owner:       g.Owner,
		Permissions: strconv.FormatInt(g.Permissions, 10),
		Features:    make([]string, 0, len(g.Features)),
		HasBot:      u.bot.InCache(g.ID),
		CanManage:   caps.CanManage(),
	}
	if g.Icon != "" {
		icon := g.Icon
		s.Icon = &icon
	}
	for _, f := range g.Features {
		s.Features = append(s.Features, string(f))
	}
	return s
}
