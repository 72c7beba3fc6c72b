package discord

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/slayerbot/panel/internal/models"
	"github.com/slayerbot/panel/pkg/logger"
	"go.uber.org/zap"
)

// Oracle decides whether a user may manage a guild's settings.
type Oracle struct {
	bot *Bot
}

func NewOracle(bot *Bot) *Oracle { return &Oracle{bot: bot} }

// Capabilities derives the guild-level rights of userID in guildID from the
// guild owner, the @everyone role and the member's roles.
func (o *Oracle) Capabilities(ctx context.Context, userID, guildID string) (models.Capabilities, error) {
	g, err := o.bot.Guild(ctx, guildID)
	if err != nil {
		return models.Capabilities{}, err
	}
	if g.OwnerID == userID {
		return models.Capabilities{Owner: true, Administrator: true, ManageGuild: true}, nil
	}
	m, err := o.bot.Member(ctx, guildID, userID)
	if err != nil {
		return models.Capabilities{}, err
	}
	return models.CapabilitiesFromBits(basePermissions(g, m)), nil
}

// CanManage never returns an error: unknown guilds, non-members and failed
// lookups all deny.
func (o *Oracle) CanManage(ctx context.Context, userID, guildID string) bool {
	caps, err := o.Capabilities(ctx, userID, guildID)
	if err != nil {
		if !errors.Is(err, ErrGuildNotFound) && !errors.Is(err, ErrMemberNotFound) {
			logger.L().Warn("permission lookup failed",
				zap.String("guild_id", guildID), zap.String("user_id", userID), zap.Error(err))
		}
		return false
	}
	return caps.CanManage()
}

func basePermissions(g *discordgo.Guild, m *discordgo.Member) int64 {
	roles := make(map[string]int64, len(g.Roles))
	for _, r := range g.Roles {
		roles[r.ID] = r.Permissions
	}
	perms := roles[g.ID]
	for _, id := range m.Roles {
		perms |= roles[id]
	}
	return perms
}
