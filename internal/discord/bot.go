// Package discord wraps the bot session used for guild lookups, the
// bearer-token user guild listing, and the management permission check.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/bwmarrin/discordgo"
	"github.com/slayerbot/panel/internal/models"
	"github.com/slayerbot/panel/pkg/logger"
	"github.com/slayerbot/panel/pkg/metrics"
)

var (
	// ErrGuildNotFound means the guild is unknown to the bot.
	ErrGuildNotFound = errors.New("guild not found or bot is not a member of this guild")
	// ErrMemberNotFound means the user is not a member of the guild.
	ErrMemberNotFound = errors.New("member not found")
)

// Bot is the bot account session. The gateway keeps State populated with the
// guilds the bot belongs to; REST is used when State has no entry.
type Bot struct {
	s *discordgo.Session
}

// NewBot creates a bot session for token. A nil client keeps discordgo's default.
func NewBot(token string, client *http.Client) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	failFast(dg)
	if client != nil {
		dg.Client = client
	}
	return &Bot{s: dg}, nil
}

// failFast turns off discordgo's retries on 502 and 429, so upstream failures
// reach the caller after a single attempt.
func failFast(dg *discordgo.Session) {
	dg.MaxRestRetries = 0
	dg.ShouldRetryOnRateLimit = false
}

// Session exposes the underlying discordgo session.
func (b *Bot) Session() *discordgo.Session { return b.s }

// Open connects to the gateway.
func (b *Bot) Open() error {
	if err := b.s.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	if u := b.s.State.User; u != nil {
		logger.Infof("Bot logged in as %s#%s", u.Username, u.Discriminator)
	}
	return nil
}

// Close closes the gateway connection.
func (b *Bot) Close() error {
	if b.s != nil {
		return b.s.Close()
	}
	return nil
}

// Ready reports whether the gateway has delivered the initial guild set.
func (b *Bot) Ready() bool {
	return b.s.State != nil && b.s.State.User != nil
}

// InCache reports whether guildID is in the bot's cached guild membership.
func (b *Bot) InCache(guildID string) bool {
	_, err := b.s.State.Guild(guildID)
	return err == nil
}

// Guild returns the guild from State, falling back to REST.
func (b *Bot) Guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if g, err := b.s.State.Guild(guildID); err == nil {
		return g, nil
	}
	g, err := b.s.Guild(guildID, discordgo.WithContext(ctx))
	metrics.ObserveUpstream("guild", err)
	if err != nil {
		if isUnknown(err, discordgo.ErrCodeUnknownGuild) {
			return nil, fmt.Errorf("%w: %s", ErrGuildNotFound, guildID)
		}
		return nil, fmt.Errorf("fetch guild %s: %w", guildID, err)
	}
	return g, nil
}

// Member returns the guild member for userID, falling back to REST.
func (b *Bot) Member(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	if m, err := b.s.State.Member(guildID, userID); err == nil {
		return m, nil
	}
	m, err := b.s.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	metrics.ObserveUpstream("guild_member", err)
	if err != nil {
		if isUnknown(err, discordgo.ErrCodeUnknownMember) || isUnknown(err, discordgo.ErrCodeUnknownUser) {
			return nil, fmt.Errorf("%w: %s in %s", ErrMemberNotFound, userID, guildID)
		}
		if isUnknown(err, discordgo.ErrCodeUnknownGuild) {
			return nil, fmt.Errorf("%w: %s", ErrGuildNotFound, guildID)
		}
		return nil, fmt.Errorf("fetch member %s: %w", userID, err)
	}
	return m, nil
}

// textChannel reports whether t can carry log messages.
func textChannel(t discordgo.ChannelType) bool {
	return t == discordgo.ChannelTypeGuildText || t == discordgo.ChannelTypeGuildNews
}

// Channels lists the text-capable channels of guildID in display order.
// Equal positions are ordered by id so the result is deterministic.
func (b *Bot) Channels(ctx context.Context, guildID string) ([]models.Channel, error) {
	if _, err := b.Guild(ctx, guildID); err != nil {
		return nil, err
	}
	chs, err := b.s.GuildChannels(guildID, discordgo.WithContext(ctx))
	metrics.ObserveUpstream("guild_channels", err)
	if err != nil {
		return nil, fmt.Errorf("fetch channels of %s: %w", guildID, err)
	}
	return FilterTextChannels(chs), nil
}

// FilterTextChannels keeps text-capable channels and sorts them by position.
func FilterTextChannels(chs []*discordgo.Channel) []models.Channel {
	out := make([]models.Channel, 0, len(chs))
	for _, ch := range chs {
		if ch == nil || !textChannel(ch.Type) {
			continue
		}
		c := models.Channel{ID: ch.ID, Name: ch.Name, Type: int(ch.Type), Position: ch.Position}
		if ch.ParentID != "" {
			parent := ch.ParentID
			c.ParentID = &parent
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return snowflakeLess(out[i].ID, out[j].ID)
	})
	return out
}

// snowflakeLess orders numeric ids of differing length correctly.
func snowflakeLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func isUnknown(err error, code int) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return false
	}
	if rest.Message != nil && rest.Message.Code == code {
		return true
	}
	return rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound && rest.Message == nil
}
