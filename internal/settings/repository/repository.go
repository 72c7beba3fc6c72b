package repository

import (
	"context"
	"errors"

	"github.com/slayerbot/panel/internal/models"
)

var (
	ErrNotFound = errors.New("settings document not found")
)

// Repository persists the two per-guild settings documents. Every write is
// keyed by guildId and is atomic per document.
type Repository interface {
	FindLogChannels(ctx context.Context, guildID string) (*models.LogChannels, error)
	// CreateLogChannels inserts the all-null document unless one exists and
	// reports whether it was created.
	CreateLogChannels(ctx context.Context, guildID string) (*models.LogChannels, bool, error)
	// UpsertLogChannels writes only the categories present in patch.
	UpsertLogChannels(ctx context.Context, guildID string, patch models.LogChannelPatch) (*models.LogChannels, error)

	FindLanguage(ctx context.Context, guildID string) (*models.GuildLanguage, error)
	CreateLanguage(ctx context.Context, guildID string) (*models.GuildLanguage, bool, error)
	UpsertLanguage(ctx context.Context, guildID string, lang models.Language) (*models.GuildLanguage, error)
}
