package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/slayerbot/panel/internal/models"
	"github.com/slayerbot/panel/internal/settings/repository"
	"github.com/slayerbot/panel/pkg/metrics"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrInvalidLanguage   = errors.New("invalid language code")
	ErrMissingLanguage   = errors.New("language is required")
	ErrInvalidLogChannel = errors.New("log channel must be a string or null")
)

// LogChannelsResult tells a freshly defaulted document apart from an existing one.
type LogChannelsResult struct {
	Created bool
	Doc     *models.LogChannels
}

// LanguageResult is the language counterpart of LogChannelsResult.
type LanguageResult struct {
	Created bool
	Doc     *models.GuildLanguage
}

// Service is the settings store used by the guild handlers.
type Service struct {
	repo repository.Repository
}

func New(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() *Service {
	return New(repository.NewMemoryRepo())
}

// NewMongoService returns a Service backed by the settings collections of db.
func NewMongoService(db *mongo.Database) *Service {
	return New(repository.NewMongoRepo(db))
}

// FindLogChannels returns repository.ErrNotFound when the guild has no document.
func (s *Service) FindLogChannels(ctx context.Context, guildID string) (*models.LogChannels, error) {
	return s.repo.FindLogChannels(ctx, guildID)
}

// FindOrCreateLogChannels returns the guild's document, creating the
// all-null default on first read.
func (s *Service) FindOrCreateLogChannels(ctx context.Context, guildID string) (LogChannelsResult, error) {
	doc, err := s.repo.FindLogChannels(ctx, guildID)
	if err == nil {
		return LogChannelsResult{Doc: doc}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return LogChannelsResult{}, err
	}
	doc, created, err := s.repo.CreateLogChannels(ctx, guildID)
	if err != nil {
		return LogChannelsResult{}, err
	}
	return LogChannelsResult{Created: created, Doc: doc}, nil
}

// ParseLogChannelPatch validates a raw PUT body. Known categories must hold a
// string or null; an empty string disables the category. guildId and unknown
// keys are dropped.
func ParseLogChannelPatch(raw map[string]json.RawMessage) (models.LogChannelPatch, error) {
	patch := make(models.LogChannelPatch, len(raw))
	for key, val := range raw {
		c, ok := models.ParseLogCategory(key)
		if !ok {
			continue
		}
		if len(val) == 0 || string(val) == "null" {
			patch[c] = nil
			continue
		}
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidLogChannel, key)
		}
		if s = strings.TrimSpace(s); s == "" {
			patch[c] = nil
			continue
		}
		patch[c] = &s
	}
	return patch, nil
}

// UpdateLogChannels merges patch into the guild's document.
func (s *Service) UpdateLogChannels(ctx context.Context, guildID string, patch models.LogChannelPatch) (*models.LogChannels, error) {
	doc, err := s.repo.UpsertLogChannels(ctx, guildID, patch)
	metrics.ObserveSettingsWrite("log_channels", err)
	return doc, err
}

// FindLanguage returns repository.ErrNotFound when the guild has no document.
func (s *Service) FindLanguage(ctx context.Context, guildID string) (*models.GuildLanguage, error) {
	return s.repo.FindLanguage(ctx, guildID)
}

// FindOrCreateLanguage returns the guild's language, creating the default on first read.
func (s *Service) FindOrCreateLanguage(ctx context.Context, guildID string) (LanguageResult, error) {
	doc, err := s.repo.FindLanguage(ctx, guildID)
	if err == nil {
		return LanguageResult{Doc: doc}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return LanguageResult{}, err
	}
	doc, created, err := s.repo.CreateLanguage(ctx, guildID)
	if err != nil {
		return LanguageResult{}, err
	}
	return LanguageResult{Created: created, Doc: doc}, nil
}

// UpdateLanguage stores lang after checking it against the supported set.
// Invalid codes leave the stored value unchanged.
func (s *Service) UpdateLanguage(ctx context.Context, guildID string, lang models.Language) (*models.GuildLanguage, error) {
	if lang == "" {
		return nil, ErrMissingLanguage
	}
	if !lang.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
	doc, err := s.repo.UpsertLanguage(ctx, guildID, lang)
	metrics.ObserveSettingsWrite("language", err)
	return doc, err
}
