package repository

import (
	"context"
	"sync"
	"time"

	"github.com/slayerbot/panel/internal/models"
)

// MemoryRepo is an in-memory Repository used by tests and local runs
// without MongoDB.
type MemoryRepo struct {
	mu    sync.RWMutex
	logs  map[string]*models.LogChannels
	langs map[string]*models.GuildLanguage
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		logs:  make(map[string]*models.LogChannels),
		langs: make(map[string]*models.GuildLanguage),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryRepo) FindLogChannels(_ context.Context, guildID string) (*models.LogChannels, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.logs[guildID]; ok {
		return d.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) CreateLogChannels(_ context.Context, guildID string) (*models.LogChannels, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.logs[guildID]; ok {
		return d.Clone(), false, nil
	}
	d := m.newLogChannels(guildID)
	return d.Clone(), true, nil
}

func (m *MemoryRepo) newLogChannels(guildID string) *models.LogChannels {
	d := models.DefaultLogChannels(guildID)
	d.CreatedAt = m.now()
	d.UpdatedAt = d.CreatedAt
	m.logs[guildID] = d
	return d
}

func (m *MemoryRepo) UpsertLogChannels(_ context.Context, guildID string, patch models.LogChannelPatch) (*models.LogChannels, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.logs[guildID]
	if !ok {
		d = m.newLogChannels(guildID)
	}
	patch.Apply(d)
	d.UpdatedAt = m.now()
	return d.Clone(), nil
}

func (m *MemoryRepo) FindLanguage(_ context.Context, guildID string) (*models.GuildLanguage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.langs[guildID]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) CreateLanguage(_ context.Context, guildID string) (*models.GuildLanguage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.langs[guildID]; ok {
		cp := *d
		return &cp, false, nil
	}
	d := models.DefaultGuildLanguage(guildID)
	d.CreatedAt = m.now()
	d.UpdatedAt = d.CreatedAt
	m.langs[guildID] = d
	cp := *d
	return &cp, true, nil
}

func (m *MemoryRepo) UpsertLanguage(_ context.Context, guildID string, lang models.Language) (*models.GuildLanguage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	d, ok := m.langs[guildID]
	if !ok {
		d = &models.GuildLanguage{GuildID: guildID, CreatedAt: now}
		m.langs[guildID] = d
	}
	d.Language = lang
	d.UpdatedAt = now
	cp := *d
	return &cp, nil
}
