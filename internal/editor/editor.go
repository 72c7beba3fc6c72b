// Package editor holds the edit protocol shared by the settings screens:
// load a snapshot, edit a working copy, save or reset.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/slayerbot/panel/internal/models"
)

var (
	ErrNotLoaded     = errors.New("editor: settings not loaded")
	ErrSaveInFlight  = errors.New("editor: a save is already in progress")
	ErrNothingToSave = errors.New("editor: no changes to save")
	ErrUnknownField  = errors.New("editor: unknown log category")
	ErrUnknownChan   = errors.New("editor: channel is not a text channel of this guild")
)

// LogChannelsAPI is satisfied by *client.Client.
type LogChannelsAPI interface {
	LogChannels(ctx context.Context, guildID string) (*models.LogChannels, error)
	Channels(ctx context.Context, guildID string) ([]models.Channel, error)
	SaveLogChannels(ctx context.Context, guildID string, doc *models.LogChannels) (*models.LogChannels, error)
}

// LogChannelsEditor edits the fourteen log routes of one guild.
type LogChannelsEditor struct {
	api     LogChannelsAPI
	guildID string

	mu       sync.Mutex
	original *models.LogChannels
	working  *models.LogChannels
	channels []models.Channel
	saving   bool
}

func NewLogChannelsEditor(api LogChannelsAPI, guildID string) *LogChannelsEditor {
	return &LogChannelsEditor{api: api, guildID: guildID}
}

// Load fetches the document and the channel list and snapshots the document.
func (e *LogChannelsEditor) Load(ctx context.Context) error {
	doc, err := e.api.LogChannels(ctx, e.guildID)
	if err != nil {
		return fmt.Errorf("load log channels: %w", err)
	}
	chs, err := e.api.Channels(ctx, e.guildID)
	if err != nil {
		return fmt.Errorf("load channels: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.original = doc.Clone()
	e.working = doc.Clone()
	e.channels = chs
	return nil
}

// Channels returns the channels a category can be routed to.
func (e *LogChannelsEditor) Channels() []models.Channel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.Channel(nil), e.channels...)
}

// Working returns a copy of the working document.
func (e *LogChannelsEditor) Working() *models.LogChannels {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.working == nil {
		return nil
	}
	return e.working.Clone()
}

// Set routes category c to channelID in the working copy; nil disables it.
func (e *LogChannelsEditor) Set(c models.LogCategory, channelID *string) error {
	if _, ok := models.ParseLogCategory(string(c)); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, c)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.working == nil {
		return ErrNotLoaded
	}
	if channelID != nil && !e.hasChannel(*channelID) {
		return fmt.Errorf("%w: %s", ErrUnknownChan, *channelID)
	}
	e.working.Set(c, channelID)
	return nil
}

func (e *LogChannelsEditor) hasChannel(id string) bool {
	for _, ch := range e.channels {
		if ch.ID == id {
			return true
		}
	}
	return false
}

// Dirty reports whether any category differs from the snapshot.
func (e *LogChannelsEditor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty()
}

func (e *LogChannelsEditor) dirty() bool {
	return e.working != nil && !e.working.Equal(e.original)
}

// Changed lists the categories that differ from the snapshot.
func (e *LogChannelsEditor) Changed() []models.LogCategory {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.working == nil {
		return nil
	}
	return e.working.Changed(e.original)
}

// ResetField restores one category from the snapshot.
func (e *LogChannelsEditor) ResetField(c models.LogCategory) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.working != nil && !e.saving {
		e.working.Set(c, e.original.Get(c))
	}
}

// ResetAll restores the whole working copy from the snapshot. Like
// ResetField it does nothing while a save is in flight.
func (e *LogChannelsEditor) ResetAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.original != nil && !e.saving {
		e.working = e.original.Clone()
	}
}

func (e *LogChannelsEditor) CanSave() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.saving && e.dirty()
}

func (e *LogChannelsEditor) CanReset() bool { return e.CanSave() }

// Saving reports whether a save is in flight.
func (e *LogChannelsEditor) Saving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving
}

// Save submits the whole working copy and re-snapshots the stored result.
// Edits made while the request was in flight are kept.
func (e *LogChannelsEditor) Save(ctx context.Context) error {
	e.mu.Lock()
	switch {
	case e.working == nil:
		e.mu.Unlock()
		return ErrNotLoaded
	case e.saving:
		e.mu.Unlock()
		return ErrSaveInFlight
	case !e.dirty():
		e.mu.Unlock()
		return ErrNothingToSave
	}
	e.saving = true
	submitted := e.working.Clone()
	e.mu.Unlock()

	saved, err := e.api.SaveLogChannels(ctx, e.guildID, submitted)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if err != nil {
		return fmt.Errorf("save log channels: %w", err)
	}
	unchanged := e.working.Equal(submitted)
	e.original = saved.Clone()
	if unchanged {
		e.working = saved.Clone()
	}
	return nil
}
