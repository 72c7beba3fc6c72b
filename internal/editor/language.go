package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/slayerbot/panel/internal/models"
)

// LanguageAPI is satisfied by *client.Client.
type LanguageAPI interface {
	Language(ctx context.Context, guildID string) (*models.GuildLanguage, error)
	SaveLanguage(ctx context.Context, guildID string, lang models.Language) (*models.GuildLanguage, error)
}

// LanguageEditor edits the bot language of one guild.
type LanguageEditor struct {
	api     LanguageAPI
	guildID string

	mu       sync.Mutex
	loaded   bool
	original models.Language
	working  models.Language
	saving   bool
}

func NewLanguageEditor(api LanguageAPI, guildID string) *LanguageEditor {
	return &LanguageEditor{api: api, guildID: guildID}
}

func (e *LanguageEditor) Load(ctx context.Context) error {
	doc, err := e.api.Language(ctx, e.guildID)
	if err != nil {
		return fmt.Errorf("load language: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.original, e.working, e.loaded = doc.Language, doc.Language, true
	return nil
}

// Set changes the working language. Codes outside the supported set are
// rejected locally.
func (e *LanguageEditor) Set(lang models.Language) error {
	if !lang.Valid() {
		return fmt.Errorf("editor: unsupported language %q", lang)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return ErrNotLoaded
	}
	e.working = lang
	return nil
}

func (e *LanguageEditor) Current() models.Language {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.working
}

func (e *LanguageEditor) Original() models.Language {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.original
}

func (e *LanguageEditor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded && e.working != e.original
}

func (e *LanguageEditor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.saving {
		e.working = e.original
	}
}

func (e *LanguageEditor) CanSave() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded && !e.saving && e.working != e.original
}

func (e *LanguageEditor) CanReset() bool { return e.CanSave() }

func (e *LanguageEditor) Save(ctx context.Context) error {
	e.mu.Lock()
	switch {
	case !e.loaded:
		e.mu.Unlock()
		return ErrNotLoaded
	case e.saving:
		e.mu.Unlock()
		return ErrSaveInFlight
	case e.working == e.original:
		e.mu.Unlock()
		return ErrNothingToSave
	}
	e.saving = true
	submitted := e.working
	e.mu.Unlock()

	saved, err := e.api.SaveLanguage(ctx, e.guildID, submitted)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if err != nil {
		return fmt.Errorf("save language: %w", err)
	}
	e.original = saved.Language
	if e.working == submitted {
		e.working = saved.Language
	}
	return nil
}
