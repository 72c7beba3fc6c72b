package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	mu  sync.Mutex
	tok *StoredToken
	now func() time.Time
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{now: time.Now} }

func (m *MemoryStore) Load(context.Context) (*StoredToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tok == nil || m.tok.expired(m.now()) {
		m.tok = nil
		return nil, ErrNoToken
	}
	cp := *m.tok
	return &cp, nil
}

func (m *MemoryStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = &StoredToken{Token: token, ExpiresAt: m.now().Add(CookieTTL)}
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = nil
	return nil
}

// FileStore keeps the token in a JSON file readable only by the owner.
type FileStore struct {
	path string
	now  func() time.Time
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path, now: time.Now} }

// DefaultTokenPath is <user config dir>/slayerpanel/discord_token.json.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "slayerpanel", CookieName+".json"), nil
}

func (f *FileStore) Load(context.Context) (*StoredToken, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var st StoredToken
	if err := json.Unmarshal(b, &st); err != nil || st.Token == "" {
		_ = os.Remove(f.path)
		return nil, ErrNoToken
	}
	if st.expired(f.now()) {
		_ = os.Remove(f.path)
		return nil, ErrNoToken
	}
	return &st, nil
}

func (f *FileStore) Save(_ context.Context, token string) error {
	b, err := json.Marshal(StoredToken{Token: token, ExpiresAt: f.now().Add(CookieTTL).UTC()})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) Clear(context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
