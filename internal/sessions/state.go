package sessions

import (
	"context"
	"errors"
	"sync"

	"github.com/slayerbot/panel/internal/models"
	"github.com/slayerbot/panel/pkg/logger"
)

// ErrUnauthenticated is returned by RequireAuth when no verified identity exists.
var ErrUnauthenticated = errors.New("not logged in")

// IdentityFetcher is satisfied by *client.Client.
type IdentityFetcher interface {
	Me(ctx context.Context) (*models.User, error)
}

// State is a snapshot of the client session.
type State struct {
	Authenticated bool
	User          *models.User
	Loading       bool
	Error         string
}

// Manager owns the session state. It starts out loading and settles on
// Init, Login or Logout.
type Manager struct {
	mu    sync.Mutex
	store Store
	me    IdentityFetcher
	state State
}

func NewManager(store Store, me IdentityFetcher) *Manager {
	return &Manager{store: store, me: me, state: State{Loading: true}}
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Init validates a stored token, if any, by fetching the current identity.
func (m *Manager) Init(ctx context.Context) State {
	if _, err := m.store.Load(ctx); err != nil {
		if !errors.Is(err, ErrNoToken) {
			logger.Warnf("session: load token: %v", err)
		}
		return m.settle(State{})
	}
	st, _ := m.verify(ctx)
	return st
}

// Login stores token and verifies it like Init.
func (m *Manager) Login(ctx context.Context, token string) (State, error) {
	m.set(State{Loading: true})
	if err := m.store.Save(ctx, token); err != nil {
		return m.settle(State{Error: err.Error()}), err
	}
	return m.verify(ctx)
}

// Logout clears the stored token without contacting the API.
func (m *Manager) Logout(ctx context.Context) State {
	if err := m.store.Clear(ctx); err != nil {
		logger.Warnf("session: clear token: %v", err)
	}
	return m.settle(State{})
}

// RequireAuth gates commands that need a session.
func (m *Manager) RequireAuth() (*models.User, error) {
	st := m.State()
	if !st.Authenticated {
		return nil, ErrUnauthenticated
	}
	return st.User, nil
}

func (m *Manager) verify(ctx context.Context) (State, error) {
	user, err := m.me.Me(ctx)
	if err != nil {
		logger.Debugf("session: identity check failed: %v", err)
		_ = m.store.Clear(ctx)
		return m.settle(State{Error: err.Error()}), err
	}
	return m.settle(State{Authenticated: true, User: user}), nil
}

func (m *Manager) set(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) settle(s State) State {
	s.Loading = false
	m.set(s)
	return s
}
