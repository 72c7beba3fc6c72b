// Package sessions keeps the client-side session: the stored panel token and
// the authentication state derived from it.
package sessions

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// CookieName is the browser cookie the web panel keeps the token in.
const CookieName = "discord_token"

// CookieTTL matches the lifetime of tokens issued by the API.
const CookieTTL = 7 * 24 * time.Hour

// ErrNoToken is returned by Store.Load when nothing is stored or the stored
// token has expired.
var ErrNoToken = errors.New("no stored session token")

// StoredToken is what a Store persists.
type StoredToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (t *StoredToken) expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// Store persists the session token between runs.
type Store interface {
	Load(ctx context.Context) (*StoredToken, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type tokenSource struct {
	ctx   context.Context
	store Store
}

// TokenSource adapts a Store for use as the bearer credential of an API client.
func TokenSource(ctx context.Context, s Store) oauth2.TokenSource {
	return tokenSource{ctx: ctx, store: s}
}

func (t tokenSource) Token() (*oauth2.Token, error) {
	st, err := t.store.Load(t.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: st.Token, TokenType: "Bearer", Expiry: st.ExpiresAt}, nil
}
