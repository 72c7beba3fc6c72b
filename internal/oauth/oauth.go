// Package oauth exchanges Discord authorization codes and looks up the
// identity behind the resulting access token.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/slayerbot/panel/internal/config"
	"github.com/slayerbot/panel/internal/models"
	"golang.org/x/oauth2"
)

var (
	// ErrUpstreamAuth means Discord rejected the authorization code.
	ErrUpstreamAuth = errors.New("authorization code rejected")
	// ErrUpstream covers transport failures and unexpected responses.
	ErrUpstream = errors.New("discord oauth request failed")
)

// Exchanger is the dependency handlers use; implemented by *Client and test fakes.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchUser(ctx context.Context, accessToken string) (*models.User, error)
	RedirectURI() string
}

// Client talks to Discord's OAuth2 endpoints.
type Client struct {
	conf     *oauth2.Config
	provider *oidc.Provider
	http     *http.Client
}

// Endpoints returns the provider description for a Discord API base URL.
// Discord publishes no discovery document, so the endpoints are configured.
func Endpoints(apiEndpoint, authorizeURL string) *oidc.ProviderConfig {
	base := strings.TrimRight(apiEndpoint, "/")
	return &oidc.ProviderConfig{
		IssuerURL:   base,
		AuthURL:     authorizeURL,
		TokenURL:    base + "/oauth2/token",
		UserInfoURL: base + "/users/@me",
	}
}

// New builds a client from the Discord section of the configuration. A nil
// httpClient uses http.DefaultClient.
func New(cfg config.DiscordConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	ctx := oidc.ClientContext(context.Background(), httpClient)
	provider := Endpoints(cfg.APIEndpoint, cfg.AuthorizeURL).NewProvider(ctx)

	endpoint := provider.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	return &Client{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		provider: provider,
		http:     httpClient,
	}
}

// RedirectURI is the redirect registered for the code grant.
func (c *Client) RedirectURI() string { return c.conf.RedirectURL }

// AuthCodeURL builds the consent URL for state.
func (c *Client) AuthCodeURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// Exchange trades an authorization code for a Discord token.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := c.conf.Exchange(oidc.ClientContext(ctx, c.http), code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, fmt.Errorf("%w: %s %s", ErrUpstreamAuth, re.ErrorCode, re.ErrorDescription)
		}
		return nil, fmt.Errorf("%w: exchange: %v", ErrUpstream, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrUpstreamAuth)
	}
	return tok, nil
}

type discordUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        *string `json:"avatar"`
}

// FetchUser resolves the Discord user that owns accessToken.
func (c *Client) FetchUser(ctx context.Context, accessToken string) (*models.User, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	info, err := c.provider.UserInfo(oidc.ClientContext(ctx, c.http), src)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo: %v", ErrUpstream, err)
	}
	var u discordUser
	if err := info.Claims(&u); err != nil {
		return nil, fmt.Errorf("%w: decode user: %v", ErrUpstream, err)
	}
	if u.ID == "" {
		return nil, fmt.Errorf("%w: user without id", ErrUpstream)
	}
	return &models.User{
		ID:            u.ID,
		Username:      u.Username,
		Discriminator: models.NormalizeDiscriminator(u.Discriminator),
		Avatar:        u.Avatar,
	}, nil
}
