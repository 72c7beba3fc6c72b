// Package client is a typed HTTP client for the panel API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/slayerbot/panel/internal/models"
	"golang.org/x/oauth2"
)

// DefaultScopes are requested on the Discord consent screen.
var DefaultScopes = []string{"identify", "email", "guilds"}

// DefaultAuthorizeURL is Discord's consent endpoint.
const DefaultAuthorizeURL = "https://discord.com/api/oauth2/authorize"

// APIError is a non-2xx response decoded from the {"error","message"} envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("panel api: status %d", e.Status)
	}
	return fmt.Sprintf("panel api: %d %s: %s", e.Status, e.Code, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.Status == http.StatusUnauthorized
}

// TokenResponse is the body returned by the callback route.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Client calls the panel API. When tokens is set, its current token is sent
// as a bearer credential on every request.
type Client struct {
	base   string
	http   *http.Client
	tokens oauth2.TokenSource
}

// New returns a client for baseURL (including the API prefix, e.g.
// http://localhost:3001/api). A nil httpClient gets a 15s timeout client.
func New(baseURL string, httpClient *http.Client, tokens oauth2.TokenSource) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: httpClient, tokens: tokens}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		// no stored token: send the request anonymously and let the API answer 401
		if tok, err := c.tokens.Token(); err == nil && tok.AccessToken != "" {
			tok.SetAuthHeader(req)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&env) == nil {
			apiErr.Code, apiErr.Message = env.Error, env.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// Exchange trades an authorization code for a session token.
func (c *Client) Exchange(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	req := map[string]string{"code": code}
	if redirectURI != "" {
		req["redirect_uri"] = redirectURI
	}
	var out TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/discord/callback", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the identity behind the current token.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Guilds(ctx context.Context) ([]models.GuildSummary, error) {
	var out []models.GuildSummary
	err := c.do(ctx, http.MethodGet, "/guilds", nil, &out)
	return out, err
}

func (c *Client) Channels(ctx context.Context, guildID string) ([]models.Channel, error) {
	var out []models.Channel
	err := c.do(ctx, http.MethodGet, "/guilds/"+url.PathEscape(guildID)+"/channels", nil, &out)
	return out, err
}

func (c *Client) LogChannels(ctx context.Context, guildID string) (*models.LogChannels, error) {
	var out models.LogChannels
	if err := c.do(ctx, http.MethodGet, "/guilds/"+url.PathEscape(guildID)+"/logs", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveLogChannels submits every category of doc.
func (c *Client) SaveLogChannels(ctx context.Context, guildID string, doc *models.LogChannels) (*models.LogChannels, error) {
	var out models.LogChannels
	if err := c.do(ctx, http.MethodPut, "/guilds/"+url.PathEscape(guildID)+"/logs", doc.Routes(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Language(ctx context.Context, guildID string) (*models.GuildLanguage, error) {
	var out models.GuildLanguage
	if err := c.do(ctx, http.MethodGet, "/guilds/"+url.PathEscape(guildID)+"/language", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SaveLanguage(ctx context.Context, guildID string, lang models.Language) (*models.GuildLanguage, error) {
	var out models.GuildLanguage
	body := map[string]models.Language{"language": lang}
	if err := c.do(ctx, http.MethodPut, "/guilds/"+url.PathEscape(guildID)+"/language", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
