package client

import (
	"context"
	"net/url"

	"golang.org/x/oauth2"
)

// Reason codes appended to the login entry point after a failed callback.
const (
	ReasonAuthFailed = "auth_failed"
	ReasonNoCode     = "no_code"
)

// LoginURL builds the Discord consent URL for the panel application.
func LoginURL(clientID, redirectURI string) string {
	return LoginURLWithState(clientID, redirectURI, "")
}

// LoginURLWithState is LoginURL with an anti-forgery state value.
func LoginURLWithState(clientID, redirectURI, state string) string {
	conf := oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Scopes:      DefaultScopes,
		Endpoint:    oauth2.Endpoint{AuthURL: DefaultAuthorizeURL},
	}
	return conf.AuthCodeURL(state)
}

// CallbackResult is either a session token or a reason code for the login page.
type CallbackResult struct {
	Token  *TokenResponse
	Reason string
	Err    error
}

// OK reports whether the exchange produced a token.
func (r CallbackResult) OK() bool { return r.Token != nil }

// LoginRedirect is where a failed callback sends the user.
func (r CallbackResult) LoginRedirect(loginPath string) string {
	if r.OK() {
		return ""
	}
	return loginPath + "?" + url.Values{"error": {r.Reason}}.Encode()
}

// HandleCallback processes the query string Discord redirected back with.
func (c *Client) HandleCallback(ctx context.Context, query url.Values, redirectURI string) CallbackResult {
	if query.Get("error") != "" {
		return CallbackResult{Reason: ReasonAuthFailed}
	}
	code := query.Get("code")
	if code == "" {
		return CallbackResult{Reason: ReasonNoCode}
	}
	tok, err := c.Exchange(ctx, code, redirectURI)
	if err != nil {
		return CallbackResult{Reason: ReasonAuthFailed, Err: err}
	}
	return CallbackResult{Token: tok}
}
