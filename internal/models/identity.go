package models

// User is the public part of a Discord identity, as returned by GET /auth/me.
// Avatar is nil when the user has no custom avatar.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        *string `json:"avatar"`
}

// Identity is reconstructed from a verified session token on every request.
// AccessToken is the delegated Discord OAuth2 bearer credential; it is never
// serialized back to the client.
type Identity struct {
	User
	AccessToken string `json:"-"`
}

// NormalizeDiscriminator returns "0" for users migrated to unique usernames.
func NormalizeDiscriminator(d string) string {
	if d == "" {
		return "0"
	}
	return d
}
