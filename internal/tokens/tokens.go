package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/slayerbot/panel/internal/config"
	"github.com/slayerbot/panel/internal/models"
)

// ErrInvalidToken is returned for every token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// DefaultTTL is the session lifetime issued on login.
const DefaultTTL = 7 * 24 * time.Hour

// Claims is the payload carried by a panel session token.
type Claims struct {
	UserID        string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        *string `json:"avatar,omitempty"`
	AccessToken   string `json:"accessToken"`
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 session tokens.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec builds a codec. A zero ttl falls back to DefaultTTL.
func NewCodec(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// FromConfig builds a codec from the JWT section of cfg.
func FromConfig(cfg *config.Config) *Codec {
	return NewCodec(cfg.JWT.Secret, cfg.JWT.TTL)
}

// WithClock overrides the time source; used by tests.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// TTL returns the lifetime of issued tokens.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a token for id that expires after the codec TTL.
func (c *Codec) Issue(id *models.Identity) (string, time.Time, error) {
	if id == nil || id.ID == "" {
		return "", time.Time{}, errors.New("tokens: identity without user id")
	}
	now := c.now()
	exp := now.Add(c.ttl)
	claims := Claims{
		UserID:        id.ID,
		Username:      id.Username,
		Discriminator: models.NormalizeDiscriminator(id.Discriminator),
		Avatar:        id.Avatar,
		AccessToken:   id.AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("tokens: sign: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature and expiry and returns the embedded identity.
// Any failure is reported as ErrInvalidToken.
func (c *Codec) Verify(raw string) (*models.Identity, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" || claims.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing identity claims", ErrInvalidToken)
	}
	return &models.Identity{
		User: models.User{
			ID:            claims.UserID,
			Username:      claims.Username,
			Discriminator: models.NormalizeDiscriminator(claims.Discriminator),
			Avatar:        claims.Avatar,
		},
		AccessToken: claims.AccessToken,
	}, nil
}
