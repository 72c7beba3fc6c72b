package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the token in Redis so several terminals share one login.
// The token is stored as JSON under "<prefix><profile>" with TTL = CookieTTL.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed token store. Prefix may be empty.
func NewRedisStore(client *redis.Client, prefix, profile string) *RedisStore {
	if prefix == "" {
		prefix = "panel:" + CookieName + ":"
	}
	if profile == "" {
		profile = "default"
	}
	return &RedisStore{client: client, key: prefix + profile}
}

func (r *RedisStore) Load(ctx context.Context) (*StoredToken, error) {
	b, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoToken
		}
		return nil, err
	}
	var st StoredToken
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, err
	}
	// If expired from the perspective of the stored value, treat as missing
	if st.expired(time.Now()) {
		_ = r.client.Del(ctx, r.key).Err()
		return nil, ErrNoToken
	}
	return &st, nil
}

func (r *RedisStore) Save(ctx context.Context, token string) error {
	b, err := json.Marshal(StoredToken{Token: token, ExpiresAt: time.Now().UTC().Add(CookieTTL)})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, b, CookieTTL).Err()
}

func (r *RedisStore) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
