package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nimasrn/parcel-shipping/internal/model"
	"github.com/nimasrn/parcel-shipping/pkg/redis"
)

var ErrNoSession = errors.New("no active session")

const (
	keyPrefix  = "session:"
	CookieName = "session"
)

// SessionStore keeps signed in users in redis. Signing in happens in a
// separate auth service; this store only reads and revokes sessions.
type SessionStore struct {
	adapter redis.RedisAdapter
	ttl     time.Duration
}

func NewSessionStore(adapter redis.RedisAdapter, ttl time.Duration) *SessionStore {
	return &SessionStore{adapter: adapter, ttl: ttl}
}

func (s *SessionStore) Lookup(_ context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	raw, err := s.adapter.Get(keyPrefix + token)
	if err != nil {
		if errors.Is(err, redis.NilError) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if u.ID == "" {
		return nil, ErrNoSession
	}
	return &u, nil
}

func (s *SessionStore) SignOut(_ context.Context, token string) error {
	if token == "" {
		return ErrNoSession
	}
	if err := s.adapter.Del(keyPrefix + token); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// Issue stores a session for u and returns its token.
func (s *SessionStore) Issue(_ context.Context, u model.User) (string, error) {
	if u.ID == "" {
		return "", errors.New("user id is required")
	}
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(b)

	raw, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	if err := s.adapter.Set(keyPrefix+token, raw, s.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// TokenFrom picks the session token from an Authorization bearer header,
// falling back to the session cookie.
func TokenFrom(authorization, cookie string) string {
	if v := strings.TrimSpace(authorization); v != "" {
		if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
			return strings.TrimSpace(v[7:])
		}
	}
	return strings.TrimSpace(cookie)
}
