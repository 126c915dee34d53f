package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
)

const tokenBytes = 32

// ErrInvalidToken is returned for empty or malformed session tokens.
var ErrInvalidToken = errors.New("invalid session token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(token string) string
}

// Manager issues and validates the opaque tokens that scope an anonymous buyer's cart.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
	now   func() time.Time
}

// Validator exposes the read surface needed by the session middleware.
type Validator interface {
	Validate(ctx context.Context, token string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.SessionConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newManager(client, client, cfg.TTL)
}

func newManager(store sessionStore, keyer sessionKeyer, ttl time.Duration) (*Manager, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{
		store: store,
		keyer: keyer,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

// Issue generates a new session token and records it with the configured TTL.
func (m *Manager) Issue(ctx context.Context) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	issuedAt := m.now().UTC().Format(time.RFC3339)
	if err := m.store.Set(ctx, m.keyer.SessionKey(token), issuedAt, m.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Validate reports whether token is a live session and slides its expiry forward.
func (m *Manager) Validate(ctx context.Context, token string) (bool, error) {
	if !wellFormed(token) {
		return false, nil
	}
	key := m.keyer.SessionKey(token)
	if _, err := m.store.Get(ctx, key); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	if _, err := m.store.Expire(ctx, key, m.ttl); err != nil {
		return false, err
	}
	return true, nil
}

// Revoke deletes the session. Carts keyed by the token become unreachable.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if !wellFormed(token) {
		return ErrInvalidToken
	}
	return m.store.Del(ctx, m.keyer.SessionKey(token))
}

func wellFormed(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" || len(token) > 100 {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(token)
	return err == nil
}

func generateToken() (string, error) {
	bytes := make([]byte, tokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
