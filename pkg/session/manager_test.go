package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu      sync.Mutex
	data    map[string]string
	expires map[string]time.Duration
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string), expires: make(map[string]time.Duration)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.expires[key] = ttl
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return false, nil
	}
	m.expires[key] = ttl
	return true, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) SessionKey(token string) string {
	return fmt.Sprintf("sess:%s", token)
}

func TestIssueValidateRevoke(t *testing.T) {
	store := newMockStore()
	mgr, err := newManager(store, store, time.Hour)
	if err != nil {
		t.Fatalf("newManager: %v", err)
	}
	ctx := context.Background()

	token, err := mgr.Issue(ctx)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(token) != 43 {
		t.Fatalf("expected 43 char base64url token, got %d", len(token))
	}

	ok, err := mgr.Validate(ctx, token)
	if err != nil || !ok {
		t.Fatalf("expected live session, ok=%v err=%v", ok, err)
	}
	if store.expires[store.SessionKey(token)] != time.Hour {
		t.Fatalf("expected ttl refresh on validate")
	}

	if err := mgr.Revoke(ctx, token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	ok, err = mgr.Validate(ctx, token)
	if err != nil || ok {
		t.Fatalf("expected revoked session to be invalid, ok=%v err=%v", ok, err)
	}
}

func TestIssueProducesDistinctTokens(t *testing.T) {
	store := newMockStore()
	mgr, _ := newManager(store, store, time.Hour)
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		token, err := mgr.Issue(context.Background())
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token %s", token)
		}
		seen[token] = struct{}{}
	}
}

func TestValidateRejectsMalformedTokens(t *testing.T) {
	store := newMockStore()
	mgr, _ := newManager(store, store, time.Hour)
	for _, token := range []string{"", "   ", "not a token!", string(make([]byte, 200))} {
		ok, err := mgr.Validate(context.Background(), token)
		if err != nil || ok {
			t.Fatalf("expected %q to be rejected, ok=%v err=%v", token, ok, err)
		}
	}
	if err := mgr.Revoke(context.Background(), ""); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewManagerRequiresPositiveTTL(t *testing.T) {
	store := newMockStore()
	if _, err := newManager(store, store, 0); err == nil {
		t.Fatal("expected zero ttl to fail")
	}
}
