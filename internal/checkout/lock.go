package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const lockScope = "checkout"

// Locker serializes checkout per session. The returned release func is safe to
// call once the attempt has finished, even after ctx is cancelled.
type Locker interface {
	Acquire(ctx context.Context, session string) (release func(), err error)
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, owner string) (bool, error)
	LockKey(scope, id string) string
}

// RedisLocker is a lease held in Redis under a random owner id. A lease that is
// never released expires after ttl.
type RedisLocker struct {
	store lockStore
	ttl   time.Duration
	wait  time.Duration
	poll  time.Duration
}

// NewRedisLocker builds the per-session checkout lock.
func NewRedisLocker(store lockStore, ttl, wait, poll time.Duration) (*RedisLocker, error) {
	if store == nil {
		return nil, fmt.Errorf("lock store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("lock ttl must be positive")
	}
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	return &RedisLocker{store: store, ttl: ttl, wait: wait, poll: poll}, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, session string) (func(), error) {
	key := l.store.LockKey(lockScope, session)
	owner := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.store.SetNX(ctx, key, owner, l.ttl)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire checkout lock")
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				_, _ = l.store.ReleaseLock(releaseCtx, key, owner)
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress")
		}

		timer := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, ctx.Err(), "checkout already in progress")
		case <-timer.C:
		}
	}
}
