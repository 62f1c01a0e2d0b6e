// internal/lock/lock.go
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const releaseScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

// ErrHeld is returned when another scheduler already runs the pass.
var ErrHeld = errors.New("run lock is already held")

// RunLock is the single-flight guard a scheduler takes before starting a pass.
type RunLock struct {
	client redis.UniversalClient
	key    string
	token  string
	ttl    time.Duration
}

func NewRunLock(client redis.UniversalClient, name string, ttl time.Duration) *RunLock {
	return &RunLock{
		client: client,
		key:    "negotiator:lock:" + name,
		token:  uuid.NewString(),
		ttl:    ttl,
	}
}

func (l *RunLock) Key() string { return l.key }

func (l *RunLock) Acquire(ctx context.Context) error {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return errors.Wrapf(err, "acquire %s", l.key)
	}
	if !ok {
		return ErrHeld
	}
	return nil
}

// Release deletes the key only if this holder still owns it.
func (l *RunLock) Release(ctx context.Context) error {
	res, err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.token).Result()
	if err != nil {
		return errors.Wrapf(err, "release %s", l.key)
	}
	if res == int64(0) {
		return fmt.Errorf("lock %s expired or is held by someone else", l.key)
	}
	return nil
}

// Run executes fn while holding the lock. It returns ErrHeld without calling fn
// when another holder is active.
func (l *RunLock) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer func() {
		_ = l.Release(context.Background())
	}()
	return fn(ctx)
}
