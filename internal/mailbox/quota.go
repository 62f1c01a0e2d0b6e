// internal/mailbox/quota.go
package mailbox

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/unclebandit/creator-negotiator/internal/model"
)

// Quota tracks sends per mailbox per UTC day.
type Quota interface {
	Remaining(ctx context.Context, mb model.Mailbox) (int, error)
	Consume(ctx context.Context, mb model.Mailbox) error
}

type RedisQuota struct {
	Client redis.UniversalClient
	Now    func() time.Time
}

var _ Quota = (*RedisQuota)(nil)

func NewRedisQuota(client redis.UniversalClient) *RedisQuota {
	return &RedisQuota{Client: client, Now: time.Now}
}

func (q *RedisQuota) key(mb model.Mailbox) string {
	now := time.Now
	if q.Now != nil {
		now = q.Now
	}
	return fmt.Sprintf("negotiator:quota:%d:%s", mb.ID, now().UTC().Format("20060102"))
}

func (q *RedisQuota) Remaining(ctx context.Context, mb model.Mailbox) (int, error) {
	sent, err := q.Client.Get(ctx, q.key(mb)).Int()
	if err != nil && err != redis.Nil {
		return 0, errors.Wrapf(err, "read quota for %s", mb.Email)
	}
	left := mb.DailyLimit - sent
	if left < 0 {
		left = 0
	}
	return left, nil
}

func (q *RedisQuota) Consume(ctx context.Context, mb model.Mailbox) error {
	key := q.key(mb)
	pipe := q.Client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 48*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "consume quota for %s", mb.Email)
	}
	return nil
}
