package mailbox

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unclebandit/creator-negotiator/internal/model"
)

func newTestQuota(t *testing.T, now time.Time) (*RedisQuota, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })

	q := NewRedisQuota(client)
	q.Now = func() time.Time { return now }
	return q, s
}

func TestRedisQuotaCountsPerDay(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)
	q, s := newTestQuota(t, now)
	mb := model.Mailbox{ID: 3, Email: "deals@trailhead.io", DailyLimit: 2}

	left, err := q.Remaining(ctx, mb)
	require.NoError(t, err)
	assert.Equal(t, 2, left)

	require.NoError(t, q.Consume(ctx, mb))
	require.NoError(t, q.Consume(ctx, mb))
	require.NoError(t, q.Consume(ctx, mb))

	left, err = q.Remaining(ctx, mb)
	require.NoError(t, err)
	assert.Equal(t, 0, left)

	assert.True(t, s.Exists("negotiator:quota:3:20240501"))
	assert.Equal(t, 48*time.Hour, s.TTL("negotiator:quota:3:20240501"))

	q.Now = func() time.Time { return now.Add(time.Hour) }
	left, err = q.Remaining(ctx, mb)
	require.NoError(t, err)
	assert.Equal(t, 2, left)
}

func TestRedisQuotaReportsRedisErrors(t *testing.T) {
	q, s := newTestQuota(t, time.Now())
	s.Close()

	_, err := q.Remaining(context.Background(), model.Mailbox{ID: 1, DailyLimit: 5})
	assert.Error(t, err)
}
