package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*miniredis.Miniredis, JobLocker) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisJobLocker(client, time.Minute)
}

func TestWithJobLockRunsAndReleases(t *testing.T) {
	mr, locker := newTestLocker(t)

	ran := false
	err := locker.WithJobLock(context.Background(), "cleanup", func(ctx context.Context) error {
		ran = true
		assert.True(t, mr.Exists("lock:job:cleanup"), "lock held while running")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, mr.Exists("lock:job:cleanup"), "lock released after run")
}

func TestWithJobLockHeldElsewhere(t *testing.T) {
	mr, locker := newTestLocker(t)
	require.NoError(t, mr.Set("lock:job:cleanup", "other-holder"))

	err := locker.WithJobLock(context.Background(), "cleanup", func(ctx context.Context) error {
		t.Fatal("must not run while another holder owns the lock")
		return nil
	})
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	// The foreign holder's lock is left alone.
	got, err := mr.Get("lock:job:cleanup")
	require.NoError(t, err)
	assert.Equal(t, "other-holder", got)
}

func TestWithJobLockPropagatesJobError(t *testing.T) {
	mr, locker := newTestLocker(t)

	jobErr := errors.New("purge failed")
	err := locker.WithJobLock(context.Background(), "cleanup", func(ctx context.Context) error {
		return jobErr
	})
	assert.ErrorIs(t, err, jobErr)
	assert.False(t, mr.Exists("lock:job:cleanup"), "lock released on failure too")
}
