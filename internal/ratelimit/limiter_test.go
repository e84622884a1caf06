package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryLimiterWindow(t *testing.T) {
	l := NewInMemory(time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a@x", 2).Allowed)
	assert.True(t, l.Allow("a@x", 2).Allowed)
	d := l.Allow("a@x", 2)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	assert.True(t, l.Allow("b@x", 2).Allowed, "keys are independent")

	now = now.Add(61 * time.Second)
	assert.True(t, l.Allow("a@x", 2).Allowed, "window resets")
}

func TestNewRedisDefaults(t *testing.T) {
	lim := NewRedis(nil, 0)
	assert.Equal(t, time.Minute, lim.Window)
	assert.Equal(t, "rl:", lim.Prefix)
	assert.NotNil(t, lim.Fallback)
	assert.True(t, lim.Allow("k", 1).Allowed)
	assert.False(t, lim.Allow("k", 1).Allowed)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	lim := NewRedis(client, time.Minute)
	for i := 0; i < 3; i++ {
		d := lim.Allow("login:a@x", 3)
		assert.True(t, d.Allowed)
		assert.Equal(t, i+1, d.Count)
	}
	assert.False(t, lim.Allow("login:a@x", 3).Allowed)
	assert.True(t, mr.Exists("rl:login:a@x"))

	mr.FastForward(time.Minute + time.Second)
	assert.True(t, lim.Allow("login:a@x", 3).Allowed)
}

func TestRedisLimiterFallsBackOnError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	lim := NewRedis(client, time.Minute)
	assert.True(t, lim.Allow("k", 1).Allowed)
	assert.False(t, lim.Allow("k", 1).Allowed)
}
