package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_KeyLayout(t *testing.T) {
	r := NewRedis(nil, "", time.Hour)
	k := r.key(NewKey("Hola", "es", "en"))

	assert.True(t, strings.HasPrefix(k, DefaultPrefix+":es:en:"), k)
	assert.NotEqual(t, k, r.key(NewKey("Hola!", "es", "en")))
}

// TestRedis_RoundTrip runs against a live server named by LINGOBOT_TEST_REDIS.
func TestRedis_RoundTrip(t *testing.T) {
	addr := os.Getenv("LINGOBOT_TEST_REDIS")
	if addr == "" {
		t.Skip("LINGOBOT_TEST_REDIS not set")
	}
	ctx := context.Background()

	r, err := DialRedis(ctx, RedisConfig{Addr: addr, Prefix: "lingobot:test", TTL: time.Minute})
	require.NoError(t, err)
	defer r.Close()
	_, _ = r.Clear(ctx)

	key := NewKey("Hola", "es", "en")
	_, ok, err := r.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, key, "Hello"))
	got, ok, err := r.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Hello", got)

	n, err := r.Clear(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
