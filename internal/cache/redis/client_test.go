package redis

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llm-duel/backend/internal/guard"
)

// newTestClient needs a reachable Redis at LLM_DUEL_TEST_REDIS (host:port).
func newTestClient(t *testing.T) *Client {
	t.Helper()

	addr := os.Getenv("LLM_DUEL_TEST_REDIS")
	if addr == "" {
		t.Skip("LLM_DUEL_TEST_REDIS not set")
	}
	host, portStr, ok := strings.Cut(addr, ":")
	require.True(t, ok, "LLM_DUEL_TEST_REDIS must be host:port")
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	c, err := NewClient(host, port, "", 0, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestAcquireRelease(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := "test-" + uuid.NewString()
	t.Cleanup(func() { _ = c.Forget(ctx, key) })

	release, err := c.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = c.Acquire(ctx, key)
	assert.ErrorIs(t, err, guard.ErrHeld)

	release()

	again, err := c.Acquire(ctx, key)
	require.NoError(t, err)
	again()
}

func TestReleaseKeepsForeignLock(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := "test-" + uuid.NewString()
	t.Cleanup(func() { _ = c.Forget(ctx, key) })

	stale, err := c.Acquire(ctx, key)
	require.NoError(t, err)

	require.NoError(t, c.Forget(ctx, key))
	fresh, err := c.Acquire(ctx, key)
	require.NoError(t, err)

	stale()

	_, err = c.Acquire(ctx, key)
	assert.ErrorIs(t, err, guard.ErrHeld)
	fresh()
}
