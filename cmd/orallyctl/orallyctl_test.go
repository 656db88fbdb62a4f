package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/orally-backend/internal/app"
	"github.com/AnshRaj112/orally-backend/internal/config"
	"github.com/AnshRaj112/orally-backend/internal/store"
)

func testCLI(t *testing.T, redisURI string) *cli {
	t.Helper()
	cfg := &config.Config{
		Environment: "development",
		StoreDriver: config.DriverMemory,
		RedisURI:    redisURI,
	}
	a, err := app.Open(context.Background(), cfg)
	require.NoError(t, err)
	c := &cli{app: a}
	t.Cleanup(c.close)
	return c
}

func run(t *testing.T, c *cli, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := c.rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestActivate(t *testing.T) {
	c := testCLI(t, "")

	out, err := run(t, c, context.Background(), "activate", "--user", "u1", "--email", "grace@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, `"streak": 1`)
	assert.Contains(t, out, `"display_name": "grace"`)

	_, err = run(t, c, context.Background(), "activate")
	assert.Error(t, err)
}

func TestNotesLifecycle(t *testing.T) {
	c := testCLI(t, "")
	ctx := context.Background()

	out, err := run(t, c, ctx, "notes", "add", "--user", "u1", "--title", "Brush")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	_, err = run(t, c, ctx, "notes", "trash", "--user", "u1", id)
	require.NoError(t, err)

	out, err = run(t, c, ctx, "notes", "list", "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "notes (0)")
	assert.Contains(t, out, "recently_deleted (1)")
	assert.Contains(t, out, id+" - Brush")

	_, err = run(t, c, ctx, "notes", "restore", "--user", "u1", id)
	require.NoError(t, err)

	notes, err := c.app.Store.ListNotes(ctx, "u1", store.Notes)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, id, notes[0].ID)
}

func TestNotesAdd_RejectsEmpty(t *testing.T) {
	c := testCLI(t, "")
	_, err := run(t, c, context.Background(), "notes", "add", "--user", "u1")
	assert.ErrorContains(t, err, "required")
}

func TestNotesTrash_Missing(t *testing.T) {
	c := testCLI(t, "")
	_, err := run(t, c, context.Background(), "notes", "trash", "--user", "u1", "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNotesWatch_StopsWithContext(t *testing.T) {
	c := testCLI(t, "")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	out, err := run(t, c, ctx, "notes", "watch", "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "notes (0)")
	assert.Contains(t, out, "recently_deleted (0)")
}

func TestSession(t *testing.T) {
	mr := miniredis.RunT(t)
	c := testCLI(t, "redis://"+mr.Addr()+"/0")
	ctx := context.Background()

	out, err := run(t, c, ctx, "session", "issue", "--user", "u1", "--name", "Ada")
	require.NoError(t, err)
	token := strings.TrimSpace(out)

	id, ok, err := c.app.Sessions.ValidateSession(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1", id.UserID)

	_, err = run(t, c, ctx, "session", "revoke", "--user", "u1")
	require.NoError(t, err)
	_, ok, err = c.app.Sessions.ValidateSession(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSession_NeedsRedis(t *testing.T) {
	c := testCLI(t, "")
	_, err := run(t, c, context.Background(), "session", "issue", "--user", "u1")
	assert.ErrorIs(t, err, errNoSessions)
}
