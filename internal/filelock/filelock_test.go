package filelock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "android", "game.lock")

	l, err := Acquire(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, l.Path())

	other, err := TryAcquire(path)
	require.NoError(t, err)
	assert.Nil(t, other, "second holder must not get the lock")

	require.NoError(t, l.Release())

	again, err := TryAcquire(path)
	require.NoError(t, err)
	require.NotNil(t, again)
	require.NoError(t, again.Release())
}

func TestAcquire_HonoursContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "held.lock")
	held, err := Acquire(context.Background(), path)
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	_, err = Acquire(ctx, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRelease_Nil(t *testing.T) {
	var l *Lock
	assert.NoError(t, l.Release())
}
