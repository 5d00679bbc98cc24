package repository

import (
	"context"
	"testing"
	"time"

	"github.com/MmmDelicious/lovememory-sub007/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotOf(t *testing.T, roomID string, created time.Time) RoomSnapshot {
	t.Helper()
	s, err := game.New(game.TypeTicTacToe, game.Config{})
	require.NoError(t, err)
	s, err = game.AddPlayer(s, 1, "p1")
	require.NoError(t, err)
	return RoomSnapshot{RoomID: roomID, HostID: 1, CreatedAt: created, SavedAt: created, State: s}
}

func TestMemorySnapshotStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySnapshotStore()
	now := time.Now()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	second := snapshotOf(t, "b", now)
	first := snapshotOf(t, "a", now.Add(-time.Minute))
	require.NoError(t, store.Save(ctx, second))
	require.NoError(t, store.Save(ctx, first))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].RoomID)
	assert.Equal(t, "b", list[1].RoomID)

	require.NoError(t, store.Delete(ctx, "a"))
	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemorySnapshotStoreKeepsNewestVersion(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySnapshotStore()
	snap := snapshotOf(t, "a", time.Now())

	newer := snap
	newer.State = snap.State.Clone()
	newer.State.Version = snap.State.Version + 5
	require.NoError(t, store.Save(ctx, newer))
	require.NoError(t, store.Save(ctx, snap))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, newer.State.Version, got.State.Version)
}

func TestMemorySnapshotStoreCopiesState(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySnapshotStore()
	snap := snapshotOf(t, "a", time.Now())
	require.NoError(t, store.Save(ctx, snap))

	snap.State.Players[0].Name = "changed"
	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.State.Players[0].Name)
}
