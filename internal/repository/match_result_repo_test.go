package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/MmmDelicious/lovememory-sub007/internal/domain"
	"github.com/MmmDelicious/lovememory-sub007/internal/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Runs against a throwaway postgres container when TESTCONTAINERS is set.
func TestMatchResultRepository(t *testing.T) {
	if os.Getenv("TESTCONTAINERS") == "" {
		t.Skip("TESTCONTAINERS not set; skipping postgres test")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testusername"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	defer container.Terminate(ctx)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, migrations.Up(dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	repo := NewMatchResultRepository(pool)
	winner := int64(1)
	result := &domain.MatchResult{
		RoomID:   "room-1",
		GameType: "tic_tac_toe",
		WinnerID: &winner,
		Reason:   "three_in_a_row",
		Participants: []domain.MatchParticipant{
			{PlayerID: 1, Name: "p1", Seat: 0, Outcome: domain.MatchOutcomeWin},
			{PlayerID: 2, Name: "p2", Seat: 1, Outcome: domain.MatchOutcomeLose},
		},
		FinishedAt: time.Now().UTC(),
	}

	t.Run("Record", func(t *testing.T) {
		require.NoError(t, repo.Record(ctx, result))
		assert.NotZero(t, result.ID)
	})

	t.Run("Record_Duplicate", func(t *testing.T) {
		dup := *result
		dup.ID = 0
		require.NoError(t, repo.Record(ctx, &dup))
		assert.Zero(t, dup.ID)
	})

	t.Run("ListByRoom", func(t *testing.T) {
		got, err := repo.ListByRoom(ctx, "room-1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, result.Participants, got[0].Participants)
		require.NotNil(t, got[0].WinnerID)
		assert.Equal(t, winner, *got[0].WinnerID)
	})

	t.Run("ListByPlayer", func(t *testing.T) {
		got, err := repo.ListByPlayer(ctx, 2, 10)
		require.NoError(t, err)
		assert.Len(t, got, 1)

		got, err = repo.ListByPlayer(ctx, 99, 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
