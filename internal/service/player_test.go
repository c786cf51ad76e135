package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/battleship-backend/internal/entity"
	"github.com/rocketscienceinc/battleship-backend/internal/repository"
)

func TestPlayerService_GetOrCreatePlayer(t *testing.T) {
	ctx := context.Background()

	t.Run("An empty id mints a new player", func(t *testing.T) {
		playerRepo := newMemPlayerRepo()
		playerService := NewPlayerService(playerRepo)

		player, err := playerService.GetOrCreatePlayer(ctx, "")

		require.NoError(t, err)
		assert.NotEmpty(t, player.ID)

		stored, err := playerRepo.GetByID(ctx, player.ID)
		require.NoError(t, err)
		assert.Equal(t, player.ID, stored.ID)
	})

	t.Run("A known id returns the stored player", func(t *testing.T) {
		playerRepo := newMemPlayerRepo()
		playerService := NewPlayerService(playerRepo)

		require.NoError(t, playerRepo.CreateOrUpdate(ctx, &entity.Player{ID: "p1", Role: entity.PlayerA, GameID: "g1"}))

		player, err := playerService.GetOrCreatePlayer(ctx, "p1")

		require.NoError(t, err)
		assert.Equal(t, entity.PlayerA, player.Role)
		assert.Equal(t, "g1", player.GameID)
	})

	t.Run("An unknown id is recreated rather than rejected", func(t *testing.T) {
		playerRepo := newMemPlayerRepo()
		playerService := NewPlayerService(playerRepo)

		player, err := playerService.GetOrCreatePlayer(ctx, "returning")

		require.NoError(t, err)
		assert.Equal(t, "returning", player.ID)
		assert.Empty(t, player.Role)
	})
}

func TestPlayerService_GetPlayerByID(t *testing.T) {
	ctx := context.Background()

	t.Run("An unknown id surfaces not found", func(t *testing.T) {
		playerService := NewPlayerService(newMemPlayerRepo())

		_, err := playerService.GetPlayerByID(ctx, "ghost")
		require.ErrorIs(t, err, repository.ErrPlayerNotFound)
	})
}

func TestGameService_NewGameID(t *testing.T) {
	t.Run("Session ids are derived from the game id and unique", func(t *testing.T) {
		gameService := NewGameService(newMemGameRepo())

		seenIDs := make(map[string]bool)
		seenSessions := make(map[uint64]bool)

		for i := 0; i < 100; i++ {
			id, sessionID := gameService.NewGameID()

			require.NotEmpty(t, id)
			require.NotZero(t, sessionID)
			assert.False(t, seenIDs[id])
			assert.False(t, seenSessions[sessionID])

			seenIDs[id] = true
			seenSessions[sessionID] = true
		}
	})
}
