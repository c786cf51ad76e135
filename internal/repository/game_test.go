package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/battleship-backend/internal/entity"
	"github.com/rocketscienceinc/battleship-backend/testing/suite"
)

func TestGameRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	gameRepo := NewGameRepository(st.Storage)

	// Given: a waiting game with a placed board
	game := entity.NewGame("123", entity.PrivateType)
	_, err := game.BoardA.Place(entity.Coordinate{X: 0, Y: 0}, entity.Horizontal)
	require.NoError(t, err)

	// When: CreateOrUpdate is called
	err = gameRepo.CreateOrUpdate(ctx, game)

	// Then: no error should be returned, and game is stored
	require.NoError(t, err)
}

func TestGameRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		// Given: a stored game with a board and a commitment
		game := entity.NewGame("123", entity.PrivateType)
		game.SessionID = 42
		_, err := game.BoardA.Place(entity.Coordinate{X: 1, Y: 3}, entity.Horizontal)
		require.NoError(t, err)
		game.BoardA.Commitment = make([]byte, 32)

		err = gameRepo.CreateOrUpdate(ctx, game)
		require.NoError(t, err)

		// When: GetByID is called with existing ID
		retrievedGame, err := gameRepo.GetByID(ctx, game.ID)

		// Then: the retrieved game round-trips the session fields and grids
		require.NoError(t, err)
		require.Equal(t, game.ID, retrievedGame.ID)
		require.Equal(t, game.SessionID, retrievedGame.SessionID)
		require.Equal(t, game.Status, retrievedGame.Status)
		assert.Equal(t, game.BoardA.Grid, retrievedGame.BoardA.Grid)
		assert.Equal(t, game.BoardA.Commitment, retrievedGame.BoardA.Commitment)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		nonExistentGameID := "9999999"

		// When: GetByID is called with non-existent ID
		retrievedGame, err := gameRepo.GetByID(ctx, nonExistentGameID)

		// Then: an ErrGameNotFound error should be returned
		require.Error(t, err)
		assert.Equal(t, ErrGameNotFound, err)
		assert.Nil(t, retrievedGame)
	})
}

func TestGameRepository_DeleteByID(t *testing.T) {
	t.Run("DeleteByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		// Given: a stored game
		game := entity.NewGame("123", entity.PrivateType)
		game.Status = entity.StatusFinished

		err := gameRepo.CreateOrUpdate(ctx, game)
		require.NoError(t, err)

		// When: DeleteByID is called with existing ID
		err = gameRepo.DeleteByID(ctx, game.ID)

		// Then: the game is gone
		require.NoError(t, err)

		_, err = gameRepo.GetByID(ctx, game.ID)
		require.Error(t, err)
		assert.Equal(t, ErrGameNotFound, err)
	})

	t.Run("DeleteByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		// When: DeleteByID is called with non-existent ID
		err := gameRepo.DeleteByID(ctx, "9999999")

		// Then: the delete is a no-op
		require.NoError(t, err)
	})
}
