package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/battleship-backend/internal/entity"
)

func newBotGame(t *testing.T) *entity.Game {
	t.Helper()

	game := entity.NewGame("game-1", entity.WithBotType)

	_, err := game.BoardA.Place(entity.Coordinate{X: 0, Y: 0}, entity.Horizontal)
	require.NoError(t, err)
	_, err = game.BoardB.Place(entity.Coordinate{X: 0, Y: 0}, entity.Vertical)
	require.NoError(t, err)

	game.Status = entity.StatusActive

	game.Players = []*entity.Player{
		{ID: "human", Role: entity.PlayerA, GameID: game.ID},
		{ID: entity.BotID, Role: entity.PlayerB, GameID: game.ID},
	}
	game.Turn = entity.PlayerB

	return game
}

func TestBotService_MakeTurn(t *testing.T) {
	t.Run("Bot plays a legal move on the defender's board", func(t *testing.T) {
		// Given: an active bot game with the bot to move
		game := newBotGame(t)
		bot := NewBotService()

		// When: the bot makes its turn
		outcome, err := bot.MakeTurn(game)

		// Then: exactly one new mark landed on A's board
		require.NoError(t, err)
		assert.Contains(t, []string{"hit", "miss"}, string(outcome))

		marks := 0
		for _, cell := range game.BoardA.Grid {
			if cell == entity.CellHit || cell == entity.CellMiss {
				marks++
			}
		}
		assert.Equal(t, 1, marks)
	})

	t.Run("A game without a bot player fails", func(t *testing.T) {
		// Given: a two-human game
		game := newBotGame(t)
		game.Players[1].ID = "human-2"

		// When: the bot is asked to move
		_, err := NewBotService().MakeTurn(game)

		// Then: the bot is reported missing
		require.ErrorIs(t, err, ErrBotNotFound)
	})

	t.Run("The bot eventually sinks a ship", func(t *testing.T) {
		// Given: a bot game where only the bot ever moves
		game := newBotGame(t)
		bot := NewBotService()

		// When: the bot keeps attacking until the session ends
		for i := 0; i < entity.GridCells; i++ {
			if game.IsFinished() {
				break
			}

			game.Turn = entity.PlayerB
			_, err := bot.MakeTurn(game)
			require.NoError(t, err)
		}

		// Then: A's ship is destroyed within one pass over the grid
		assert.True(t, game.IsFinished())
		assert.Equal(t, entity.PlayerB, game.Winner)
		assert.True(t, game.BoardA.IsDestroyed())
	})
}

func TestBotService_ChooseTarget(t *testing.T) {
	t.Run("Never picks an already attacked cell", func(t *testing.T) {
		// Given: a board with a single untouched cell
		board := &entity.Board{}
		_, err := board.Place(entity.Coordinate{X: 0, Y: 0}, entity.Horizontal)
		require.NoError(t, err)
		for i := range board.Grid {
			if i == 12 {
				continue
			}

			if board.Grid[i] == entity.CellShip {
				board.Grid[i] = entity.CellHit
			} else {
				board.Grid[i] = entity.CellMiss
			}
		}

		// When: the bot picks a target
		target, err := NewBotService().ChooseTarget(board)

		// Then: it is the only remaining cell
		require.NoError(t, err)
		assert.Equal(t, entity.Coordinate{X: 2, Y: 2}, target)
	})

	t.Run("A fully attacked board leaves no moves", func(t *testing.T) {
		// Given: every cell already marked
		board := &entity.Board{}
		for i := range board.Grid {
			board.Grid[i] = entity.CellMiss
		}

		// When: the bot picks a target
		_, err := NewBotService().ChooseTarget(board)

		// Then: the bot reports it is out of moves
		require.ErrorIs(t, err, ErrNoAvailableMoves)
	})

	t.Run("Hidden ship cells stay targetable", func(t *testing.T) {
		// Given: a board where only the ship cells are untouched
		board := &entity.Board{}
		_, err := board.Place(entity.Coordinate{X: 1, Y: 2}, entity.Horizontal)
		require.NoError(t, err)
		for i, cell := range board.Grid {
			if cell == entity.CellEmpty {
				board.Grid[i] = entity.CellMiss
			}
		}

		// When: the bot picks a target
		target, err := NewBotService().ChooseTarget(board)

		// Then: the pick lands on the ship even though the bot cannot see it
		require.NoError(t, err)
		assert.Equal(t, entity.CellShip, board.Grid[target.Index()])
	})
}

func TestChoosePlacement(t *testing.T) {
	t.Run("Every generated placement is legal", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			origin, orientation := ChoosePlacement()

			_, err := entity.ShipCells(origin, orientation)
			require.NoError(t, err)
		}
	})
}
