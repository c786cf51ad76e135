package service

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/battleship-backend/internal/battleship"
	"github.com/rocketscienceinc/battleship-backend/internal/entity"
)

var (
	ErrBotNotFound      = errors.New("bot player not found")
	ErrNoAvailableMoves = errors.New("no available moves")
)

type BotService interface {
	MakeTurn(game *entity.Game) (battleship.Outcome, error)
	ChooseTarget(board *entity.Board) (entity.Coordinate, error)
}

type botService struct{}

func NewBotService() BotService {
	return &botService{}
}

// MakeTurn plays one bot move through the same attack entry point humans use.
func (that *botService) MakeTurn(game *entity.Game) (battleship.Outcome, error) {
	var botPlayer *entity.Player
	for _, player := range game.Players {
		if player.IsBot() {
			botPlayer = player
			break
		}
	}

	if botPlayer == nil {
		return "", ErrBotNotFound
	}

	defender, err := game.BoardOf(entity.OpponentOf(botPlayer.Role))
	if err != nil {
		return "", fmt.Errorf("failed to get defender board: %w", err)
	}

	target, err := that.ChooseTarget(defender)
	if err != nil {
		return "", err
	}

	outcome, err := battleship.Attack(game, botPlayer.Role, target)
	if err != nil {
		return "", fmt.Errorf("bot failed to make turn: %w", err)
	}

	return outcome, nil
}

// ChoosePlacement returns a random legal ship placement.
func ChoosePlacement() (entity.Coordinate, string) {
	if rand.Intn(2) == 0 { //nolint: gosec // it's ok
		return entity.Coordinate{
			X: rand.Intn(entity.GridSize - entity.ShipLength + 1), //nolint: gosec // it's ok
			Y: rand.Intn(entity.GridSize),                         //nolint: gosec // it's ok
		}, entity.Horizontal
	}

	return entity.Coordinate{
		X: rand.Intn(entity.GridSize),                         //nolint: gosec // it's ok
		Y: rand.Intn(entity.GridSize - entity.ShipLength + 1), //nolint: gosec // it's ok
	}, entity.Vertical
}

// ChooseTarget picks uniformly among cells not yet attacked. The bot reads
// the defender's board through the opponent projection, so it never sees
// where the ship is.
func (that *botService) ChooseTarget(board *entity.Board) (entity.Coordinate, error) {
	view := board.View(false)

	availableCells := make([]int, 0, len(view))
	for i, cell := range view {
		if cell != entity.CellHit && cell != entity.CellMiss {
			availableCells = append(availableCells, i)
		}
	}

	if len(availableCells) == 0 {
		return entity.Coordinate{}, ErrNoAvailableMoves
	}

	chosenCell := availableCells[rand.Intn(len(availableCells))] //nolint: gosec // it's ok

	return entity.Coordinate{X: chosenCell % entity.GridSize, Y: chosenCell / entity.GridSize}, nil
}
