package battleship

import (
	"fmt"

	"github.com/rocketscienceinc/battleship-backend/internal/apperror"
	"github.com/rocketscienceinc/battleship-backend/internal/entity"
)

type Outcome string

const (
	OutcomeHit  Outcome = "hit"
	OutcomeMiss Outcome = "miss"
)

// Apply resolves a single attack against a board. It returns the outcome and
// whether the board is fully destroyed after the shot. A rejected attack
// leaves the board unchanged.
func Apply(board *entity.Board, target entity.Coordinate) (Outcome, bool, error) {
	if !target.InBounds() {
		return "", false, fmt.Errorf("%w: (%d, %d)", apperror.ErrOutOfBounds, target.X, target.Y)
	}

	index := target.Index()

	switch board.Grid[index] {
	case entity.CellHit, entity.CellMiss:
		return "", false, fmt.Errorf("%w: (%d, %d)", apperror.ErrAlreadyAttacked, target.X, target.Y)
	case entity.CellShip:
		board.Grid[index] = entity.CellHit
		board.HitsTaken++
		return OutcomeHit, board.IsDestroyed(), nil
	default:
		board.Grid[index] = entity.CellMiss
		return OutcomeMiss, false, nil
	}
}
