package battleship

import (
	"fmt"

	"github.com/rocketscienceinc/battleship-backend/internal/apperror"
	"github.com/rocketscienceinc/battleship-backend/internal/entity"
)

// CreateGame starts a new session: player A places a ship and waits for an
// opponent.
func CreateGame(id, gameType string, origin entity.Coordinate, orientation string) (*entity.Game, error) {
	game := entity.NewGame(id, gameType)

	if _, err := game.BoardA.Place(origin, orientation); err != nil {
		return nil, fmt.Errorf("failed to place ship for player A: %w", err)
	}

	return game, nil
}

// JoinGame places player B's ship and activates the session.
func JoinGame(game *entity.Game, origin entity.Coordinate, orientation string) error {
	if !game.IsWaiting() {
		return fmt.Errorf("%w: status %s", apperror.ErrNotWaiting, game.Status)
	}

	if _, err := game.BoardB.Place(origin, orientation); err != nil {
		return fmt.Errorf("failed to place ship for player B: %w", err)
	}

	game.Status = entity.StatusActive

	return nil
}

// Attack resolves one shot by the given role against the opponent's board and
// advances the session. No partial transition is ever committed: every
// validation happens before the first mutation.
func Attack(game *entity.Game, role string, target entity.Coordinate) (Outcome, error) {
	if err := game.ConfirmActiveState(); err != nil {
		return "", err
	}

	if game.Turn != role {
		return "", apperror.ErrNotYourTurn
	}

	defender, err := game.BoardOf(entity.OpponentOf(role))
	if err != nil {
		return "", fmt.Errorf("invalid attacker role: %w", err)
	}

	outcome, destroyed, err := Apply(defender, target)
	if err != nil {
		return "", fmt.Errorf("invalid turn: %w", err)
	}

	if destroyed {
		game.Status = entity.StatusFinished
		game.Winner = role
		return outcome, nil
	}

	game.Turn = entity.OpponentOf(role)

	return outcome, nil
}
