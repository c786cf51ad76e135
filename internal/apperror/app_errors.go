package apperror

import "errors"

var (
	ErrInvalidPlacement = errors.New("ship placement is out of bounds")
	ErrAlreadyPlaced    = errors.New("ship is already placed on this board")
	ErrNotWaiting       = errors.New("game is not waiting for an opponent")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrOutOfBounds      = errors.New("coordinates are out of bounds")
	ErrAlreadyAttacked  = errors.New("cell is already attacked")
	ErrAttackInProgress = errors.New("attack submission is already in flight")
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrSessionNotFound  = errors.New("session not found on the ledger")
	ErrStaleCommitment  = errors.New("stale or missing commitment")
	ErrExternalService  = errors.New("external service failure")
	ErrDecode           = errors.New("malformed state record")
)
