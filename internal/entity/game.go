package entity

import (
	"fmt"

	"github.com/rocketscienceinc/battleship-backend/internal/apperror"
)

const (
	StatusFinished = "finished"
	StatusActive   = "active"
	StatusWaiting  = "waiting"

	PlayerA = "A"
	PlayerB = "B"

	EmptyRole = ""
)

const (
	PrivateType = "private"
	WithBotType = "bot"
)

// Game is one battleship session. All mutation goes through the named
// transitions in the battleship package; everything else reads.
type Game struct {
	ID        string    `json:"id"`
	SessionID uint64    `json:"session_id,omitempty"`
	Status    string    `json:"status"`
	Turn      string    `json:"player_turn"`
	BoardA    *Board    `json:"board_a"`
	BoardB    *Board    `json:"board_b"`
	Winner    string    `json:"winner,omitempty"`
	Players   []*Player `json:"players,omitempty"`
	Type      string    `json:"type,omitempty"`
}

func NewGame(id, gameType string) *Game {
	return &Game{
		ID:     id,
		Status: StatusWaiting,
		Turn:   PlayerA,
		BoardA: NewBoard(),
		BoardB: NewBoard(),
		Type:   gameType,
	}
}

// BoardOf returns the board owned by the given role.
func (that *Game) BoardOf(role string) (*Board, error) {
	switch role {
	case PlayerA:
		return that.BoardA, nil
	case PlayerB:
		return that.BoardB, nil
	default:
		return nil, fmt.Errorf("unknown player role %q", role)
	}
}

// OpponentOf returns the other role.
func OpponentOf(role string) string {
	if role == PlayerA {
		return PlayerB
	}
	return PlayerA
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsActive() bool {
	return that.Status == StatusActive
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) IsWithBot() bool {
	return that.Type == WithBotType
}

func (that *Game) ConfirmActiveState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	default:
		return nil
	}
}

// Clone returns a deep copy of the session. Players are shared: the roster is
// append-only and never mutated in place.
func (that *Game) Clone() *Game {
	clone := *that

	if that.BoardA != nil {
		boardA := *that.BoardA
		clone.BoardA = &boardA
	}

	if that.BoardB != nil {
		boardB := *that.BoardB
		clone.BoardB = &boardB
	}

	return &clone
}

// Equal compares the observable fields of two sessions: status, turn, grids
// and winner. Commitments and placement secrets are not part of the
// comparison.
func (that *Game) Equal(other *Game) bool {
	if that == nil || other == nil {
		return that == other
	}

	return that.Status == other.Status &&
		that.Turn == other.Turn &&
		that.Winner == other.Winner &&
		that.BoardA.Grid == other.BoardA.Grid &&
		that.BoardB.Grid == other.BoardB.Grid
}
