package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/battleship-backend/internal/entity"
)

const (
	actionConnect    = "connect"
	actionGameNew    = "game:new"
	actionGameJoin   = "game:join"
	actionGameAttack = "game:attack"
	actionGameReset  = "game:reset"
	actionGameState  = "game:state"
	actionPollingSet = "polling:set"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Placement struct {
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Orientation string `json:"orientation"`
}

type Target struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Payload struct {
	Player    *entity.Player `json:"player,omitempty"`
	Game      *entity.Game   `json:"game,omitempty"`
	GameID    string         `json:"game_id,omitempty"`
	GameType  string         `json:"game_type,omitempty"`
	Placement *Placement     `json:"placement,omitempty"`
	Target    *Target        `json:"target,omitempty"`
	Outcome   string         `json:"outcome,omitempty"`
	Enabled   *bool          `json:"enabled,omitempty"`
	Interval  int            `json:"interval_ms,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// maskGameFor projects a session for one viewer: the opponent's untouched
// ship cells read as empty and placement secrets are stripped from both
// boards.
func maskGameFor(game *entity.Game, role string) *entity.Game {
	masked := game.Clone()

	maskBoard := func(board *entity.Board, owner bool) {
		board.Grid = board.View(owner)
		board.ShipOrigin = entity.Coordinate{}
		board.ShipOrientation = ""
	}

	maskBoard(masked.BoardA, role == entity.PlayerA)
	maskBoard(masked.BoardB, role == entity.PlayerB)

	return masked
}
