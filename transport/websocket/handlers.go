package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/battleship-backend/internal/apperror"
	"github.com/rocketscienceinc/battleship-backend/internal/entity"
)

func (that *Server) handleNewGame(ctx context.Context, playerID string, msg *Message, c *conn) error {
	payloadReq, err := unmarshalPayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Placement == nil {
		return that.sendError(c, msg.Action, "placement is required")
	}

	gameType := payloadReq.GameType
	if gameType == "" {
		gameType = entity.PrivateType
	}

	origin := entity.Coordinate{X: payloadReq.Placement.X, Y: payloadReq.Placement.Y}

	game, err := that.gamePlay.CreateGame(ctx, playerID, gameType, origin, payloadReq.Placement.Orientation)
	if err != nil {
		return that.sendAppError(c, msg.Action, err)
	}

	return that.sendGame(c, msg.Action, game, entity.PlayerA)
}

func (that *Server) handleJoinGame(ctx context.Context, playerID string, msg *Message, c *conn) error {
	payloadReq, err := unmarshalPayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.GameID == "" {
		return that.sendError(c, msg.Action, "game_id is required")
	}

	if payloadReq.Placement == nil {
		return that.sendError(c, msg.Action, "placement is required")
	}

	origin := entity.Coordinate{X: payloadReq.Placement.X, Y: payloadReq.Placement.Y}

	game, err := that.gamePlay.JoinGame(ctx, payloadReq.GameID, playerID, origin, payloadReq.Placement.Orientation)
	if err != nil {
		return that.sendAppError(c, msg.Action, err)
	}

	return that.sendGame(c, msg.Action, game, entity.PlayerB)
}

func (that *Server) handleAttack(ctx context.Context, playerID string, msg *Message, c *conn) error {
	payloadReq, err := unmarshalPayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Target == nil {
		return that.sendError(c, msg.Action, "target is required")
	}

	target := entity.Coordinate{X: payloadReq.Target.X, Y: payloadReq.Target.Y}

	game, outcome, err := that.gamePlay.Attack(ctx, playerID, target)
	if err != nil {
		return that.sendAppError(c, msg.Action, err)
	}

	role := roleOf(game, playerID)

	payload := Payload{
		Game:    maskGameFor(game, role),
		Outcome: string(outcome),
	}

	return c.writeJSON(&Message{Action: msg.Action, Payload: mustMarshal(payload)})
}

func (that *Server) handleReset(ctx context.Context, playerID string, msg *Message, c *conn) error {
	if err := that.gamePlay.Reset(ctx, playerID); err != nil {
		return that.sendAppError(c, msg.Action, err)
	}

	return c.writeJSON(&Message{Action: msg.Action})
}

func (that *Server) handlePollingSet(ctx context.Context, playerID string, msg *Message, c *conn) error {
	payloadReq, err := unmarshalPayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Enabled == nil {
		return that.sendError(c, msg.Action, "enabled is required")
	}

	interval := that.pollInterval
	if payloadReq.Interval > 0 {
		interval = time.Duration(payloadReq.Interval) * time.Millisecond
	}

	if err = that.gamePlay.SetPolling(ctx, playerID, *payloadReq.Enabled, interval); err != nil {
		return that.sendAppError(c, msg.Action, err)
	}

	return c.writeJSON(&Message{Action: msg.Action})
}

func (that *Server) handleGameState(ctx context.Context, playerID string, msg *Message, c *conn) error {
	game, err := that.gamePlay.GameByPlayerID(ctx, playerID)
	if err != nil {
		return that.sendAppError(c, msg.Action, err)
	}

	return that.sendGame(c, msg.Action, game, roleOf(game, playerID))
}

func (that *Server) sendGame(c *conn, action string, game *entity.Game, role string) error {
	payload := Payload{Game: maskGameFor(game, role)}

	if err := c.writeJSON(&Message{Action: action, Payload: mustMarshal(payload)}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	return nil
}

func (that *Server) sendError(c *conn, action, message string) error {
	payload := Payload{Error: message}

	if err := c.writeJSON(&Message{Action: action, Payload: mustMarshal(payload)}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}

// sendAppError maps rule violations to client-facing messages. Anything
// outside the taxonomy is reported as a transient failure: the session is
// still in its last consistent state and the client may retry.
func (that *Server) sendAppError(c *conn, action string, err error) error {
	known := []error{
		apperror.ErrInvalidPlacement,
		apperror.ErrAlreadyPlaced,
		apperror.ErrNotWaiting,
		apperror.ErrNotYourTurn,
		apperror.ErrOutOfBounds,
		apperror.ErrAlreadyAttacked,
		apperror.ErrAttackInProgress,
		apperror.ErrGameFinished,
		apperror.ErrGameIsNotStarted,
		apperror.ErrSessionNotFound,
		apperror.ErrStaleCommitment,
	}

	for _, appErr := range known {
		if errors.Is(err, appErr) {
			return that.sendError(c, action, appErr.Error())
		}
	}

	return that.sendError(c, action, "temporary failure, please retry")
}

func unmarshalPayload(msg *Message) (*Payload, error) {
	payload := &Payload{}

	if len(msg.Payload) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(msg.Payload, payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return payload, nil
}

func roleOf(game *entity.Game, playerID string) string {
	for _, player := range game.Players {
		if player.ID == playerID {
			return player.Role
		}
	}

	return entity.EmptyRole
}
