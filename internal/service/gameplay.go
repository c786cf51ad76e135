package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/battleship-backend/internal/apperror"
	"github.com/rocketscienceinc/battleship-backend/internal/battleship"
	"github.com/rocketscienceinc/battleship-backend/internal/commitment"
	"github.com/rocketscienceinc/battleship-backend/internal/entity"
	"github.com/rocketscienceinc/battleship-backend/internal/ledger"
	"github.com/rocketscienceinc/battleship-backend/internal/reconcile"
	"github.com/rocketscienceinc/battleship-backend/internal/repository"
)

type GamePlayService interface {
	CreateGame(ctx context.Context, playerID, gameType string, origin entity.Coordinate, orientation string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, playerID string, origin entity.Coordinate, orientation string) (*entity.Game, error)
	Attack(ctx context.Context, playerID string, target entity.Coordinate) (*entity.Game, battleship.Outcome, error)
	Reset(ctx context.Context, playerID string) error

	GameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)
	SetPolling(ctx context.Context, playerID string, enabled bool, interval time.Duration) error
	Subscribe(fn func(*entity.Game)) func()
}

type gamePlayService struct {
	logger *slog.Logger

	playerService PlayerService
	gameService   GameService
	botService    BotService

	saltRepo repository.SaltRepository
	prover   commitment.Prover
	writer   ledger.Writer
	poller   *Poller

	botDelay time.Duration

	// mu serializes all session transitions, standing in for the single
	// event loop the UI side runs on.
	mu       sync.Mutex
	inflight map[string]bool

	subMu       sync.RWMutex
	subscribers map[int]func(*entity.Game)
	nextSubID   int
}

func NewGamePlayService(
	logger *slog.Logger,
	playerService PlayerService,
	gameService GameService,
	botService BotService,
	saltRepo repository.SaltRepository,
	prover commitment.Prover,
	writer ledger.Writer,
	poller *Poller,
	botDelay time.Duration,
) GamePlayService {
	return &gamePlayService{
		logger:        logger.With("component", "gameplay"),
		playerService: playerService,
		gameService:   gameService,
		botService:    botService,
		saltRepo:      saltRepo,
		prover:        prover,
		writer:        writer,
		poller:        poller,
		botDelay:      botDelay,
		inflight:      make(map[string]bool),
		subscribers:   make(map[int]func(*entity.Game)),
	}
}

func (that *gamePlayService) CreateGame(ctx context.Context, playerID, gameType string, origin entity.Coordinate, orientation string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	salt, hash, err := that.commitPlacement(ctx, origin, orientation)
	if err != nil {
		return nil, err
	}

	id, sessionID := that.gameService.NewGameID()

	game, err := battleship.CreateGame(id, gameType, origin, orientation)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	game.SessionID = sessionID
	game.BoardA.Commitment = hash

	player.GameID = game.ID
	player.Role = entity.PlayerA
	game.Players = append(game.Players, player)

	if err = that.saltRepo.Save(ctx, game.ID, entity.PlayerA, salt, hash); err != nil {
		return nil, fmt.Errorf("failed to save salt: %w", err)
	}

	if game.IsWithBot() {
		if err = that.joinBot(ctx, game); err != nil {
			return nil, fmt.Errorf("failed to join bot: %w", err)
		}
	}

	if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	that.submit(game, "create_game", entity.PlayerA, hash)
	that.notify(game)

	return game, nil
}

func (that *gamePlayService) JoinGame(ctx context.Context, gameID, playerID string, origin entity.Coordinate, orientation string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	salt, hash, err := that.commitPlacement(ctx, origin, orientation)
	if err != nil {
		return nil, err
	}

	if err = battleship.JoinGame(game, origin, orientation); err != nil {
		return nil, fmt.Errorf("failed to join game: %w", err)
	}

	game.BoardB.Commitment = hash

	player.GameID = game.ID
	player.Role = entity.PlayerB
	game.Players = append(game.Players, player)

	if err = that.saltRepo.Save(ctx, game.ID, entity.PlayerB, salt, hash); err != nil {
		return nil, fmt.Errorf("failed to save salt: %w", err)
	}

	if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	that.submit(game, "join_game", entity.PlayerB, hash)
	that.notify(game)

	return game, nil
}

func (that *gamePlayService) Attack(ctx context.Context, playerID string, target entity.Coordinate) (*entity.Game, battleship.Outcome, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get player by id: %w", err)
	}

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get game by id: %w", err)
	}

	if that.inflight[game.ID] {
		return game, "", apperror.ErrAttackInProgress
	}

	// an active session without both commitments cannot produce a provable
	// attack; it has to be re-synced from the ledger first
	if game.IsActive() && (len(game.BoardA.Commitment) == 0 || len(game.BoardB.Commitment) == 0) {
		return game, "", apperror.ErrStaleCommitment
	}

	outcome, err := battleship.Attack(game, player.Role, target)
	if err != nil {
		return game, "", fmt.Errorf("failed to make turn: %w", err)
	}

	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, "", fmt.Errorf("failed to update game: %w", err)
	}

	that.submitAttack(game, player.Role, target)
	that.notify(game)

	if game.IsWithBot() && game.IsActive() {
		that.scheduleBotTurn(game)
	}

	return game, outcome, nil
}

func (that *gamePlayService) Reset(ctx context.Context, playerID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil
	}

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return fmt.Errorf("failed to get game by id: %w", err)
	}

	that.poller.Disable(game.SessionID)
	delete(that.inflight, game.ID)

	if err = that.saltRepo.DeleteByGameID(ctx, game.ID); err != nil {
		return fmt.Errorf("failed to delete salts: %w", err)
	}

	if err = that.gameService.DeleteGame(ctx, game); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	for _, gamePlayer := range game.Players {
		if gamePlayer.IsBot() {
			continue
		}

		gamePlayer.GameID = ""
		gamePlayer.Role = entity.EmptyRole
		if err = that.playerService.UpdatePlayer(ctx, gamePlayer); err != nil {
			return fmt.Errorf("failed to update player: %w", err)
		}
	}

	return nil
}

func (that *gamePlayService) GameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	return game, nil
}

func (that *gamePlayService) SetPolling(ctx context.Context, playerID string, enabled bool, interval time.Duration) error {
	game, err := that.GameByPlayerID(ctx, playerID)
	if err != nil {
		return err
	}

	if !enabled {
		that.poller.Disable(game.SessionID)
		return nil
	}

	gameID := game.ID
	that.poller.Enable(ctx, game.SessionID, interval, func(ctx context.Context, snapshot *ledger.Snapshot) {
		that.applySnapshot(ctx, gameID, snapshot)
	})

	return nil
}

func (that *gamePlayService) Subscribe(fn func(*entity.Game)) func() {
	that.subMu.Lock()
	defer that.subMu.Unlock()

	id := that.nextSubID
	that.nextSubID++
	that.subscribers[id] = fn

	return func() {
		that.subMu.Lock()
		defer that.subMu.Unlock()
		delete(that.subscribers, id)
	}
}

// applySnapshot merges one polled snapshot into the live session. A stale
// snapshot merges to an unchanged session and is dropped silently.
func (that *gamePlayService) applySnapshot(ctx context.Context, gameID string, snapshot *ledger.Snapshot) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "applySnapshot", "gameID", gameID)

	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		log.Error("failed to get game by id", "error", err)
		return
	}

	merged, changed := reconcile.Merge(game, snapshot)
	if !changed {
		return
	}

	if err = that.gameService.UpdateGame(ctx, merged); err != nil {
		log.Error("failed to update game", "error", err)
		return
	}

	that.notify(merged)
}

func (that *gamePlayService) commitPlacement(ctx context.Context, origin entity.Coordinate, orientation string) ([commitment.SaltSize]byte, []byte, error) {
	salt, err := commitment.NewSalt()
	if err != nil {
		return salt, nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	hash, err := that.prover.Execute(ctx, commitment.Inputs{
		Origin:      origin,
		Orientation: orientation,
		Salt:        salt,
	})
	if err != nil {
		return salt, nil, fmt.Errorf("failed to generate commitment: %w", err)
	}

	return salt, hash[:], nil
}

func (that *gamePlayService) joinBot(ctx context.Context, game *entity.Game) error {
	origin, orientation := ChoosePlacement()

	salt, hash, err := that.commitPlacement(ctx, origin, orientation)
	if err != nil {
		return err
	}

	if err = battleship.JoinGame(game, origin, orientation); err != nil {
		return err
	}

	game.BoardB.Commitment = hash
	game.Players = append(game.Players, &entity.Player{
		ID:     entity.BotID,
		Role:   entity.PlayerB,
		GameID: game.ID,
	})

	if err = that.saltRepo.Save(ctx, game.ID, entity.PlayerB, salt, hash); err != nil {
		return fmt.Errorf("failed to save salt: %w", err)
	}

	return nil
}

// scheduleBotTurn plays the bot's move after the configured decision latency.
// The caller holds the transition lock; with zero latency the move is played
// inline, which keeps the single-player flow deterministic in tests.
func (that *gamePlayService) scheduleBotTurn(game *entity.Game) {
	var botRole string
	for _, player := range game.Players {
		if player.IsBot() {
			botRole = player.Role
		}
	}

	if botRole == "" || game.Turn != botRole {
		return
	}

	if that.botDelay <= 0 {
		that.playBotTurn(context.Background(), game.ID)
		return
	}

	gameID := game.ID
	time.AfterFunc(that.botDelay, func() {
		that.mu.Lock()
		defer that.mu.Unlock()
		that.playBotTurn(context.Background(), gameID)
	})
}

func (that *gamePlayService) playBotTurn(ctx context.Context, gameID string) {
	log := that.logger.With("method", "playBotTurn", "gameID", gameID)

	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		log.Error("failed to get game by id", "error", err)
		return
	}

	if !game.IsActive() {
		return
	}

	if _, err = that.botService.MakeTurn(game); err != nil {
		log.Error("bot failed to make turn", "error", err)
		return
	}

	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		log.Error("failed to update game", "error", err)
		return
	}

	that.notify(game)
}

// submitAttack sends the attack transaction to the ledger. Exactly one attack
// may be in flight per session; the flag is cleared when the submission
// resolves, and the result of a late submission is reconciled through the
// polling path rather than applied directly.
func (that *gamePlayService) submitAttack(game *entity.Game, role string, target entity.Coordinate) {
	if that.writer == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{"role": role, "x": target.X, "y": target.Y})
	if err != nil {
		that.logger.Error("failed to marshal attack payload", "error", err)
		return
	}

	that.inflight[game.ID] = true

	tx := ledger.Transaction{Kind: "attack", SessionID: game.SessionID, Payload: payload}
	gameID := game.ID

	go func() {
		// Submissions are not cancelled once started; a stale result is
		// ignored by the anti-regression merge.
		err := that.writer.Submit(context.Background(), tx)

		that.mu.Lock()
		delete(that.inflight, gameID)
		that.mu.Unlock()

		if err != nil {
			that.logger.Error("failed to submit attack", "gameID", gameID, "error", err)
		}
	}()
}

func (that *gamePlayService) submit(game *entity.Game, kind, role string, hash []byte) {
	if that.writer == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{"role": role, "commitment": hash})
	if err != nil {
		that.logger.Error("failed to marshal payload", "kind", kind, "error", err)
		return
	}

	tx := ledger.Transaction{Kind: kind, SessionID: game.SessionID, Payload: payload}
	gameID := game.ID

	go func() {
		if err := that.writer.Submit(context.Background(), tx); err != nil {
			that.logger.Error("failed to submit transaction", "kind", kind, "gameID", gameID, "error", err)
		}
	}()
}

func (that *gamePlayService) notify(game *entity.Game) {
	snapshot := game.Clone()

	that.subMu.RLock()
	defer that.subMu.RUnlock()

	for _, fn := range that.subscribers {
		fn(snapshot)
	}
}
