package service

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/battleship-backend/internal/entity"
	"github.com/rocketscienceinc/battleship-backend/internal/repository"
)

type GameService interface {
	NewGameID() (string, uint64)
	GetGameByID(ctx context.Context, id string) (*entity.Game, error)
	UpdateGame(ctx context.Context, game *entity.Game) error
	DeleteGame(ctx context.Context, game *entity.Game) error
}

type gameService struct {
	gameRepo repository.GameRepository
}

func NewGameService(gameRepo repository.GameRepository) GameService {
	return &gameService{gameRepo: gameRepo}
}

// NewGameID returns a fresh game id together with the numeric session id the
// ledger record is keyed by.
func (that *gameService) NewGameID() (string, uint64) {
	id := uuid.New()
	return id.String(), binary.LittleEndian.Uint64(id[:8])
}

func (that *gameService) GetGameByID(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	return game, nil
}

func (that *gameService) UpdateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}

func (that *gameService) DeleteGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.DeleteByID(ctx, game.ID); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	return nil
}
