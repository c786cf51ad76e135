package service

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/battleship-backend/internal/commitment"
	"github.com/rocketscienceinc/battleship-backend/internal/entity"
	"github.com/rocketscienceinc/battleship-backend/internal/ledger"
	"github.com/rocketscienceinc/battleship-backend/internal/repository"
)

type memGameRepo struct {
	mu    sync.Mutex
	games map[string]*entity.Game
}

func newMemGameRepo() *memGameRepo {
	return &memGameRepo{games: make(map[string]*entity.Game)}
}

func (that *memGameRepo) CreateOrUpdate(_ context.Context, game *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.games[game.ID] = game.Clone()

	return nil
}

func (that *memGameRepo) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[id]
	if !ok {
		return nil, repository.ErrGameNotFound
	}

	return game.Clone(), nil
}

func (that *memGameRepo) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.games, id)

	return nil
}

type memPlayerRepo struct {
	mu      sync.Mutex
	players map[string]*entity.Player
}

func newMemPlayerRepo() *memPlayerRepo {
	return &memPlayerRepo{players: make(map[string]*entity.Player)}
}

func (that *memPlayerRepo) CreateOrUpdate(_ context.Context, player *entity.Player) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	copied := *player
	that.players[player.ID] = &copied

	return nil
}

func (that *memPlayerRepo) GetByID(_ context.Context, id string) (*entity.Player, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, ok := that.players[id]
	if !ok {
		return nil, repository.ErrPlayerNotFound
	}

	copied := *player

	return &copied, nil
}

type saltRecord struct {
	salt [commitment.SaltSize]byte
	hash []byte
}

type memSaltRepo struct {
	mu    sync.Mutex
	salts map[string]saltRecord
}

func newMemSaltRepo() *memSaltRepo {
	return &memSaltRepo{salts: make(map[string]saltRecord)}
}

func (that *memSaltRepo) Save(_ context.Context, gameID, role string, salt [commitment.SaltSize]byte, hash []byte) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.salts[gameID+"/"+role] = saltRecord{salt: salt, hash: hash}

	return nil
}

func (that *memSaltRepo) Get(_ context.Context, gameID, role string) ([commitment.SaltSize]byte, []byte, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	record, ok := that.salts[gameID+"/"+role]
	if !ok {
		return [commitment.SaltSize]byte{}, nil, repository.ErrSaltNotFound
	}

	return record.salt, record.hash, nil
}

func (that *memSaltRepo) DeleteByGameID(_ context.Context, gameID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	for key := range that.salts {
		if len(key) > len(gameID) && key[:len(gameID)] == gameID {
			delete(that.salts, key)
		}
	}

	return nil
}

// fakeWriter records submitted transactions; an optional gate blocks Submit
// until released.
type fakeWriter struct {
	mu        sync.Mutex
	submitted []ledger.Transaction
	gate      chan struct{}
}

func (that *fakeWriter) Submit(_ context.Context, tx ledger.Transaction) error {
	if that.gate != nil {
		<-that.gate
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.submitted = append(that.submitted, tx)

	return nil
}

func (that *fakeWriter) transactions() []ledger.Transaction {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]ledger.Transaction(nil), that.submitted...)
}

// fakeReader serves a fixed byte blob per fetch.
type fakeReader struct {
	mu   sync.Mutex
	data []byte
	err  error
}

func (that *fakeReader) set(data []byte, err error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.data = data
	that.err = err
}

func (that *fakeReader) FetchSnapshot(_ context.Context, _ uint64) ([]byte, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.err != nil {
		return nil, that.err
	}

	return append([]byte(nil), that.data...), nil
}
