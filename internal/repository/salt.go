package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/battleship-backend/internal/commitment"
)

var ErrSaltNotFound = errors.New("salt not found")

// SaltRepository stores placement salts and their commitments locally.
// Salts never leave the machine; they are only needed to reveal a placement
// if a session is ever disputed.
type SaltRepository interface {
	Save(ctx context.Context, gameID, role string, salt [commitment.SaltSize]byte, hash []byte) error
	Get(ctx context.Context, gameID, role string) ([commitment.SaltSize]byte, []byte, error)
	DeleteByGameID(ctx context.Context, gameID string) error
}

type dbSalt struct {
	conn *sql.DB
}

func NewSaltRepository(conn *sql.DB) SaltRepository {
	return &dbSalt{conn: conn}
}

func (that *dbSalt) Save(ctx context.Context, gameID, role string, salt [commitment.SaltSize]byte, hash []byte) error {
	query := `INSERT OR REPLACE INTO salts (game_id, role, salt, commitment) VALUES (?, ?, ?, ?)`

	if _, err := that.conn.ExecContext(ctx, query, gameID, role, salt[:], hash); err != nil {
		return fmt.Errorf("failed to save salt: %w", err)
	}

	return nil
}

func (that *dbSalt) Get(ctx context.Context, gameID, role string) ([commitment.SaltSize]byte, []byte, error) {
	var salt [commitment.SaltSize]byte

	query := `SELECT salt, commitment FROM salts WHERE game_id = ? AND role = ?`

	var saltBytes, hash []byte
	err := that.conn.QueryRowContext(ctx, query, gameID, role).Scan(&saltBytes, &hash)

	if errors.Is(err, sql.ErrNoRows) {
		return salt, nil, ErrSaltNotFound
	}

	if err != nil {
		return salt, nil, fmt.Errorf("failed to get salt: %w", err)
	}

	if len(saltBytes) != commitment.SaltSize {
		return salt, nil, fmt.Errorf("unexpected salt length %d", len(saltBytes))
	}

	copy(salt[:], saltBytes)

	return salt, hash, nil
}

func (that *dbSalt) DeleteByGameID(ctx context.Context, gameID string) error {
	query := `DELETE FROM salts WHERE game_id = ?`

	if _, err := that.conn.ExecContext(ctx, query, gameID); err != nil {
		return fmt.Errorf("failed to delete salts: %w", err)
	}

	return nil
}
