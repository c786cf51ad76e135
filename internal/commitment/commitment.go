package commitment

import (
	"context"
	"crypto/rand"
	"fmt"

	"lukechampine.com/blake3"

	"github.com/rocketscienceinc/battleship-backend/internal/entity"
)

// SaltSize is the size of the placement salt in bytes (128 bits).
const SaltSize = 16

// domainPrefix separates placement commitments from any other use of the same
// hash function.
const domainPrefix = "battleship:placement:v1"

type Inputs struct {
	Origin      entity.Coordinate
	Orientation string
	Salt        [SaltSize]byte
}

// Prover derives a placement commitment. The production deployment may back
// this with an external proving engine; Generator computes it locally.
type Prover interface {
	Execute(ctx context.Context, inputs Inputs) ([32]byte, error)
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (that *Generator) Execute(_ context.Context, inputs Inputs) ([32]byte, error) {
	return Commit(inputs.Origin, inputs.Orientation, inputs.Salt)
}

// Commit derives the 32-byte placement commitment. It validates that the ship
// fits on the board before hashing; an invalid placement produces no hash.
func Commit(origin entity.Coordinate, orientation string, salt [SaltSize]byte) ([32]byte, error) {
	var hash [32]byte

	if _, err := entity.ShipCells(origin, orientation); err != nil {
		return hash, err
	}

	orientByte := byte(0)
	if orientation == entity.Vertical {
		orientByte = 1
	}

	preimage := make([]byte, 0, len(domainPrefix)+3+SaltSize)
	preimage = append(preimage, domainPrefix...)
	preimage = append(preimage, byte(origin.X), byte(origin.Y), orientByte)
	preimage = append(preimage, salt[:]...)

	return blake3.Sum256(preimage), nil
}

// NewSalt returns a fresh random salt. Salts are generated once per session
// and never transmitted.
func NewSalt() ([SaltSize]byte, error) {
	var salt [SaltSize]byte

	if _, err := rand.Read(salt[:]); err != nil {
		return salt, fmt.Errorf("failed to generate salt: %w", err)
	}

	return salt, nil
}
