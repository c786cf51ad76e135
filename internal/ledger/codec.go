package ledger

import (
	"encoding/binary"
	"fmt"

	"github.com/rocketscienceinc/battleship-backend/internal/apperror"
	"github.com/rocketscienceinc/battleship-backend/internal/entity"
)

const (
	// RecordSize is the size of the raw state record without the account
	// type discriminator.
	RecordSize = 190

	// DiscriminatorSize is the length of the optional type discriminator
	// some read paths prepend to the record.
	DiscriminatorSize = 8
)

// Status byte values as stored on the ledger.
const (
	StatusWaiting uint8 = 0
	StatusActive  uint8 = 1
	StatusAWon    uint8 = 2
	StatusBWon    uint8 = 3
)

// Turn byte values as stored on the ledger.
const (
	TurnPlayerA uint8 = 1
	TurnPlayerB uint8 = 2
)

// Snapshot is one decoded read of the authoritative session record. It may be
// stale relative to locally applied transitions.
type Snapshot struct {
	SessionID   uint64
	PlayerA     [32]byte
	PlayerB     [32]byte
	Turn        uint8
	Status      uint8
	GridA       [entity.GridCells]uint8
	CommitmentA [32]byte
	HitsA       uint8
	GridB       [entity.GridCells]uint8
	CommitmentB [32]byte
	HitsB       uint8
}

// DecodeSnapshot parses the fixed little-endian record. The discriminator's
// presence is detected purely from the buffer length.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	switch {
	case len(data) >= RecordSize+DiscriminatorSize:
		data = data[DiscriminatorSize : DiscriminatorSize+RecordSize]
	case len(data) == RecordSize:
	default:
		return nil, fmt.Errorf("%w: unexpected length %d", apperror.ErrDecode, len(data))
	}

	snapshot := &Snapshot{}
	offset := 0

	snapshot.SessionID = binary.LittleEndian.Uint64(data[offset:])
	offset += 8

	offset += copy(snapshot.PlayerA[:], data[offset:])
	offset += copy(snapshot.PlayerB[:], data[offset:])

	snapshot.Turn = data[offset]
	offset++
	snapshot.Status = data[offset]
	offset++

	offset += copy(snapshot.GridA[:], data[offset:offset+entity.GridCells])
	offset += copy(snapshot.CommitmentA[:], data[offset:])
	snapshot.HitsA = data[offset]
	offset++

	offset += copy(snapshot.GridB[:], data[offset:offset+entity.GridCells])
	offset += copy(snapshot.CommitmentB[:], data[offset:])
	snapshot.HitsB = data[offset]

	if err := snapshot.validate(); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// EncodeSnapshot serializes a snapshot into the raw 190-byte record.
func EncodeSnapshot(snapshot *Snapshot) []byte {
	data := make([]byte, RecordSize)
	offset := 0

	binary.LittleEndian.PutUint64(data[offset:], snapshot.SessionID)
	offset += 8

	offset += copy(data[offset:], snapshot.PlayerA[:])
	offset += copy(data[offset:], snapshot.PlayerB[:])

	data[offset] = snapshot.Turn
	offset++
	data[offset] = snapshot.Status
	offset++

	offset += copy(data[offset:], snapshot.GridA[:])
	offset += copy(data[offset:], snapshot.CommitmentA[:])
	data[offset] = snapshot.HitsA
	offset++

	offset += copy(data[offset:], snapshot.GridB[:])
	offset += copy(data[offset:], snapshot.CommitmentB[:])
	data[offset] = snapshot.HitsB

	return data
}

func (that *Snapshot) validate() error {
	if that.Status > StatusBWon {
		return fmt.Errorf("%w: unknown status %d", apperror.ErrDecode, that.Status)
	}

	if that.Turn != TurnPlayerA && that.Turn != TurnPlayerB {
		return fmt.Errorf("%w: unknown turn %d", apperror.ErrDecode, that.Turn)
	}

	for i, cell := range that.GridA {
		if cell > uint8(entity.CellMiss) {
			return fmt.Errorf("%w: grid A cell %d has value %d", apperror.ErrDecode, i, cell)
		}
	}

	for i, cell := range that.GridB {
		if cell > uint8(entity.CellMiss) {
			return fmt.Errorf("%w: grid B cell %d has value %d", apperror.ErrDecode, i, cell)
		}
	}

	return nil
}
