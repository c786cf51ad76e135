package entity

import (
	"fmt"

	"github.com/rocketscienceinc/battleship-backend/internal/apperror"
)

const (
	GridSize   = 5
	GridCells  = GridSize * GridSize
	ShipLength = 4
)

// Cell is the state of a single board cell. The numeric values match the
// ledger's wire encoding.
type Cell uint8

const (
	CellEmpty Cell = 0
	CellShip  Cell = 1
	CellHit   Cell = 2
	CellMiss  Cell = 3
)

const (
	Horizontal = "horizontal"
	Vertical   = "vertical"
)

type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (that Coordinate) Index() int {
	return that.Y*GridSize + that.X
}

func (that Coordinate) InBounds() bool {
	return that.X >= 0 && that.X < GridSize && that.Y >= 0 && that.Y < GridSize
}

// Board holds one player's grid. Ship placement fields are only meaningful on
// the owner's side; the opponent receives the masked View projection.
type Board struct {
	Grid            [GridCells]Cell `json:"grid"`
	Placed          bool            `json:"placed"`
	ShipOrigin      Coordinate      `json:"ship_origin"`
	ShipOrientation string          `json:"ship_orientation,omitempty"`
	HitsTaken       int             `json:"hits_taken"`
	Commitment      []byte          `json:"commitment,omitempty"`
}

func NewBoard() *Board {
	return &Board{}
}

// ShipCells derives the linear indexes of the four cells a ship occupies.
func ShipCells(origin Coordinate, orientation string) ([ShipLength]int, error) {
	var cells [ShipLength]int

	if !origin.InBounds() {
		return cells, fmt.Errorf("%w: origin (%d, %d)", apperror.ErrInvalidPlacement, origin.X, origin.Y)
	}

	switch orientation {
	case Horizontal:
		if origin.X+ShipLength > GridSize {
			return cells, fmt.Errorf("%w: ship doesn't fit horizontally at x=%d", apperror.ErrInvalidPlacement, origin.X)
		}
	case Vertical:
		if origin.Y+ShipLength > GridSize {
			return cells, fmt.Errorf("%w: ship doesn't fit vertically at y=%d", apperror.ErrInvalidPlacement, origin.Y)
		}
	default:
		return cells, fmt.Errorf("%w: unknown orientation %q", apperror.ErrInvalidPlacement, orientation)
	}

	for i := range cells {
		if orientation == Horizontal {
			cells[i] = Coordinate{X: origin.X + i, Y: origin.Y}.Index()
		} else {
			cells[i] = Coordinate{X: origin.X, Y: origin.Y + i}.Index()
		}
	}

	return cells, nil
}

// Place marks the ship's four cells on the grid. It may be called once per
// board; a failed call leaves the board untouched.
func (that *Board) Place(origin Coordinate, orientation string) ([ShipLength]int, error) {
	var cells [ShipLength]int

	if that.Placed {
		return cells, apperror.ErrAlreadyPlaced
	}

	cells, err := ShipCells(origin, orientation)
	if err != nil {
		return cells, err
	}

	for _, index := range cells {
		that.Grid[index] = CellShip
	}

	that.Placed = true
	that.ShipOrigin = origin
	that.ShipOrientation = orientation

	return cells, nil
}

func (that *Board) IsDestroyed() bool {
	return that.HitsTaken >= ShipLength
}

// View projects the grid for a viewer. The owner sees everything; the
// opponent sees untouched ship cells as empty.
func (that *Board) View(owner bool) [GridCells]Cell {
	if owner {
		return that.Grid
	}

	grid := that.Grid
	for i, cell := range grid {
		if cell == CellShip {
			grid[i] = CellEmpty
		}
	}

	return grid
}
