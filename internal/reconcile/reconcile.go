package reconcile

import (
	"github.com/rocketscienceinc/battleship-backend/internal/entity"
	"github.com/rocketscienceinc/battleship-backend/internal/ledger"
)

// statusRank orders session statuses: waiting < active < finished. A merge
// never moves a session down this order.
func statusRank(status string) int {
	switch status {
	case entity.StatusActive:
		return 1
	case entity.StatusFinished:
		return 2
	default:
		return 0
	}
}

// cellRank orders cell states for the per-cell join. Hit and miss share the
// top rank: both are terminal and neither ever replaces the other.
func cellRank(cell entity.Cell) int {
	switch cell {
	case entity.CellShip:
		return 1
	case entity.CellHit, entity.CellMiss:
		return 2
	default:
		return 0
	}
}

// remoteStatus translates the ledger status byte into the local vocabulary.
func remoteStatus(snapshot *ledger.Snapshot) (status, winner string) {
	switch snapshot.Status {
	case ledger.StatusActive:
		return entity.StatusActive, entity.EmptyRole
	case ledger.StatusAWon:
		return entity.StatusFinished, entity.PlayerA
	case ledger.StatusBWon:
		return entity.StatusFinished, entity.PlayerB
	default:
		return entity.StatusWaiting, entity.EmptyRole
	}
}

func remoteTurn(snapshot *ledger.Snapshot) string {
	if snapshot.Turn == ledger.TurnPlayerB {
		return entity.PlayerB
	}
	return entity.PlayerA
}

// Merge folds a possibly-stale snapshot into the live session and reports
// whether anything observable changed. The result is never less advanced than
// the local session: statuses join on statusRank, cells join one-way on
// cellRank, and on equal rank the remote side wins because it reflects
// externally confirmed truth.
func Merge(local *entity.Game, snapshot *ledger.Snapshot) (*entity.Game, bool) {
	merged := local.Clone()

	status, winner := remoteStatus(snapshot)

	switch {
	case statusRank(status) > statusRank(local.Status):
		merged.Status = status
		merged.Winner = winner
		merged.Turn = remoteTurn(snapshot)
	case statusRank(status) == statusRank(local.Status):
		merged.Turn = remoteTurn(snapshot)
		if winner != entity.EmptyRole {
			merged.Winner = winner
		}
	}

	mergeBoard(merged.BoardA, snapshot.GridA, snapshot.CommitmentA)
	mergeBoard(merged.BoardB, snapshot.GridB, snapshot.CommitmentB)

	return merged, !local.Equal(merged)
}

func mergeBoard(board *entity.Board, remoteGrid [entity.GridCells]uint8, remoteCommitment [32]byte) {
	hits := 0

	for i := range board.Grid {
		remoteCell := entity.Cell(remoteGrid[i])
		if cellRank(remoteCell) > cellRank(board.Grid[i]) {
			board.Grid[i] = remoteCell
		}

		if board.Grid[i] == entity.CellHit {
			hits++
		}
	}

	board.HitsTaken = hits

	if len(board.Commitment) == 0 && remoteCommitment != [32]byte{} {
		board.Commitment = append([]byte(nil), remoteCommitment[:]...)
	}
}
