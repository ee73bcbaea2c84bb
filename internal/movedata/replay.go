package movedata

import (
	"fmt"
	"strconv"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var pieceValues = map[nchess.PieceType]int{
	nchess.Pawn:   1,
	nchess.Knight: 3,
	nchess.Bishop: 3,
	nchess.Rook:   5,
	nchess.Queen:  9,
}

// FromSAN replays SAN moves from the initial position and builds a dataset.
// The advantage label is the material balance from white's side after each
// ply; movetime comes from centis when present.
func FromSAN(sans []string, centis []int) (*ExperimentalDataset, error) {
	game := nchess.NewGame()
	ds := &ExperimentalDataset{
		FormatVersion:             FormatVersion,
		Moves:                     make([]MoveRecord, 0, len(sans)),
		MoveDurationsCentiseconds: append([]int{}, centis...),
	}
	for i, raw := range sans {
		san := strings.TrimSpace(raw)
		ply := i + 1
		if san == "" {
			return nil, fmt.Errorf("ply %d: empty move", ply)
		}
		color := White
		if game.Position().Turn() == nchess.Black {
			color = Black
		}
		if err := game.PushNotationMove(san, nchess.AlgebraicNotation{}, nil); err != nil {
			return nil, fmt.Errorf("ply %d %q: %w", ply, san, err)
		}
		ds.Moves = append(ds.Moves, MoveRecord{
			Turn:           (ply + 1) / 2,
			Ply:            ply,
			Color:          color,
			Notation:       san,
			AdvantageLabel: fmt.Sprintf("%+d", materialBalance(game.Position())),
			MoveTime:       moveTime(centis, i),
		})
	}
	return ds, nil
}

func materialBalance(pos *nchess.Position) int {
	board := pos.Board()
	balance := 0
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			piece := board.Piece(nchess.NewSquare(file, rank))
			if piece == nchess.NoPiece {
				continue
			}
			if piece.Color() == nchess.White {
				balance += pieceValues[piece.Type()]
			} else {
				balance -= pieceValues[piece.Type()]
			}
		}
	}
	return balance
}

func moveTime(centis []int, i int) MoveTime {
	if i >= len(centis) || centis[i] < 0 {
		return ""
	}
	return MoveTime(strconv.FormatFloat(float64(centis[i])/100, 'f', -1, 64))
}
