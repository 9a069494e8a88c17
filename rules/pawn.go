package rules

import "github.com/d5h/chess/board"

// BackwardPawnName is the toggle id for BackwardPawnMoves.
const BackwardPawnName = "backward-pawn-moves"

// BackwardPawnMoves grants pawns the mirror of their normal advance: white
// retreats toward row 1, black toward row 8. A pawn standing on the square
// its forward double-step would reach may retreat two squares when both are
// empty. The near square is emitted first and every destination keeps the
// original piece code.
func BackwardPawnMoves(q Query, v board.View) ([]Move, error) {
	if q.Code != 'P' && q.Code != 'p' {
		return nil, nil
	}
	dir, doubleRow := 1, 5
	if board.IsWhite(q.Code) {
		dir, doubleRow = -1, 4
	}
	steps := 1
	if int(q.Row) == doubleRow {
		steps = 2
	}

	var out []Move
	r, c := int(q.Row), int(q.Col)
	for i := 0; i < steps; i++ {
		r += dir
		if r < 1 || r > board.Size {
			break
		}
		occ, err := v.At(r, c)
		if err != nil {
			return nil, err
		}
		if occ != board.Empty {
			break
		}
		out = append(out, Move{Row: uint8(r), Col: uint8(c), Code: q.Code})
	}
	return out, nil
}
