package rules

import (
	"errors"
	"fmt"
)

const (
	queryLen = 3 // row, col, piece code
	moveLen  = 3 // bytes per encoded move: row, col, piece code
)

var (
	ErrQuerySize      = errors.New("query region has wrong size")
	ErrOutputOverflow = errors.New("output region capacity exceeded")
)

// Query is one host request: which piece, on which square, needs its extra
// moves computed.
type Query struct {
	Row  uint8
	Col  uint8
	Code byte
}

// DecodeQuery reads the host's 3-byte piece query.
func DecodeQuery(region []byte) (Query, error) {
	if len(region) != queryLen {
		return Query{}, fmt.Errorf("%w: got %d bytes, want %d", ErrQuerySize, len(region), queryLen)
	}
	return Query{Row: region[0], Col: region[1], Code: region[2]}, nil
}

// Move is one destination a rule additionally permits the queried piece to
// reach.
type Move struct {
	Row  uint8
	Col  uint8
	Code byte
}

// moveWriter appends 3-byte move records to the host's output region. The
// host relies on the capacity check for memory safety: a write past the
// region is refused loudly, never wrapped or silently dropped.
type moveWriter struct {
	out []byte
	n   int
}

func (w *moveWriter) add(m Move) error {
	if w.n+moveLen > len(w.out) {
		return fmt.Errorf("%w: capacity %d bytes", ErrOutputOverflow, len(w.out))
	}
	w.out[w.n] = m.Row
	w.out[w.n+1] = m.Col
	w.out[w.n+2] = m.Code
	w.n += moveLen
	return nil
}
