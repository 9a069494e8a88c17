// Package board gives bounds-checked, read-only access to the packed board
// region the host shares with rule extensions.
package board

import (
	"errors"
	"fmt"
)

const (
	// Size is the playable board dimension. Squares are addressed 1..Size;
	// row and column 0 are the sentinel lane the packed layout reserves.
	Size = 8
	// Stride is the row width of the packed board region.
	Stride = Size + 1
	// RegionLen is the exact byte length of a packed board region.
	RegionLen = Stride * Stride
)

// Empty marks an unoccupied square. It is distinct from every piece code.
const Empty byte = 0

var (
	ErrRegionSize  = errors.New("board region has wrong size")
	ErrOutOfBounds = errors.New("board coordinates out of bounds")
)

// View is a window over a host-owned packed board region. It never copies
// and never mutates; it is only valid for the duration of the query that
// produced it.
type View struct {
	cells []byte
}

// NewView wraps region, which must be exactly Stride x Stride bytes in
// row-major order, each byte a piece code or Empty.
func NewView(region []byte) (View, error) {
	if len(region) != RegionLen {
		return View{}, fmt.Errorf("%w: got %d bytes, want %d", ErrRegionSize, len(region), RegionLen)
	}
	return View{cells: region}, nil
}

// At returns the occupant of (row, col), or Empty. Coordinates outside
// [0, Size] are rejected rather than read out of the region.
func (v View) At(row, col int) (byte, error) {
	if row < 0 || row > Size || col < 0 || col > Size {
		return Empty, fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, row, col)
	}
	return v.cells[row*Stride+col], nil
}

// IsWhite reports whether code belongs to the uppercase side. The packed
// format carries no color field; letter case is the color.
func IsWhite(code byte) bool { return code >= 'A' && code <= 'Z' }

// IsBlack reports whether code belongs to the lowercase side.
func IsBlack(code byte) bool { return code >= 'a' && code <= 'z' }
