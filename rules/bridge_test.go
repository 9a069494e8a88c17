package rules

import (
	"bytes"
	"errors"
	"testing"

	"github.com/d5h/chess/board"
)

func emptyBoard() []byte {
	return make([]byte, board.RegionLen)
}

func queryBytes(row, col uint8, code byte) []byte {
	return []byte{row, col, code}
}

func constRule(moves ...Move) Func {
	return func(Query, board.View) ([]Move, error) {
		return moves, nil
	}
}

func TestRun_RejectsBadRegions(t *testing.T) {
	b := NewBridge(NewRegistry())

	if _, err := b.Run([]byte{1, 2}, emptyBoard(), make([]byte, 30)); !errors.Is(err, ErrQuerySize) {
		t.Fatalf("short query: err = %v, want ErrQuerySize", err)
	}
	if _, err := b.Run(queryBytes(1, 1, 'P'), make([]byte, 10), make([]byte, 30)); !errors.Is(err, board.ErrRegionSize) {
		t.Fatalf("short board: err = %v, want board.ErrRegionSize", err)
	}
}

func TestRun_EmptyRegistryGrantsNothing(t *testing.T) {
	out := make([]byte, 30)
	n, err := NewBridge(NewRegistry()).Run(queryBytes(4, 2, 'P'), emptyBoard(), out)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("wrote %d bytes, want 0", n)
	}
}

func TestRun_ConcatenatesInRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register("first", constRule(Move{Row: 3, Col: 2, Code: 'P'}, Move{Row: 2, Col: 2, Code: 'P'}))
	reg.Register("second", constRule(Move{Row: 5, Col: 5, Code: 'P'}))

	out := make([]byte, 30)
	n, err := NewBridge(reg).Run(queryBytes(4, 2, 'P'), emptyBoard(), out)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{3, 2, 'P', 2, 2, 'P', 5, 5, 'P'}
	if n != len(want) || !bytes.Equal(out[:n], want) {
		t.Fatalf("out = %v (%d bytes), want %v", out[:n], n, want)
	}
}

func TestRun_ExactCapacityIsFine(t *testing.T) {
	reg := NewRegistry()
	reg.Register("pair", constRule(Move{Row: 1, Col: 1, Code: 'R'}, Move{Row: 2, Col: 1, Code: 'R'}))

	out := make([]byte, 6)
	n, err := NewBridge(reg).Run(queryBytes(1, 1, 'R'), emptyBoard(), out)
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Fatalf("wrote %d bytes, want 6", n)
	}
}

func TestRun_OverflowAbortsQuery(t *testing.T) {
	reg := NewRegistry()
	reg.Register("greedy", constRule(
		Move{Row: 1, Col: 1, Code: 'R'},
		Move{Row: 2, Col: 1, Code: 'R'},
		Move{Row: 3, Col: 1, Code: 'R'},
	))

	n, err := NewBridge(reg).Run(queryBytes(1, 1, 'R'), emptyBoard(), make([]byte, 8))
	if !errors.Is(err, ErrOutputOverflow) {
		t.Fatalf("err = %v, want ErrOutputOverflow", err)
	}
	if n != 0 {
		t.Fatalf("aborted query reported %d bytes written", n)
	}
}

func TestRun_FailingCallbackIsIsolated(t *testing.T) {
	reg := NewRegistry()
	reg.Register("broken", func(Query, board.View) ([]Move, error) {
		return []Move{{Row: 9, Col: 9, Code: 'X'}}, errors.New("boom")
	})
	reg.Register("panicky", func(Query, board.View) ([]Move, error) {
		panic("ouch")
	})
	reg.Register("fine", constRule(Move{Row: 3, Col: 3, Code: 'N'}))

	out := make([]byte, 30)
	n, err := NewBridge(reg).Run(queryBytes(1, 2, 'N'), emptyBoard(), out)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{3, 3, 'N'}
	if !bytes.Equal(out[:n], want) {
		t.Fatalf("out = %v, want only the healthy rule's move %v", out[:n], want)
	}
}

func TestRun_CallbackMayMutateRegistryMidQuery(t *testing.T) {
	reg := NewRegistry()
	reg.Register("toggler", func(Query, board.View) ([]Move, error) {
		reg.Unregister("toggler")
		reg.Register("late", constRule(Move{Row: 8, Col: 8, Code: 'Q'}))
		return []Move{{Row: 1, Col: 1, Code: 'Q'}}, nil
	})

	out := make([]byte, 30)
	n, err := NewBridge(reg).Run(queryBytes(1, 1, 'Q'), emptyBoard(), out)
	if err != nil {
		t.Fatal(err)
	}
	// The in-flight query iterates the snapshot taken at its start.
	want := []byte{1, 1, 'Q'}
	if !bytes.Equal(out[:n], want) {
		t.Fatalf("out = %v, want %v", out[:n], want)
	}
	if reg.Len() != 1 {
		t.Fatalf("registry has %d entries after mutation, want 1", reg.Len())
	}
}
