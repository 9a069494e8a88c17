package rules

import (
	"fmt"
	"log"

	"github.com/d5h/chess/board"
)

// Bridge answers host piece queries by fanning out to the registered rules
// and encoding their moves into the host's output region.
//
// A query is synchronous: the shared regions are only valid for the
// duration of the call, so Run returns before the host proceeds and keeps
// no state between queries beyond the registry itself.
type Bridge struct {
	registry *Registry
}

func NewBridge(reg *Registry) *Bridge {
	return &Bridge{registry: reg}
}

// Run handles one query. queryRegion holds the 3-byte piece query,
// boardRegion the packed board snapshot, and outRegion the caller-allocated
// output buffer whose length is its declared capacity. Accepted moves are
// written as 3-byte records in callback registration and emission order;
// the byte count written is returned.
//
// A callback that fails or panics contributes nothing but does not stop the
// remaining callbacks. Overflowing outRegion aborts the whole query: that
// is a host-contract violation, not a rule bug.
func (b *Bridge) Run(queryRegion, boardRegion, outRegion []byte) (int, error) {
	q, err := DecodeQuery(queryRegion)
	if err != nil {
		return 0, err
	}
	view, err := board.NewView(boardRegion)
	if err != nil {
		return 0, err
	}

	w := moveWriter{out: outRegion}
	for _, e := range b.registry.snapshot() {
		moves, err := invoke(e, q, view)
		if err != nil {
			log.Printf("[Rules] rule %q failed, skipping its moves: %v", e.id, err)
			continue
		}
		for _, m := range moves {
			if err := w.add(m); err != nil {
				return 0, fmt.Errorf("rule %q: %w", e.id, err)
			}
		}
	}
	return w.n, nil
}

// invoke runs one rule callback, converting a panic into an error so a
// broken rule cannot take down the query.
func invoke(e entry, q Query, v board.View) (moves []Move, err error) {
	defer func() {
		if r := recover(); r != nil {
			moves = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.fn(q, v)
}
