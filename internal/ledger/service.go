// Package ledger records relay session lifecycle bookkeeping: when sessions
// were created, paired and closed. It never stores moves, rules or any
// other game content.
package ledger

import "time"

// Service receives relay session lifecycle events.
type Service interface {
	SessionCreated(id string) error
	PeerJoined(id string) error
	SessionClosed(id string) error
	Close() error
}

// Record is one session's bookkeeping row.
type Record struct {
	ID        string
	CreatedAt time.Time
	JoinedAt  time.Time // zero until a second peer connected
	ClosedAt  time.Time // zero until the last peer left
}
