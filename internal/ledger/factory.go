package ledger

import (
	"fmt"
	"os"
	"strings"
)

const (
	ModeMemory = "memory"
	ModeSQLite = "sqlite"
	ModeDB     = "db"
)

func modeFromEnv() string {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("LEDGER_MODE")))
	switch raw {
	case "", ModeMemory, "mem":
		return ModeMemory
	case ModeSQLite, "local":
		return ModeSQLite
	case ModeDB, "postgres", "postgresql":
		return ModeDB
	default:
		return raw
	}
}

// NewServiceFromEnv builds the ledger backend LEDGER_MODE selects,
// defaulting to in-memory.
func NewServiceFromEnv() (Service, string, error) {
	mode := modeFromEnv()

	switch mode {
	case ModeMemory:
		return NewMemory(), mode, nil
	case ModeSQLite:
		svc, err := NewSQLiteFromEnv()
		if err != nil {
			return nil, mode, err
		}
		return svc, mode, nil
	case ModeDB:
		svc, err := NewPostgresFromEnv()
		if err != nil {
			return nil, mode, err
		}
		return svc, mode, nil
	default:
		return nil, mode, fmt.Errorf("invalid LEDGER_MODE %q (supported: %s, %s, %s)",
			mode, ModeMemory, ModeSQLite, ModeDB)
	}
}
