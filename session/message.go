// Package session pairs two clients into one relayed game: it creates or
// joins a session, negotiates colors, and exchanges move and rule-toggle
// messages with the peer over a persistent websocket.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Color is a side assignment.
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
)

// Other returns the opposing color.
func (c Color) Other() Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// Move is one relayed move, coordinates exactly as the peer sent them. No
// legality checking happens at this layer.
type Move struct {
	SrcRow int
	SrcCol int
	DstRow int
	DstCol int
}

// RuleSet maps rule-toggle names to whether the rule is active. Each peer
// owns its copy and pushes it on every change; the relay just forwards, so
// the copies converge by most-recent-write-wins.
type RuleSet map[string]bool

// Message is the relay wire format: a JSON object whose kind is signaled by
// which fields are present. Pointer fields distinguish absent from zero.
type Message struct {
	GameID *string         `json:"game_id,omitempty"`
	Joined *bool           `json:"joined,omitempty"`
	Color  *string         `json:"color,omitempty"`
	SrcRow *int            `json:"src_row,omitempty"`
	SrcCol *int            `json:"src_col,omitempty"`
	DstRow *int            `json:"dst_row,omitempty"`
	DstCol *int            `json:"dst_col,omitempty"`
	// Rules nests the toggle snapshot under a "rules" key so it stays
	// presence-detectable like the other kinds. This envelope is a
	// convention of this client; a peer emitting a bare name→bool map
	// will have its snapshot dropped as unclassifiable.
	Rules map[string]bool `json:"rules,omitempty"`
}

func colorMessage(c Color) Message {
	s := string(c)
	return Message{Color: &s}
}

func moveMessage(m Move) Message {
	return Message{SrcRow: &m.SrcRow, SrcCol: &m.SrcCol, DstRow: &m.DstRow, DstCol: &m.DstCol}
}

func rulesMessage(rs RuleSet) Message {
	return Message{Rules: rs}
}

// EventKind discriminates decoded session events.
type EventKind int

const (
	EventInvalid EventKind = iota
	// EventCreated carries the relay-assigned session identifier.
	EventCreated
	// EventJoined tells the creator a second peer connected.
	EventJoined
	// EventColorAssigned carries the joiner's color from the creator.
	EventColorAssigned
	// EventMove carries an opponent move.
	EventMove
	// EventRulesUpdate carries the peer's rule-toggle snapshot.
	EventRulesUpdate
)

func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventJoined:
		return "joined"
	case EventColorAssigned:
		return "color-assigned"
	case EventMove:
		return "move"
	case EventRulesUpdate:
		return "rules-update"
	default:
		return "invalid"
	}
}

// Event is the decoded form of one inbound relay message.
type Event struct {
	Kind   EventKind
	GameID string
	Color  Color
	Move   Move
	Rules  RuleSet
}

var (
	ErrEmptyMessage     = errors.New("session message carries no recognized field")
	ErrAmbiguousMessage = errors.New("session message matches more than one kind")
)

// Classify decodes one relay message into exactly one event. The wire
// signals message kind by field presence; this turns that into an explicit
// tagged value at the protocol boundary. Messages matching no kind, more
// than one, or carrying malformed field values are protocol errors the
// caller should log and drop without closing the connection.
func Classify(raw []byte) (Event, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Event{}, fmt.Errorf("decode session message: %w", err)
	}

	hasMove := m.SrcRow != nil || m.SrcCol != nil || m.DstRow != nil || m.DstCol != nil
	present := 0
	for _, p := range []bool{m.GameID != nil, m.Joined != nil, m.Color != nil, hasMove, m.Rules != nil} {
		if p {
			present++
		}
	}
	if present == 0 {
		return Event{}, ErrEmptyMessage
	}
	if present > 1 {
		return Event{}, ErrAmbiguousMessage
	}

	switch {
	case m.GameID != nil:
		if *m.GameID == "" {
			return Event{}, fmt.Errorf("%w: empty game_id", ErrEmptyMessage)
		}
		return Event{Kind: EventCreated, GameID: *m.GameID}, nil
	case m.Joined != nil:
		if !*m.Joined {
			return Event{}, errors.New("session message has joined=false")
		}
		return Event{Kind: EventJoined}, nil
	case m.Color != nil:
		c := Color(*m.Color)
		if c != ColorWhite && c != ColorBlack {
			return Event{}, fmt.Errorf("session message has unknown color %q", *m.Color)
		}
		return Event{Kind: EventColorAssigned, Color: c}, nil
	case hasMove:
		if m.SrcRow == nil || m.SrcCol == nil || m.DstRow == nil || m.DstCol == nil {
			return Event{}, errors.New("session message has partial move coordinates")
		}
		return Event{Kind: EventMove, Move: Move{
			SrcRow: *m.SrcRow,
			SrcCol: *m.SrcCol,
			DstRow: *m.DstRow,
			DstCol: *m.DstCol,
		}}, nil
	default:
		return Event{Kind: EventRulesUpdate, Rules: RuleSet(m.Rules)}, nil
	}
}
