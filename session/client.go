package session

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// State is the session lifecycle position.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateAwaitingRole
	StatePaired
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateAwaitingRole:
		return "awaiting-role"
	case StatePaired:
		return "paired"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Handlers receive session events. All callbacks fire on the client's read
// goroutine, so they must not block for long; nil slots are skipped.
type Handlers struct {
	// OnSessionCreated surfaces the relay-assigned id so the creator can
	// share it with the other player.
	OnSessionCreated func(id string)
	// OnPaired fires once both peers are connected, with this client's
	// color.
	OnPaired func(color Color)
	// OnOpponentMove forwards every inbound move verbatim.
	OnOpponentMove func(m Move)
	// OnRulesUpdate forwards the peer's rule-toggle snapshot.
	OnRulesUpdate func(rs RuleSet)
	// OnClosed fires when an established connection ends for any reason
	// other than a local Close call.
	OnClosed func(err error)
}

// Client manages the lifecycle of exactly one multiplayer session. Starting
// a new Create or Join force-closes any live connection first, so two
// connections never race to update session state.
type Client struct {
	server   string
	handlers Handlers
	dialer   *websocket.Dialer
	rng      *rand.Rand

	mu        sync.Mutex
	conn      *websocket.Conn
	state     State
	sessionID string
	color     Color
	creator   bool
	gen       uint64 // bumped on every connect/close; guards stale read loops

	writeMu sync.Mutex
}

// New returns an idle client that will connect to the relay at server
// (host:port).
func New(server string, h Handlers) *Client {
	return &Client{
		server:   server,
		handlers: h,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		state: StateIdle,
	}
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the relay-assigned identifier, or "" before the relay
// acknowledges creation.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Color returns this client's side once pairing assigned one.
func (c *Client) Color() (Color, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.color, c.color != ""
}

// Create opens a fresh session. The relay's identifier arrives
// asynchronously through OnSessionCreated.
func (c *Client) Create(ctx context.Context) error {
	return c.connect(ctx, "/create", true)
}

// Join connects to the session a creator shared.
func (c *Client) Join(ctx context.Context, id string) error {
	return c.connect(ctx, "/join/"+id, false)
}

func (c *Client) connect(ctx context.Context, path string, creator bool) error {
	c.Close()

	conn, err := c.dial(ctx, path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.creator = creator
	c.state = StateConnecting
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	go c.readLoop(conn, gen)
	return nil
}

// dial tries the secure endpoint first and retries the same address over
// the insecure transport on error, re-attaching nothing in between: the
// read loop only starts on the connection that won. The fallback runs at
// most once and only its failure is surfaced.
func (c *Client) dial(ctx context.Context, path string) (*websocket.Conn, error) {
	conn, _, err := c.dialer.DialContext(ctx, "wss://"+c.server+path, nil)
	if err == nil {
		return conn, nil
	}
	log.Printf("[Session] secure dial failed (%v), retrying insecure", err)
	conn, _, err = c.dialer.DialContext(ctx, "ws://"+c.server+path, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s%s: %w", c.server, path, err)
	}
	return conn, nil
}

func (c *Client) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			stale := c.gen != gen
			if !stale {
				c.conn = nil
				c.state = StateClosed
			}
			c.mu.Unlock()
			if !stale && c.handlers.OnClosed != nil {
				c.handlers.OnClosed(err)
			}
			return
		}
		c.handleMessage(raw, gen)
	}
}

func (c *Client) handleMessage(raw []byte, gen uint64) {
	ev, err := Classify(raw)
	if err != nil {
		log.Printf("[Session] dropping message: %v", err)
		return
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}

	switch ev.Kind {
	case EventCreated:
		// Only the relay hands out an identifier, and only right after the
		// creator connects. Anything later is a forwarded peer message and
		// must not clobber the session.
		if !c.creator || c.state != StateConnecting {
			state := c.state
			c.mu.Unlock()
			log.Printf("[Session] dropping session identifier in state %s", state)
			return
		}
		c.sessionID = ev.GameID
		c.state = StateAwaitingRole
		c.mu.Unlock()
		if c.handlers.OnSessionCreated != nil {
			c.handlers.OnSessionCreated(ev.GameID)
		}

	case EventJoined:
		if !c.creator || (c.state != StateConnecting && c.state != StateAwaitingRole) {
			state := c.state
			c.mu.Unlock()
			log.Printf("[Session] dropping joined marker in state %s", state)
			return
		}
		// The creator picks its own side uniformly at random and hands the
		// peer the complement.
		own := ColorWhite
		if c.rng.Intn(2) == 1 {
			own = ColorBlack
		}
		c.color = own
		c.state = StatePaired
		conn := c.conn
		c.mu.Unlock()
		if err := c.write(conn, colorMessage(own.Other())); err != nil {
			log.Printf("[Session] color send failed: %v", err)
		}
		if c.handlers.OnPaired != nil {
			c.handlers.OnPaired(own)
		}

	case EventColorAssigned:
		if c.creator {
			c.mu.Unlock()
			log.Printf("[Session] dropping color assignment: this side negotiates colors")
			return
		}
		c.color = ev.Color
		c.state = StatePaired
		c.mu.Unlock()
		if c.handlers.OnPaired != nil {
			c.handlers.OnPaired(ev.Color)
		}

	case EventMove:
		c.mu.Unlock()
		if c.handlers.OnOpponentMove != nil {
			c.handlers.OnOpponentMove(ev.Move)
		}

	case EventRulesUpdate:
		c.mu.Unlock()
		if c.handlers.OnRulesUpdate != nil {
			c.handlers.OnRulesUpdate(ev.Rules)
		}

	default:
		c.mu.Unlock()
	}
}

// SendMove relays a local move to the peer. With no live connection it is a
// silent no-op: the UI gates sending behind pairing, and a premature call
// must not crash.
func (c *Client) SendMove(srcRow, srcCol, dstRow, dstCol int) {
	c.send(moveMessage(Move{SrcRow: srcRow, SrcCol: srcCol, DstRow: dstRow, DstCol: dstCol}))
}

// SendRules pushes the local rule-toggle snapshot to the peer. Like
// SendMove it is a no-op while disconnected.
func (c *Client) SendRules(rs RuleSet) {
	c.send(rulesMessage(rs))
}

func (c *Client) send(msg Message) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}
	if err := c.write(conn, msg); err != nil {
		log.Printf("[Session] send failed: %v", err)
	}
}

// write serializes all outbound frames; the websocket allows one writer at
// a time.
func (c *Client) write(conn *websocket.Conn, msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

// Close tears down the connection and discards session state. The client
// may be reused with a fresh Create or Join afterwards.
func (c *Client) Close() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.sessionID = ""
	c.color = ""
	c.creator = false
	if c.state != StateIdle {
		c.state = StateClosed
	}
	c.gen++
	c.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = conn.Close()
	}
}
