// Package relay is the forwarding intermediary between two session peers.
// It issues session identifiers, announces pairing, and passes every other
// message through verbatim; game semantics never enter this package.
package relay

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/d5h/chess/internal/ledger"
)

// maxPeers is fixed: a session is exactly one two-player game.
const maxPeers = 2

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 << 10
)

// Relay pairs peers per game id and forwards their messages.
type Relay struct {
	mu       sync.RWMutex
	games    map[uuid.UUID]*game
	nextPeer uint64
	ledger   ledger.Service
	upgrader websocket.Upgrader
}

type game struct {
	id       uuid.UUID
	passHash []byte // empty means open session
	peers    map[uint64]*peer
}

type peer struct {
	id   uint64
	conn *websocket.Conn
	send chan []byte
}

func New(led ledger.Service) *Relay {
	return &Relay{
		games:  make(map[uuid.UUID]*game),
		ledger: led,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes registers the relay's endpoints on mux.
func (rl *Relay) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/create", rl.HandleCreate)
	mux.HandleFunc("/join/", rl.HandleJoin)
}

// HandleCreate opens a fresh game and connects the creator to it. An
// optional passcode query parameter makes the session private: joiners
// must present the same passcode.
func (rl *Relay) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var passHash []byte
	if passcode := r.URL.Query().Get("passcode"); passcode != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "passcode rejected", http.StatusInternalServerError)
			return
		}
		passHash = h
	}

	conn, err := rl.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Relay] upgrade error: %v", err)
		return
	}

	id := uuid.New()
	g := &game{id: id, passHash: passHash, peers: make(map[uint64]*peer)}
	rl.mu.Lock()
	rl.games[id] = g
	rl.mu.Unlock()

	log.Printf("[Relay] game %s created", id)
	if err := rl.ledger.SessionCreated(id.String()); err != nil {
		log.Printf("[Relay] ledger create (game %s): %v", id, err)
	}

	rl.serve(conn, g, true)
}

// HandleJoin connects a second peer to an existing game at /join/{id}.
func (rl *Relay) HandleJoin(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/join/")
	id, err := uuid.Parse(raw)
	if err != nil {
		log.Printf("[Relay] invalid join ID: %s", raw)
		http.Error(w, "invalid game ID", http.StatusBadRequest)
		return
	}

	rl.mu.RLock()
	g := rl.games[id]
	rl.mu.RUnlock()
	if g == nil {
		log.Printf("[Relay] non-existent game ID: %s", id)
		http.Error(w, "no such game", http.StatusNotFound)
		return
	}
	if len(g.passHash) > 0 {
		passcode := r.URL.Query().Get("passcode")
		if bcrypt.CompareHashAndPassword(g.passHash, []byte(passcode)) != nil {
			http.Error(w, "wrong passcode", http.StatusForbidden)
			return
		}
	}

	conn, err := rl.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Relay] upgrade error: %v", err)
		return
	}

	rl.serve(conn, g, false)
}

// serve runs the peer until disconnect. It holds the handler goroutine, as
// websocket handlers do.
func (rl *Relay) serve(conn *websocket.Conn, g *game, creator bool) {
	p := &peer{conn: conn, send: make(chan []byte, 64)}

	rl.mu.Lock()
	rl.nextPeer++
	p.id = rl.nextPeer
	full := len(g.peers) >= maxPeers
	if !full {
		g.peers[p.id] = p
	}
	n := len(g.peers)
	rl.mu.Unlock()

	if full {
		log.Printf("[Relay] game %s full, rejecting peer", g.id)
		deadline := time.Now().Add(writeWait)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "game full"), deadline)
		_ = conn.Close()
		return
	}

	go p.writePump()

	if creator {
		// First peer gets the identifier to share.
		p.send <- []byte(fmt.Sprintf(`{"game_id": %q}`, g.id))
	}
	if n == maxPeers {
		rl.forward(g, p.id, []byte(`{"joined": true}`))
		if err := rl.ledger.PeerJoined(g.id.String()); err != nil {
			log.Printf("[Relay] ledger join (game %s): %v", g.id, err)
		}
	}

	p.readPump(rl, g)
	rl.leave(g, p)
}

func (p *peer) readPump(rl *Relay, g *game) {
	p.conn.SetReadLimit(maxMsgSize)
	for {
		mt, raw, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[Relay] read error (game %s, peer %d): %v", g.id, p.id, err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		rl.forward(g, p.id, raw)
	}
}

// forward sends raw to every peer in the game except from, without parsing
// it.
func (rl *Relay) forward(g *game, from uint64, raw []byte) {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	for id, q := range g.peers {
		if id == from {
			continue
		}
		select {
		case q.send <- raw:
		default:
			// Drop if the peer can't keep up.
		}
	}
}

func (p *peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case raw := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (rl *Relay) leave(g *game, p *peer) {
	rl.mu.Lock()
	delete(g.peers, p.id)
	empty := len(g.peers) == 0
	if empty {
		delete(rl.games, g.id)
	}
	rl.mu.Unlock()

	// Ends the write pump on its next write or ping.
	_ = p.conn.Close()

	log.Printf("[Relay] peer %d left game %s", p.id, g.id)
	if empty {
		log.Printf("[Relay] all peers left game %s", g.id)
		if err := rl.ledger.SessionClosed(g.id.String()); err != nil {
			log.Printf("[Relay] ledger close (game %s): %v", g.id, err)
		}
	}
}
