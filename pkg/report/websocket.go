package report

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/chessarbiter/chessarbiter/pkg/match"
	"github.com/chessarbiter/chessarbiter/pkg/pairing"
	"github.com/chessarbiter/chessarbiter/pkg/stats"
)

// feedMessage is the wire shape broadcast to every connected spectator: exactly one of
// Snapshot/Game is set, discriminated by Kind.
type feedMessage struct {
	Kind     string          `json:"kind"` // "snapshot" | "game"
	Snapshot *stats.Snapshot `json:"snapshot,omitempty"`
	Game     *GameEvent      `json:"game,omitempty"`
}

// Feed is a JSON-over-websocket broadcaster implementing tournament.Reporter: every
// GameFinished/Snapshot call is fanned out to all currently-connected clients. It is
// explicitly not a GUI (spec.md Non-goals) — just a transport for an external renderer,
// per SPEC_FULL.md §4.8's domain note.
type Feed struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan feedMessage
}

// NewFeed constructs an empty Feed. Register its ServeHTTP method at the desired path
// (e.g. "/livefeed") on the CLI's HTTP server.
func NewFeed() *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan feedMessage),
	}
}

// ServeHTTP upgrades the connection and streams feed messages to it until the client
// disconnects. Incoming client messages are never read beyond the upgrade handshake;
// this is a write-only broadcast.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	ch := make(chan feedMessage, 16)

	f.mu.Lock()
	f.clients[conn] = ch
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.clients, conn)
		f.mu.Unlock()
		conn.Close()
	}()

	for msg := range ch {
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (f *Feed) broadcast(msg feedMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn, ch := range f.clients {
		select {
		case ch <- msg:
		default:
			// slow client: drop the message rather than block the scheduler
			delete(f.clients, conn)
			close(ch)
			conn.Close()
		}
	}
}

// GameFinished implements tournament.Reporter.
func (f *Feed) GameFinished(p pairing.Pairing, g *match.Game, err error) {
	ev := newGameEvent(p, g, err)
	f.broadcast(feedMessage{Kind: "game", Game: &ev})
}

// Snapshot implements tournament.Reporter.
func (f *Feed) Snapshot(snap stats.Snapshot) {
	f.broadcast(feedMessage{Kind: "snapshot", Snapshot: &snap})
}
