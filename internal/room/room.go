// Package room provides the minimal membership collaborator the turn
// orchestrator depends on: who is seated, in what order, and whether their
// connection is live. Matchmaking, discovery, join/leave RPCs, and chat are
// explicit Non-goals (§1) and live outside this package entirely.
package room

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// PlayerRef is one seated player's identity and connection status.
type PlayerRef struct {
	ID        uuid.UUID
	Conn      uuid.UUID
	Name      string
	Connected bool
}

// Room is the set of players sharing one game instance.
type Room struct {
	mu      sync.Mutex
	ID      uuid.UUID
	players []PlayerRef
}

// New returns an empty room with a fresh ID.
func New() *Room {
	return &Room{ID: uuid.New()}
}

// Join seats a new player. Fails if the room already holds 4 players or the
// player is already seated.
func (r *Room) Join(p PlayerRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, have := range r.players {
		if have.ID == p.ID {
			return fmt.Errorf("room: player %s already seated", p.ID)
		}
	}
	if len(r.players) >= 4 {
		return fmt.Errorf("room: room %s is full", r.ID)
	}
	p.Connected = true
	r.players = append(r.players, p)
	return nil
}

// MarkDisconnected flips a player's connection status without removing
// their seat — reconnection/resume is a Non-goal (§1), so a disconnected
// seat simply stays disconnected for the remainder of the game.
func (r *Room) MarkDisconnected(playerID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.players {
		if r.players[i].ID == playerID {
			r.players[i].Connected = false
			return
		}
	}
}

// Players returns a defensive copy of the seated players, in join order.
func (r *Room) Players() []PlayerRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PlayerRef, len(r.players))
	copy(out, r.players)
	return out
}

// ByConn finds the seated player for a connection id, if any.
func (r *Room) ByConn(conn uuid.UUID) (PlayerRef, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.Conn == conn {
			return p, true
		}
	}
	return PlayerRef{}, false
}
