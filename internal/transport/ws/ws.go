// Package ws implements the §6 wire boundary: a websocket upgrade with a
// JWT handshake, a per-connection read loop decoding the three client→server
// calls, and a RoomEvents implementation that encodes server→client events
// as JSON frames. Framing details beyond "JSON over one websocket connection
// per player" are not specified further (§1 Non-goals: network-layer
// framing).
package ws

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/karata-game/karata/engine"
	"github.com/karata-game/karata/internal/models"
)

// rpcKind closes the set of client→server calls (§6).
type rpcKind string

const (
	rpcPerformTurn        rpcKind = "perform_turn"
	rpcRequestCard        rpcKind = "request_card"
	rpcSetLastCardStatus  rpcKind = "set_last_card_status"
)

// rpcEnvelope is the inbound message shape every client→server call arrives
// in; only the fields relevant to Kind are populated.
type rpcEnvelope struct {
	Kind       rpcKind       `json:"kind"`
	InviteLink string        `json:"inviteLink,omitempty"`
	Cards      []models.Card `json:"cards,omitempty"`
	Card       models.Card   `json:"card,omitempty"`
	IsLastCard bool          `json:"isLastCard,omitempty"`
}

// TurnHandler is the subset of orchestrator.Orchestrator this package calls
// into. Defined as an interface so transport tests can stub it without
// constructing a full Orchestrator.
type TurnHandler interface {
	Join(conn, playerID uuid.UUID) error
	PerformTurn(ctx context.Context, conn uuid.UUID, cards []engine.Card) error
	RequestCard(conn uuid.UUID, card engine.Card) bool
	SetLastCardStatus(conn uuid.UUID, isLastCard bool) bool
	HandleDisconnect(ctx context.Context, conn uuid.UUID)
}

// RoomLookup resolves an invite link to the orchestrator driving that room.
type RoomLookup func(inviteLink string) (TurnHandler, bool)

// Hub tracks live connections and implements orchestrator.RoomEvents by
// encoding events as JSON frames over each player's websocket.
type Hub struct {
	mu    sync.Mutex
	conns map[uuid.UUID]*websocket.Conn

	log *logrus.Entry
}

// NewHub returns an empty Hub.
func NewHub(log *logrus.Entry) *Hub {
	return &Hub{conns: make(map[uuid.UUID]*websocket.Conn), log: log}
}

// Register associates a player with their live connection.
func (h *Hub) Register(playerID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[playerID] = conn
}

// Unregister drops a player's connection entry.
func (h *Hub) Unregister(playerID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, playerID)
}

// Broadcast sends ev to every player the Hub knows about for roomID. The
// Hub itself is room-agnostic; callers scope one Hub per room.
func (h *Hub) Broadcast(roomID uuid.UUID, ev models.GameEvent) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		h.send(c, ev)
	}
}

// BroadcastToPlayer sends ev to exactly one player, if connected.
func (h *Hub) BroadcastToPlayer(playerID uuid.UUID, ev models.GameEvent) {
	h.mu.Lock()
	c, ok := h.conns[playerID]
	h.mu.Unlock()
	if !ok {
		return
	}
	h.send(c, ev)
}

func (h *Hub) send(c *websocket.Conn, ev models.GameEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, c, ev); err != nil {
		h.log.WithError(err).Warn("failed to write event to connection")
	}
}

// authClaims is the minimal JWT payload this service trusts. Issuance is an
// external collaborator (§1 Out of scope); this package only verifies a
// token it is handed.
type authClaims struct {
	PlayerID uuid.UUID `json:"playerId"`
	jwt.RegisteredClaims
}

// Authenticate validates a bearer token and extracts the player id.
func Authenticate(secret []byte, tokenString string) (uuid.UUID, error) {
	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("ws: unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("ws: invalid token: %w", err)
	}
	return claims.PlayerID, nil
}

// Upgrade accepts a websocket connection, validates the bearer token from
// the Authorization header, and runs the per-connection read loop decoding
// PerformTurn/RequestCard/SetLastCardStatus until the connection closes.
func Upgrade(w http.ResponseWriter, r *http.Request, secret []byte, hub *Hub, lookup RoomLookup, log *logrus.Entry) {
	playerID, err := Authenticate(secret, bearerToken(r))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	connID := uuid.New()
	hub.Register(playerID, conn)
	defer hub.Unregister(playerID)

	ctx := r.Context()
	var handler TurnHandler
	var handlerOK bool

	for {
		var env rpcEnvelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			break
		}

		if !handlerOK {
			handler, handlerOK = lookup(env.InviteLink)
			if !handlerOK {
				continue
			}
			if err := handler.Join(connID, playerID); err != nil {
				log.WithError(err).Warn("failed to seat player in room")
				handlerOK = false
				continue
			}
		}

		switch env.Kind {
		case rpcPerformTurn:
			cards := make([]engine.Card, len(env.Cards))
			for i, c := range env.Cards {
				cards[i] = engine.Card{Suit: engine.Suit(c.Suit), Face: engine.Face(c.Face)}
			}
			// PerformTurn may await this connection's prompt answer, which
			// arrives through this same loop, so it runs off the loop.
			go func(h TurnHandler) { _ = h.PerformTurn(ctx, connID, cards) }(handler)
		case rpcRequestCard:
			handler.RequestCard(connID, engine.Card{Suit: engine.Suit(env.Card.Suit), Face: engine.Face(env.Card.Face)})
		case rpcSetLastCardStatus:
			handler.SetLastCardStatus(connID, env.IsLastCard)
		}
	}

	if handlerOK {
		handler.HandleDisconnect(context.Background(), connID)
	}
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

const writeTimeout = 5 * time.Second

