// Package state owns the in-memory record for one game: deck, pile, hands,
// turn index, direction, pending pick/give counters, current request, and
// winner (§4.2). It provides typed mutators that enforce Game's invariants;
// callers outside this package never reach into deck/pile/hand internals
// directly.
package state

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/karata-game/karata/engine"
)

// CardsPerHand is the number of cards dealt to each player at StartGame.
const CardsPerHand = 4

// TurnLogEntry records one processed turn for replay/debugging. It is
// append-only and owned exclusively by the Game's executor.
type TurnLogEntry struct {
	At       time.Time
	Player   uuid.UUID
	Cards    []engine.Card
	Delta    engine.Delta
	TurnErr  error
	Rejected bool
}

// Game is the authoritative in-memory record for one running or forming
// Karata game. It is not itself concurrency-safe; §5 requires a single
// logical executor per game (a mutex, task queue, or actor), which lives one
// level up in the turn orchestrator.
type Game struct {
	deck *engine.Deck
	pile *engine.Pile
	rng  *rand.Rand

	players []uuid.UUID
	hands   []*engine.Hand

	currentTurn int
	isForward   bool
	pick        uint
	give        uint

	currentRequest engine.Request
	requestLevel   engine.RequestLevel

	isStarted bool
	winner    *uuid.UUID

	turns []TurnLogEntry
}

// NewGame returns an empty, unstarted Game seeded with rng for shuffling.
// Players join via AddPlayer before StartGame is called.
func NewGame(rng *rand.Rand) *Game {
	return &Game{
		deck:      engine.NewDeck(nil),
		pile:      engine.NewPile(),
		rng:       rng,
		isForward: true,
	}
}

// AddPlayer appends a new player with an empty hand. Fails once the game has
// started, or once four players have already joined.
func (g *Game) AddPlayer(id uuid.UUID) error {
	if g.isStarted {
		return fmt.Errorf("state: cannot add player after game start")
	}
	if len(g.players) >= 4 {
		return fmt.Errorf("state: game already has the maximum of 4 players")
	}
	g.players = append(g.players, id)
	g.hands = append(g.hands, engine.NewHand())
	return nil
}

// StartGame implements the §3 Lifecycle: shuffles the deck, deals one boring
// top card to the pile (per Open Question #2, a non-boring top is set aside
// rather than shuffled back in immediately, then returned to the bottom of
// the deck once a boring top is found), deals CardsPerHand cards to each
// hand, and marks the game started.
func (g *Game) StartGame() error {
	if g.isStarted {
		return fmt.Errorf("state: game already started")
	}
	if len(g.players) < 2 {
		return fmt.Errorf("state: need at least 2 players to start, have %d", len(g.players))
	}

	g.deck = engine.NewStandardDeck()
	g.deck.Shuffle(g.rng)

	var setAside []engine.Card
	for {
		top, err := g.deck.Deal()
		if err != nil {
			return fmt.Errorf("state: deck exhausted searching for a boring starting card: %w", err)
		}
		if top.IsBoring() {
			g.pile.Push(top)
			break
		}
		setAside = append(setAside, top)
		if g.deck.Len() == 0 {
			g.deck = engine.NewDeck(setAside)
			g.deck.Shuffle(g.rng)
			setAside = nil
		}
	}
	g.deck = engine.NewDeck(append(setAside, g.deck.Cards()...))

	for c := 0; c < CardsPerHand; c++ {
		for i := range g.hands {
			dealt, err := g.deck.Deal()
			if err != nil {
				return fmt.Errorf("state: deck exhausted dealing starting hands: %w", err)
			}
			g.hands[i].Add(dealt)
		}
	}

	g.isStarted = true
	return nil
}

// IsStarted reports whether StartGame has completed successfully.
func (g *Game) IsStarted() bool { return g.isStarted }

// NumPlayers returns the number of seated players.
func (g *Game) NumPlayers() int { return len(g.players) }

// PlayerAt returns the player id at hand index i.
func (g *Game) PlayerAt(i int) uuid.UUID { return g.players[i] }

// IndexOf returns the hand index of player id, or -1 if not seated.
func (g *Game) IndexOf(id uuid.UUID) int {
	for i, p := range g.players {
		if p == id {
			return i
		}
	}
	return -1
}

// CurrentTurn returns the hand index of the player whose turn it is.
func (g *Game) CurrentTurn() int { return g.currentTurn }

// IsForward returns the current direction of play.
func (g *Game) IsForward() bool { return g.isForward }

// Pick returns the number of cards the current player must draw.
func (g *Game) Pick() uint { return g.pick }

// Give returns the number of cards the next player will owe.
func (g *Game) Give() uint { return g.give }

// CurrentRequest returns the outstanding request, if any.
func (g *Game) CurrentRequest() (engine.Request, engine.RequestLevel) {
	return g.currentRequest, g.requestLevel
}

// Winner returns the winning player, if the game has ended in a win.
func (g *Game) Winner() *uuid.UUID { return g.winner }

// Hand returns the hand at index i. Callers must not retain it past the
// current turn's processing.
func (g *Game) Hand(i int) *engine.Hand { return g.hands[i] }

// PileCount returns the number of cards on the pile.
func (g *Game) PileCount() int { return g.pile.Count() }

// DeckCount returns the number of cards remaining in the deck.
func (g *Game) DeckCount() int { return g.deck.Len() }

// PileTop returns the top pile card. Only valid once the game has started.
func (g *Game) PileTop() engine.Card { return g.pile.Peek() }

// Snapshot returns the read-only view the rule engine consumes (§4.1). It is
// a defensive value copy — the engine can never reach back into live Game
// state, mirroring the teacher's GameState.Save()/Restore(Snapshot)
// value-copy pattern used here for purity rather than CFR undo.
func (g *Game) Snapshot() engine.Snapshot {
	return engine.Snapshot{
		PileTop:        g.pile.Peek(),
		Pick:           g.pick,
		CurrentRequest: g.currentRequest,
		RequestLevel:   g.requestLevel,
	}
}

// PushToPile pushes a card onto the pile.
func (g *Game) PushToPile(c engine.Card) { g.pile.Push(c) }

// ReclaimPile reclaims all but the pile's top card, per §4.2.
func (g *Game) ReclaimPile() ([]engine.Card, error) { return g.pile.Reclaim() }

// PushToDeck pushes a card onto the deck.
func (g *Game) PushToDeck(c engine.Card) { g.deck.Push(c) }

// ShuffleDeck shuffles the deck in place.
func (g *Game) ShuffleDeck() { g.deck.Shuffle(g.rng) }

// DealOne deals a single card from the deck.
func (g *Game) DealOne() (engine.Card, error) { return g.deck.Deal() }

// TryDealMany deals n cards from the deck, failing without mutation if the
// deck holds fewer than n.
func (g *Game) TryDealMany(n int) ([]engine.Card, error) { return g.deck.DealMany(n) }

// HandAdd adds cards to the hand at index i.
func (g *Game) HandAdd(i int, cards []engine.Card) { g.hands[i].AddMany(cards) }

// HandRemove removes cards from the hand at index i, failing if any card is
// not present (multiset removal, per §4.2).
func (g *Game) HandRemove(i int, cards []engine.Card) error {
	for _, c := range cards {
		if err := g.hands[i].Remove(c); err != nil {
			return fmt.Errorf("state: hand %d: %w", i, err)
		}
	}
	return nil
}

// SetRequest sets or clears the outstanding request.
func (g *Game) SetRequest(req engine.Request, level engine.RequestLevel) {
	g.currentRequest = req
	g.requestLevel = level
}

// ClearRequest clears the outstanding request entirely.
func (g *Game) ClearRequest() {
	g.currentRequest = engine.Request{}
	g.requestLevel = engine.NoRequest
}

// SetDirectionForward sets the direction of play.
func (g *Game) SetDirectionForward(forward bool) { g.isForward = forward }

// SetCounters assigns the pick/give counters.
func (g *Game) SetCounters(pick, give uint) {
	g.pick = pick
	g.give = give
}

// RollCounters implements §4.3 step 2: the previous turn's give becomes this
// turn's pick.
func (g *Game) RollCounters() {
	g.pick = g.give
	g.give = 0
}

// AdvanceTurn moves currentTurn by skip steps in the current direction,
// modulo the number of players (§4.3 step 9).
func (g *Game) AdvanceTurn(skip uint) {
	n := len(g.players)
	if n == 0 {
		return
	}
	step := 1
	if !g.isForward {
		step = -1
	}
	t := g.currentTurn
	for i := uint(0); i < skip; i++ {
		t = ((t+step)%n + n) % n
	}
	g.currentTurn = t
}

// DeclareWinner sets the game's winner. The game is terminal once this is
// set.
func (g *Game) DeclareWinner(id uuid.UUID) { g.winner = &id }

// AppendTurnLog appends an entry to the turn log.
func (g *Game) AppendTurnLog(entry TurnLogEntry) { g.turns = append(g.turns, entry) }

// TurnLog returns a defensive copy of the turn log.
func (g *Game) TurnLog() []TurnLogEntry {
	out := make([]TurnLogEntry, len(g.turns))
	copy(out, g.turns)
	return out
}

// ConservationCount returns |deck| + |pile| + Σ|hand_i|, which must equal 54
// at every observable point once the game has started (§3, §8).
func (g *Game) ConservationCount() int {
	total := g.deck.Len() + g.pile.Count()
	for _, h := range g.hands {
		total += h.Count()
	}
	return total
}
