package orchestrator

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karata-game/karata/engine"
	"github.com/karata-game/karata/internal/models"
	"github.com/karata-game/karata/internal/prompt"
	"github.com/karata-game/karata/internal/room"
	"github.com/karata-game/karata/internal/state"
)

// mockEvents captures broadcast events for assertions, mirroring the
// teacher's mockBroadcaster test double.
type mockEvents struct {
	mu           sync.Mutex
	allEvents    []models.GameEvent
	playerEvents map[uuid.UUID][]models.GameEvent
}

func newMockEvents() *mockEvents {
	return &mockEvents{playerEvents: make(map[uuid.UUID][]models.GameEvent)}
}

func (m *mockEvents) Broadcast(_ uuid.UUID, ev models.GameEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allEvents = append(m.allEvents, ev)
}

func (m *mockEvents) BroadcastToPlayer(playerID uuid.UUID, ev models.GameEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playerEvents[playerID] = append(m.playerEvents[playerID], ev)
}

func (m *mockEvents) findEventByType(t models.EventType) *models.GameEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.allEvents) - 1; i >= 0; i-- {
		if m.allEvents[i].Type == t {
			return &m.allEvents[i]
		}
	}
	return nil
}

func (m *mockEvents) lastPlayerEvent(playerID uuid.UUID) *models.GameEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := m.playerEvents[playerID]
	if len(events) == 0 {
		return nil
	}
	return &events[len(events)-1]
}

type noopPersister struct{}

func (noopPersister) Persist(context.Context, uuid.UUID, *state.Game) error { return nil }

func (noopPersister) RecordResult(context.Context, uuid.UUID, *uuid.UUID, string) error { return nil }

type noopLogger struct{}

func (noopLogger) Log(context.Context, uuid.UUID, ActionLogEntry) {}

func newTestOrchestrator(t *testing.T, numPlayers int) (*Orchestrator, []uuid.UUID, []uuid.UUID, *mockEvents) {
	t.Helper()
	g := state.NewGame(rand.New(rand.NewSource(7)))
	rm := room.New()

	playerIDs := make([]uuid.UUID, numPlayers)
	connIDs := make([]uuid.UUID, numPlayers)
	for i := 0; i < numPlayers; i++ {
		playerIDs[i] = uuid.New()
		connIDs[i] = uuid.New()
		require.NoError(t, g.AddPlayer(playerIDs[i]))
		require.NoError(t, rm.Join(room.PlayerRef{ID: playerIDs[i], Conn: connIDs[i]}))
	}
	require.NoError(t, g.StartGame())

	events := newMockEvents()
	log := logrus.NewEntry(logrus.New())
	o := New(rm.ID, g, rm, prompt.NewRegistry(), events, noopPersister{}, noopLogger{}, HouseRules{TurnTimeout: 200 * time.Millisecond}, log)
	return o, playerIDs, connIDs, events
}

func TestPerformTurnRejectsWhenNotYourTurn(t *testing.T) {
	o, playerIDs, connIDs, events := newTestOrchestrator(t, 2)
	notCurrent := 1
	if o.game.CurrentTurn() == 1 {
		notCurrent = 0
	}
	err := o.PerformTurn(context.Background(), connIDs[notCurrent], nil)
	assert.ErrorIs(t, err, engine.ErrNotYourTurn)
	ev := events.lastPlayerEvent(playerIDs[notCurrent])
	require.NotNil(t, ev)
	assert.Equal(t, models.EventNotifyTurnProcessed, ev.Type)
	assert.False(t, ev.Valid)
}

func TestPerformTurnRejectsInvalidFirstCard(t *testing.T) {
	o, playerIDs, connIDs, events := newTestOrchestrator(t, 2)
	current := o.game.CurrentTurn()

	top := o.game.PileTop()
	var mismatch engine.Card
	for _, s := range []engine.Suit{engine.Spades, engine.Hearts, engine.Diamonds, engine.Clubs} {
		for f := engine.Four; f <= engine.Ten; f++ {
			c := engine.Card{Suit: s, Face: f}
			if c.Suit != top.Suit && c.Face != top.Face {
				mismatch = c
				break
			}
		}
	}
	idx := o.game.IndexOf(playerIDs[current])
	o.game.Hand(idx).Add(mismatch)

	err := o.PerformTurn(context.Background(), connIDs[current], []engine.Card{mismatch})
	assert.ErrorIs(t, err, engine.InvalidFirstCard)
	ev := events.lastPlayerEvent(playerIDs[current])
	require.NotNil(t, ev)
	assert.Equal(t, models.EventNotifyTurnProcessed, ev.Type)
	assert.False(t, ev.Valid)
}

func TestPerformTurnAppliesValidPlay(t *testing.T) {
	o, playerIDs, connIDs, events := newTestOrchestrator(t, 2)
	current := o.game.CurrentTurn()
	idx := o.game.IndexOf(playerIDs[current])

	top := o.game.PileTop()
	playable := engine.Card{Suit: top.Suit, Face: top.Face}
	for _, f := range []engine.Face{engine.Four, engine.Five, engine.Six, engine.Seven, engine.Nine, engine.Ten} {
		if f != top.Face {
			playable = engine.Card{Suit: top.Suit, Face: f}
			break
		}
	}
	o.game.Hand(idx).Add(playable)

	go func() {
		for i := 0; i < 50; i++ {
			if o.SetLastCardStatus(connIDs[current], false) {
				return
			}
			time.Sleep(2 * time.Millisecond)
		}
	}()

	err := o.PerformTurn(context.Background(), connIDs[current], []engine.Card{playable})
	require.NoError(t, err)

	assert.Equal(t, playable, o.game.PileTop())
	assert.False(t, o.game.Hand(idx).Has(playable))
	ev := events.findEventByType(models.EventAddCardRangeToPile)
	require.NotNil(t, ev)
	require.Len(t, ev.Cards, 1)
}

func TestPerformTurnRollsCountersBeforeRejection(t *testing.T) {
	o, playerIDs, connIDs, _ := newTestOrchestrator(t, 2)
	current := o.game.CurrentTurn()
	o.game.SetCounters(0, 3)

	top := o.game.PileTop()
	var mismatch engine.Card
	for _, s := range []engine.Suit{engine.Spades, engine.Hearts, engine.Diamonds, engine.Clubs} {
		for f := engine.Four; f <= engine.Ten; f++ {
			c := engine.Card{Suit: s, Face: f}
			if c.Suit != top.Suit && c.Face != top.Face {
				mismatch = c
				break
			}
		}
	}
	idx := o.game.IndexOf(playerIDs[current])
	o.game.Hand(idx).Add(mismatch)

	_ = o.PerformTurn(context.Background(), connIDs[current], []engine.Card{mismatch})
	assert.EqualValues(t, 3, o.game.Pick())
}
