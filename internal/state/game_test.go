package state

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karata-game/karata/engine"
)

func newStartedGame(t *testing.T, numPlayers int) (*Game, []uuid.UUID) {
	t.Helper()
	g := NewGame(rand.New(rand.NewSource(42)))
	ids := make([]uuid.UUID, numPlayers)
	for i := range ids {
		ids[i] = uuid.New()
		require.NoError(t, g.AddPlayer(ids[i]))
	}
	require.NoError(t, g.StartGame())
	return g, ids
}

func TestStartGameDealsFourCardsEach(t *testing.T) {
	g, ids := newStartedGame(t, 3)
	for i := range ids {
		assert.Equal(t, CardsPerHand, g.Hand(i).Count())
	}
	assert.True(t, g.IsStarted())
	assert.Equal(t, 1, g.PileCount())
}

func TestStartGameTopIsAlwaysBoring(t *testing.T) {
	g, _ := newStartedGame(t, 2)
	assert.True(t, g.PileTop().IsBoring())
}

func TestConservationInvariantHoldsAfterStart(t *testing.T) {
	g, _ := newStartedGame(t, 4)
	assert.Equal(t, 54, g.ConservationCount())
}

func TestConservationInvariantHoldsAfterReclaim(t *testing.T) {
	g, _ := newStartedGame(t, 2)
	before := g.ConservationCount()

	played := g.Hand(0).Cards()[0]
	require.NoError(t, g.HandRemove(0, []engine.Card{played}))
	g.PushToPile(played)
	reclaimed, err := g.ReclaimPile()
	require.NoError(t, err)
	for _, c := range reclaimed {
		g.PushToDeck(c)
	}

	assert.Equal(t, before, g.ConservationCount())
	assert.Equal(t, 1, g.PileCount())
}

func TestAdvanceTurnWrapsModulo(t *testing.T) {
	g, _ := newStartedGame(t, 3)
	g.AdvanceTurn(2)
	assert.Equal(t, 2, g.CurrentTurn())
	g.AdvanceTurn(2)
	assert.Equal(t, 1, g.CurrentTurn())
}

func TestAdvanceTurnReverseDirection(t *testing.T) {
	g, _ := newStartedGame(t, 3)
	g.SetDirectionForward(false)
	g.AdvanceTurn(1)
	assert.Equal(t, 2, g.CurrentTurn())
}

func TestRollCounters(t *testing.T) {
	g, _ := newStartedGame(t, 2)
	g.SetCounters(0, 5)
	g.RollCounters()
	assert.EqualValues(t, 5, g.Pick())
	assert.EqualValues(t, 0, g.Give())
}

func TestAddPlayerFailsAfterStart(t *testing.T) {
	g, _ := newStartedGame(t, 2)
	assert.Error(t, g.AddPlayer(uuid.New()))
}

func TestAddPlayerFailsAtFive(t *testing.T) {
	g := NewGame(rand.New(rand.NewSource(1)))
	for i := 0; i < 4; i++ {
		require.NoError(t, g.AddPlayer(uuid.New()))
	}
	assert.Error(t, g.AddPlayer(uuid.New()))
}
