// Package orchestrator drives one PerformTurn call end-to-end (§4.3): it
// validates the caller and the played sequence, mutates Game state, conducts
// the inline card-request and last-card prompts via the Prompt Registry,
// replenishes the deck from the pile when exhausted, advances turn order,
// and emits the events described in §6.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/karata-game/karata/engine"
	"github.com/karata-game/karata/internal/models"
	"github.com/karata-game/karata/internal/prompt"
	"github.com/karata-game/karata/internal/room"
	"github.com/karata-game/karata/internal/state"
)

// RoomEvents broadcasts §6 server→client events. Grounded on the teacher's
// CambiaGame.BroadcastFn/BroadcastToPlayerFn callback fields.
type RoomEvents interface {
	Broadcast(roomID uuid.UUID, ev models.GameEvent)
	BroadcastToPlayer(playerID uuid.UUID, ev models.GameEvent)
}

// GamePersister is the §6 persistence boundary. The orchestrator calls
// Persist once at the end of each completed turn and after a game ends by
// prompt cancellation or disconnect; it does not call Persist between the
// steps of a turn, nor after a win or an insufficient-cards end.
// RecordResult is called with the outcome from each game-ending path. The
// core does not dictate storage format.
type GamePersister interface {
	Persist(ctx context.Context, roomID uuid.UUID, g *state.Game) error
	RecordResult(ctx context.Context, roomID uuid.UUID, winner *uuid.UUID, reason string) error
}

// ActionLogEntry is one fire-and-forget action-log record, mirroring the
// teacher's cache.GameActionRecord.
type ActionLogEntry struct {
	ActorID    uuid.UUID
	ActionType string
	Payload    map[string]interface{}
	At         time.Time
}

// ActionLogger publishes ActionLogEntry records for an out-of-process
// historian. Logging never blocks a turn.
type ActionLogger interface {
	Log(ctx context.Context, roomID uuid.UUID, entry ActionLogEntry)
}

// HouseRules parameterizes the pieces of §4.1–§4.3 that are actually
// configurable, trimmed from the teacher's HouseRules/CircuitRules (no
// circuit/tournament scoring — out of genre for Karata's single-round,
// last-card win condition). TurnTimeout bounds each prompt await.
// CardsPerHand is not read by the orchestrator: StartGame always deals
// state.CardsPerHand cards.
type HouseRules struct {
	CardsPerHand int
	TurnTimeout  time.Duration
}

// DefaultHouseRules mirrors the teacher's NewCambiaGame defaults, adapted to
// Karata's fields.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		CardsPerHand: state.CardsPerHand,
		TurnTimeout:  15 * time.Second,
	}
}

// Orchestrator owns one room's Game and drives PerformTurn calls against it.
// Per §5, a single logical executor serializes all turn processing for this
// game; here that is a plain mutex, mirroring the teacher's CambiaGame.Mu.
type Orchestrator struct {
	mu sync.Mutex

	roomID  uuid.UUID
	game    *state.Game
	members *room.Room
	prompts *prompt.Registry

	events    RoomEvents
	persister GamePersister
	logger    ActionLogger
	rules     HouseRules

	log *logrus.Entry

	actionIndex int
}

// New wires an Orchestrator for one room.
func New(
	roomID uuid.UUID,
	game *state.Game,
	members *room.Room,
	prompts *prompt.Registry,
	events RoomEvents,
	persister GamePersister,
	logger ActionLogger,
	rules HouseRules,
	log *logrus.Entry,
) *Orchestrator {
	return &Orchestrator{
		roomID:    roomID,
		game:      game,
		members:   members,
		prompts:   prompts,
		events:    events,
		persister: persister,
		logger:    logger,
		rules:     rules,
		log:       log.WithField("room_id", roomID),
	}
}

// Join seats a connection as a player and starts the game once enough
// players are present. Room creation and matchmaking proper are an external
// collaborator (§1 Out of scope); this is the minimal stand-in — mirroring
// how ws.Upgrade stands in for auth — that makes a room created by the
// entrypoint's lookup actually playable end-to-end.
func (o *Orchestrator) Join(conn, playerID uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.members.Join(room.PlayerRef{ID: playerID, Conn: conn}); err != nil {
		return fmt.Errorf("orchestrator: seating player: %w", err)
	}
	if o.game.IsStarted() {
		return nil
	}
	if err := o.game.AddPlayer(playerID); err != nil {
		return fmt.Errorf("orchestrator: adding player to game: %w", err)
	}
	if o.game.NumPlayers() < 2 {
		return nil
	}
	if err := o.game.StartGame(); err != nil {
		return fmt.Errorf("orchestrator: starting game: %w", err)
	}
	o.events.Broadcast(o.roomID, models.GameEvent{Type: models.EventUpdateGameStatus, IsStarted: true})
	o.events.Broadcast(o.roomID, models.GameEvent{Type: models.EventUpdateTurn, TurnIndex: o.game.CurrentTurn()})
	return nil
}

// PerformTurn implements §4.3's nine-step contract. conn identifies the
// calling connection; the player it maps to (via the Room) must be the
// player at currentTurn.
func (o *Orchestrator) PerformTurn(ctx context.Context, conn uuid.UUID, cards []engine.Card) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	player, ok := o.members.ByConn(conn)
	if !ok {
		return fmt.Errorf("orchestrator: connection %s is not seated in room %s", conn, o.roomID)
	}
	log := o.log.WithFields(logrus.Fields{"player_id": player.ID, "conn": conn})

	// Step 1: load Game, reject unstarted/not-your-turn/outstanding-prompt.
	if !o.game.IsStarted() {
		o.rejectTurn(player.ID, engine.ErrNotStarted, "the game has not started")
		return engine.ErrNotStarted
	}
	if o.game.PlayerAt(o.game.CurrentTurn()) != player.ID {
		o.rejectTurn(player.ID, engine.ErrNotYourTurn, "it is not your turn")
		return engine.ErrNotYourTurn
	}
	if o.prompts.HasOutstanding(conn) {
		o.rejectTurn(player.ID, engine.ErrOutstandingPrompt, "you already have an outstanding prompt")
		return engine.ErrOutstandingPrompt
	}

	// Step 2: roll counters. This happens unconditionally — cards owed from
	// the previous turn become this player's problem regardless of whether
	// this particular play attempt turns out to be valid.
	o.game.RollCounters()

	// Step 3: invoke the rule engine.
	snap := o.game.Snapshot()
	delta, err := engine.Play(snap, cards)
	if err != nil {
		log.WithError(err).Info("turn rejected by rule engine")
		o.events.BroadcastToPlayer(player.ID, models.GameEvent{
			Type:        models.EventReceiveSystemMessage,
			Message:     err.Error(),
			MessageType: models.SystemError,
		})
		o.events.BroadcastToPlayer(player.ID, models.GameEvent{
			Type:  models.EventNotifyTurnProcessed,
			Valid: false,
		})
		o.logAction(ctx, player.ID, "turn_rejected", map[string]interface{}{"error": err.Error()})
		o.game.AppendTurnLog(state.TurnLogEntry{At: time.Now(), Player: player.ID, Cards: cards, TurnErr: err, Rejected: true})
		return err
	}

	// Step 4: apply cards.
	o.applyCards(player.ID, cards)

	// Step 5: request bookkeeping.
	if err := o.handleRequestBookkeeping(ctx, conn, player.ID, delta); err != nil {
		return o.endGameOnCancellation(ctx, player.ID, err)
	}

	// Step 6: apply direction/counters.
	if delta.Reverse {
		o.game.SetDirectionForward(!o.game.IsForward())
	}
	o.game.SetCounters(delta.Pick, delta.Give)

	// Step 7: replenishment.
	if o.game.Pick() > 0 {
		ended, err := o.replenish(player.ID)
		if err != nil {
			return err
		}
		if ended {
			return nil
		}
	}

	// Step 8: win/last-card check. An empty turn has no last card; its
	// player has just drawn, so the hand is not empty and the value is unused.
	var lastPlayed engine.Card
	if len(cards) > 0 {
		lastPlayed = cards[len(cards)-1]
	}
	if err := o.winOrLastCardCheck(ctx, conn, player.ID, lastPlayed); err != nil {
		return o.endGameOnCancellation(ctx, player.ID, err)
	}
	if o.game.Winner() != nil {
		return nil
	}

	// Step 9: advance turn.
	o.game.AdvanceTurn(delta.Skip)
	o.events.Broadcast(o.roomID, models.GameEvent{Type: models.EventUpdateTurn, TurnIndex: o.game.CurrentTurn()})
	o.game.AppendTurnLog(state.TurnLogEntry{At: time.Now(), Player: player.ID, Cards: cards, Delta: delta})
	if err := o.persister.Persist(ctx, o.roomID, o.game); err != nil {
		log.WithError(err).Warn("failed to persist game state")
	}
	return nil
}

func (o *Orchestrator) rejectTurn(playerID uuid.UUID, err error, message string) {
	o.log.WithError(err).WithField("player_id", playerID).Info("turn rejected before engine invocation")
	o.events.BroadcastToPlayer(playerID, models.GameEvent{
		Type:        models.EventReceiveSystemMessage,
		Message:     message,
		MessageType: models.SystemError,
	})
	o.events.BroadcastToPlayer(playerID, models.GameEvent{
		Type:  models.EventNotifyTurnProcessed,
		Valid: false,
	})
}

func (o *Orchestrator) applyCards(playerID uuid.UUID, cards []engine.Card) {
	for _, c := range cards {
		o.game.PushToPile(c)
	}
	wireCards := toWireCards(cards)
	o.events.Broadcast(o.roomID, models.GameEvent{Type: models.EventAddCardRangeToPile, Cards: wireCards})

	idx := o.game.IndexOf(playerID)
	if err := o.game.HandRemove(idx, cards); err != nil {
		o.log.WithError(err).Error("hand removal failed after engine validated the play")
	}
	o.events.BroadcastToPlayer(playerID, models.GameEvent{Type: models.EventRemoveCardRangeFromHand, Cards: wireCards})
	o.events.BroadcastToPlayer(playerID, models.GameEvent{Type: models.EventNotifyTurnProcessed, Valid: true})
	o.logAction(context.Background(), playerID, "turn_applied", map[string]interface{}{"cards": len(cards)})
}

// handleRequestBookkeeping implements §4.3 step 5. Returns a non-nil error
// only when the card-request prompt was cancelled (disconnect/timeout).
func (o *Orchestrator) handleRequestBookkeeping(ctx context.Context, conn, playerID uuid.UUID, delta engine.Delta) error {
	if delta.RemoveRequestLevels > 0 {
		o.game.ClearRequest()
		o.events.Broadcast(o.roomID, models.GameEvent{Type: models.EventSetCurrentRequest, Request: nil})
	}
	if delta.RequestLevel == engine.NoRequest {
		return nil
	}

	specific := delta.RequestLevel == engine.CardRequest
	promptCtx, ch, err := o.prompts.Await(ctx, conn, prompt.CardRequestKind)
	if err != nil {
		// An outstanding prompt here would be a programming error: step 1
		// already rejected callers with one. Surface it rather than panic.
		return err
	}
	o.events.BroadcastToPlayer(playerID, models.GameEvent{Type: models.EventPromptCardRequest, Specific: specific})

	timeoutCtx, cancel := context.WithTimeout(promptCtx, o.rules.TurnTimeout)
	defer cancel()

	select {
	case resp := <-ch:
		wire := models.Card{Suit: uint8(resp.Card.Suit), Face: uint8(resp.Card.Face)}
		level := engine.SuitRequest
		if specific {
			level = engine.CardRequest
		}
		o.game.SetRequest(engine.Request{Level: level, Suit: resp.Card.Suit, Face: resp.Card.Face}, level)
		o.events.Broadcast(o.roomID, models.GameEvent{Type: models.EventSetCurrentRequest, Request: &wire})
		o.game.AppendTurnLog(state.TurnLogEntry{At: time.Now(), Player: playerID})
		return nil
	case <-timeoutCtx.Done():
		o.prompts.Cancel(conn, prompt.CardRequestKind)
		return fmt.Errorf("card request prompt cancelled: %w", timeoutCtx.Err())
	}
}

// replenish implements §4.3 step 7. Returns ended=true if the game was
// terminated for insufficient cards.
func (o *Orchestrator) replenish(playerID uuid.UUID) (ended bool, err error) {
	pick := int(o.game.Pick())
	idx := o.game.IndexOf(playerID)

	dealt, dealErr := o.game.TryDealMany(pick)
	if dealErr == nil {
		o.game.HandAdd(idx, dealt)
		o.events.Broadcast(o.roomID, models.GameEvent{Type: models.EventRemoveCardsFromDeck, Count: pick})
		o.events.BroadcastToPlayer(playerID, models.GameEvent{Type: models.EventAddCardRangeToHand, Cards: toWireCards(dealt)})
		o.broadcastHandCountToOthers(playerID, models.EventAddCardsToPlayerHand, pick)
		o.game.SetCounters(0, o.game.Give())
		return false, nil
	}

	if o.game.PileCount()+o.game.DeckCount()-1 > pick {
		reclaimed, reclaimErr := o.game.ReclaimPile()
		if reclaimErr != nil {
			o.log.WithError(reclaimErr).Error("reclaim failed despite sufficient combined count")
			return false, reclaimErr
		}
		o.events.Broadcast(o.roomID, models.GameEvent{Type: models.EventReclaimPile})
		for _, c := range reclaimed {
			o.game.PushToDeck(c)
		}
		o.game.ShuffleDeck()
		dealt, dealErr = o.game.TryDealMany(pick)
		if dealErr != nil {
			o.log.WithError(dealErr).Error("deal failed immediately after reclaim+shuffle")
			return false, dealErr
		}
		o.game.HandAdd(idx, dealt)
		o.events.Broadcast(o.roomID, models.GameEvent{Type: models.EventAddCardsToDeck, Count: len(reclaimed)})
		o.events.BroadcastToPlayer(playerID, models.GameEvent{Type: models.EventAddCardRangeToHand, Cards: toWireCards(dealt)})
		o.broadcastHandCountToOthers(playerID, models.EventAddCardsToPlayerHand, pick)
		o.game.SetCounters(0, o.game.Give())
		return false, nil
	}

	o.events.Broadcast(o.roomID, models.GameEvent{
		Type:   models.EventEndGame,
		Reason: "insufficient cards to replenish the deck",
	})
	o.game.AppendTurnLog(state.TurnLogEntry{At: time.Now(), Player: playerID, Rejected: true})
	if err := o.persister.RecordResult(context.Background(), o.roomID, nil, "insufficient cards to replenish the deck"); err != nil {
		o.log.WithError(err).Warn("failed to record game result after insufficient-cards end")
	}
	return true, nil
}

// winOrLastCardCheck implements §4.3 step 8.
func (o *Orchestrator) winOrLastCardCheck(ctx context.Context, conn, playerID uuid.UUID, lastPlayed engine.Card) error {
	idx := o.game.IndexOf(playerID)
	hand := o.game.Hand(idx)

	if hand.Count() == 0 {
		if hand.IsLastCard() && lastPlayed.IsBoring() {
			o.game.DeclareWinner(playerID)
			winner := playerID
			o.events.Broadcast(o.roomID, models.GameEvent{Type: models.EventEndGame, Reason: "last card", Winner: &winner})
			if err := o.persister.RecordResult(ctx, o.roomID, &winner, "last card"); err != nil {
				o.log.WithError(err).Warn("failed to record game result after win")
			}
			return nil
		}
		o.events.Broadcast(o.roomID, models.GameEvent{
			Type:        models.EventReceiveSystemMessage,
			Message:     fmt.Sprintf("%s is cardless", playerID),
			MessageType: models.SystemInfo,
		})
		return nil
	}

	promptCtx, ch, err := o.prompts.Await(ctx, conn, prompt.LastCardRequestKind)
	if err != nil {
		return err
	}
	o.events.BroadcastToPlayer(playerID, models.GameEvent{Type: models.EventPromptLastCardRequest})

	timeoutCtx, cancel := context.WithTimeout(promptCtx, o.rules.TurnTimeout)
	defer cancel()

	select {
	case resp := <-ch:
		if resp.LastCard {
			hand.SetLastCard(true)
			o.events.Broadcast(o.roomID, models.GameEvent{
				Type:        models.EventReceiveSystemMessage,
				Message:     fmt.Sprintf("%s has one card left", playerID),
				MessageType: models.SystemWarning,
			})
		}
		return nil
	case <-timeoutCtx.Done():
		o.prompts.Cancel(conn, prompt.LastCardRequestKind)
		return fmt.Errorf("last card prompt cancelled: %w", timeoutCtx.Err())
	}
}

// endGameOnCancellation implements §5's cancellation/timeout handling: a
// cancelled prompt aborts the in-flight turn and ends the game, without
// further mutation beyond what was already broadcast.
func (o *Orchestrator) endGameOnCancellation(ctx context.Context, playerID uuid.UUID, cause error) error {
	o.log.WithError(cause).Warn("prompt cancelled; ending game")
	reason := fmt.Sprintf("%s disconnected", playerID)
	o.events.Broadcast(o.roomID, models.GameEvent{
		Type:   models.EventEndGame,
		Reason: reason,
	})
	if err := o.persister.Persist(ctx, o.roomID, o.game); err != nil {
		o.log.WithError(err).Warn("failed to persist game state after cancellation")
	}
	if err := o.persister.RecordResult(ctx, o.roomID, nil, reason); err != nil {
		o.log.WithError(err).Warn("failed to record game result after cancellation")
	}
	return cause
}

// HandleDisconnect cancels any outstanding prompts for conn and ends the
// game (§4.4, §5). Call this from the transport layer's connection-close
// handler.
func (o *Orchestrator) HandleDisconnect(ctx context.Context, conn uuid.UUID) {
	// Cancel before taking o.mu: a PerformTurn awaiting this connection's
	// prompt holds o.mu until the prompt is answered or cancelled.
	o.prompts.CancelConnection(conn)

	o.mu.Lock()
	defer o.mu.Unlock()

	player, ok := o.members.ByConn(conn)
	if ok {
		o.members.MarkDisconnected(player.ID)
	}
	reason := "a player disconnected"
	if ok {
		reason = fmt.Sprintf("%s disconnected", player.ID)
	}
	o.events.Broadcast(o.roomID, models.GameEvent{Type: models.EventEndGame, Reason: reason})
	if err := o.persister.Persist(ctx, o.roomID, o.game); err != nil {
		o.log.WithError(err).Warn("failed to persist game state after disconnect")
	}
	if err := o.persister.RecordResult(ctx, o.roomID, nil, reason); err != nil {
		o.log.WithError(err).Warn("failed to record game result after disconnect")
	}
}

// RequestCard resolves a pending card-request prompt (§6 RequestCard).
func (o *Orchestrator) RequestCard(conn uuid.UUID, card engine.Card) bool {
	return o.prompts.Resolve(conn, prompt.CardRequestKind, prompt.Response{Card: card})
}

// SetLastCardStatus resolves a pending last-card prompt (§6
// SetLastCardStatus).
func (o *Orchestrator) SetLastCardStatus(conn uuid.UUID, isLastCard bool) bool {
	return o.prompts.Resolve(conn, prompt.LastCardRequestKind, prompt.Response{LastCard: isLastCard})
}

func (o *Orchestrator) broadcastHandCountToOthers(playerID uuid.UUID, evType models.EventType, n int) {
	for _, p := range o.members.Players() {
		if p.ID == playerID {
			continue
		}
		pid := playerID
		o.events.BroadcastToPlayer(p.ID, models.GameEvent{Type: evType, Player: &pid, Count: n})
	}
}

// logAction fire-and-forgets an action record to the historian, mirroring
// the teacher's logAction/cache.PublishGameAction pattern.
func (o *Orchestrator) logAction(ctx context.Context, actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	o.actionIndex++
	if o.logger == nil {
		return
	}
	entry := ActionLogEntry{ActorID: actorID, ActionType: actionType, Payload: payload, At: time.Now()}
	go o.logger.Log(ctx, o.roomID, entry)
}

func toWireCards(cards []engine.Card) []models.Card {
	out := make([]models.Card, len(cards))
	for i, c := range cards {
		out[i] = models.Card{Suit: uint8(c.Suit), Face: uint8(c.Face)}
	}
	return out
}
