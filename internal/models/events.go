// Package models holds the wire-level types exchanged with clients (§6):
// the card DTO, player identity, and the GameEvent envelope the transport
// layer serializes to JSON. None of these types are used internally by the
// engine or game state — they exist purely at the boundary.
package models

import "github.com/google/uuid"

// Card is the wire representation of engine.Card: two small integers, per
// §6 "Card wire format". Jokers carry Face 0 (None).
type Card struct {
	Suit uint8 `json:"suit"`
	Face uint8 `json:"face"`
}

// Player identifies one seated participant.
type Player struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Conn     uuid.UUID `json:"conn"` // connection id, used as the Prompt Registry key
}

// EventType enumerates the server→client events of §6.
type EventType string

const (
	EventAddCardRangeToPile     EventType = "add_card_range_to_pile"
	EventRemoveCardsFromDeck    EventType = "remove_cards_from_deck"
	EventAddCardsToDeck         EventType = "add_cards_to_deck"
	EventReclaimPile            EventType = "reclaim_pile"
	EventAddCardRangeToHand     EventType = "add_card_range_to_hand"
	EventRemoveCardRangeFromHand EventType = "remove_card_range_from_hand"
	EventAddCardsToPlayerHand   EventType = "add_cards_to_player_hand"
	EventRemoveCardsFromPlayerHand EventType = "remove_cards_from_player_hand"
	EventSetCurrentRequest      EventType = "set_current_request"
	EventUpdateTurn             EventType = "update_turn"
	EventUpdateGameStatus       EventType = "update_game_status"
	EventPromptCardRequest      EventType = "prompt_card_request"
	EventPromptLastCardRequest  EventType = "prompt_last_card_request"
	EventNotifyTurnProcessed    EventType = "notify_turn_processed"
	EventReceiveSystemMessage   EventType = "receive_system_message"
	EventEndGame                EventType = "end_game"
)

// SystemMessageType closes the set of severities a system message may carry.
type SystemMessageType string

const (
	SystemInfo    SystemMessageType = "Info"
	SystemWarning SystemMessageType = "Warning"
	SystemError   SystemMessageType = "Error"
)

// GameEvent is the envelope every server→client event is serialized as.
// Only the fields relevant to Type are populated; the rest are omitted from
// the wire payload.
type GameEvent struct {
	Type EventType `json:"type"`

	Cards  []Card `json:"cards,omitempty"`
	Count  int    `json:"count,omitempty"`
	Player *uuid.UUID `json:"player,omitempty"`

	Request *Card `json:"request,omitempty"` // nil means the request was cleared
	Specific bool  `json:"specific,omitempty"`

	TurnIndex int  `json:"turnIndex,omitempty"`
	IsStarted bool `json:"isStarted,omitempty"`
	Valid     bool `json:"valid,omitempty"`

	Message     string             `json:"message,omitempty"`
	MessageType SystemMessageType  `json:"messageType,omitempty"`

	Reason string     `json:"reason,omitempty"`
	Winner *uuid.UUID `json:"winner,omitempty"`
}
