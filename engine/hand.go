package engine

import "fmt"

// Hand is the unordered multiset of cards held by one player, plus a flag
// tracking whether that player has declared last card.
type Hand struct {
	cards      []Card
	isLastCard bool
}

// NewHand returns an empty hand.
func NewHand() *Hand { return &Hand{} }

// Count returns the number of cards in the hand.
func (h *Hand) Count() int { return len(h.cards) }

// IsLastCard reports whether the player has declared last card.
func (h *Hand) IsLastCard() bool { return h.isLastCard }

// SetLastCard sets the last-card flag.
func (h *Hand) SetLastCard(v bool) { h.isLastCard = v }

// Add places a card into the hand.
func (h *Hand) Add(c Card) {
	h.cards = append(h.cards, c)
}

// AddMany places multiple cards into the hand. Any draw clears isLastCard —
// a player who draws is no longer down to one card.
func (h *Hand) AddMany(cs []Card) {
	h.cards = append(h.cards, cs...)
	h.isLastCard = false
}

// Remove removes the first occurrence of c from the hand. Fails if c is not
// present.
func (h *Hand) Remove(c Card) error {
	for i, have := range h.cards {
		if have == c {
			h.cards = append(h.cards[:i], h.cards[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("engine: card %s not in hand", c)
}

// Has reports whether c is present in the hand.
func (h *Hand) Has(c Card) bool {
	for _, have := range h.cards {
		if have == c {
			return true
		}
	}
	return false
}

// Cards returns a defensive copy of the hand's contents.
func (h *Hand) Cards() []Card {
	out := make([]Card, len(h.cards))
	copy(out, h.cards)
	return out
}
