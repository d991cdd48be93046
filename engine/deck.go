package engine

import (
	"fmt"
	"math/rand"
)

// Deck is a LIFO stack of cards. The top of the deck is the last element.
type Deck struct {
	cards []Card
}

// NewStandardDeck returns a deck containing all 52 suit×non-joker-face
// combinations plus the two jokers, in unspecified order. Callers must
// Shuffle before dealing.
func NewStandardDeck() *Deck {
	cards := make([]Card, 0, 54)
	for _, s := range []Suit{Spades, Hearts, Diamonds, Clubs} {
		for f := Ace; f <= King; f++ {
			cards = append(cards, Card{Suit: s, Face: f})
		}
	}
	cards = append(cards, Card{Suit: BlackJoker, Face: None})
	cards = append(cards, Card{Suit: RedJoker, Face: None})
	return &Deck{cards: cards}
}

// NewDeck builds a deck from an explicit card slice (bottom to top), taking
// ownership of the slice. Used to reconstitute a deck from reclaimed pile
// cards.
func NewDeck(cards []Card) *Deck {
	return &Deck{cards: cards}
}

// Len returns the number of cards remaining in the deck.
func (d *Deck) Len() int { return len(d.cards) }

// Shuffle randomizes the deck in place via Fisher–Yates.
func (d *Deck) Shuffle(rng *rand.Rand) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal pops and returns the top card. Fails if the deck is empty.
func (d *Deck) Deal() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, fmt.Errorf("engine: deal from empty deck")
	}
	top := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return top, nil
}

// DealMany pops and returns the top n cards, top-first. Fails, without
// mutating the deck, if fewer than n cards remain.
func (d *Deck) DealMany(n int) ([]Card, error) {
	if n < 0 || n > len(d.cards) {
		return nil, fmt.Errorf("engine: dealMany(%d) exceeds deck size %d", n, len(d.cards))
	}
	out := make([]Card, n)
	for i := 0; i < n; i++ {
		out[i] = d.cards[len(d.cards)-1-i]
	}
	d.cards = d.cards[:len(d.cards)-n]
	return out, nil
}

// Push adds a card to the top of the deck.
func (d *Deck) Push(c Card) {
	d.cards = append(d.cards, c)
}

// Cards returns a defensive copy of the deck's contents, bottom to top.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}
