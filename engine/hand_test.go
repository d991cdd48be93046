package engine

import "testing"

func TestHandAddRemove(t *testing.T) {
	h := NewHand()
	c := Card{Suit: Spades, Face: Ace}
	h.Add(c)
	if !h.Has(c) {
		t.Fatalf("expected hand to have %s", c)
	}
	if err := h.Remove(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Has(c) {
		t.Fatalf("expected hand not to have %s after removal", c)
	}
}

func TestHandRemoveMissingCardFails(t *testing.T) {
	h := NewHand()
	if err := h.Remove(Card{Suit: Spades, Face: Ace}); err == nil {
		t.Fatalf("expected error removing a card not in hand")
	}
}

func TestHandAddManyClearsLastCard(t *testing.T) {
	h := NewHand()
	h.SetLastCard(true)
	h.AddMany([]Card{{Suit: Spades, Face: Ace}})
	if h.IsLastCard() {
		t.Fatalf("expected isLastCard cleared after a draw")
	}
}
