package engine

import "testing"

func TestPileReclaimLeavesOnlyTop(t *testing.T) {
	p := NewPile()
	p.Push(Card{Suit: Spades, Face: Ace})
	p.Push(Card{Suit: Hearts, Face: Two})
	p.Push(Card{Suit: Clubs, Face: Three})

	reclaimed, err := p.Reclaim()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reclaimed) != 2 {
		t.Fatalf("expected 2 reclaimed cards, got %d", len(reclaimed))
	}
	if p.Count() != 1 {
		t.Fatalf("expected pile count 1 after reclaim, got %d", p.Count())
	}
	if p.Peek() != (Card{Suit: Clubs, Face: Three}) {
		t.Fatalf("expected top to remain Clubs Three, got %s", p.Peek())
	}
}

func TestPileReclaimRequiresTwoCards(t *testing.T) {
	p := NewPile()
	p.Push(Card{Suit: Spades, Face: Ace})
	if _, err := p.Reclaim(); err == nil {
		t.Fatalf("expected error reclaiming a single-card pile")
	}
}

func TestPileReclaimPreservesMultiset(t *testing.T) {
	p := NewPile()
	all := []Card{
		{Suit: Spades, Face: Ace},
		{Suit: Hearts, Face: Two},
		{Suit: Clubs, Face: Three},
	}
	for _, c := range all {
		p.Push(c)
	}
	reclaimed, err := p.Reclaim()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	combined := append(reclaimed, p.Peek())
	counts := make(map[Card]int)
	for _, c := range all {
		counts[c]++
	}
	for _, c := range combined {
		counts[c]--
	}
	for c, n := range counts {
		if n != 0 {
			t.Fatalf("reclaim did not preserve multiset: card %s off by %d", c, n)
		}
	}
}
