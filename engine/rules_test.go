package engine

import "testing"

func TestOpeningMismatch(t *testing.T) {
	snap := Snapshot{PileTop: Card{Suit: Hearts, Face: Seven}}
	_, err := Play(snap, []Card{{Suit: Spades, Face: Five}})
	if err != InvalidFirstCard {
		t.Fatalf("expected InvalidFirstCard, got %v", err)
	}
}

func TestBombAttackAndDefense(t *testing.T) {
	snap := Snapshot{PileTop: Card{Suit: BlackJoker, Face: None}, Pick: 5}

	delta, err := Play(snap, []Card{{Suit: RedJoker, Face: None}})
	if err != nil {
		t.Fatalf("expected valid play, got error %v", err)
	}
	if delta.Give != 5 || delta.Pick != 0 {
		t.Fatalf("expected give=5 pick=0, got %+v", delta)
	}

	_, err = Play(snap, []Card{{Suit: Spades, Face: Two}})
	if err != DrawCards {
		t.Fatalf("expected DrawCards, got %v", err)
	}
}

func TestAceClearsSuitRequest(t *testing.T) {
	snap := Snapshot{
		PileTop:        Card{Suit: Clubs, Face: Six},
		CurrentRequest: Request{Level: SuitRequest, Suit: Clubs},
		RequestLevel:   SuitRequest,
	}
	delta, err := Play(snap, []Card{{Suit: Spades, Face: Ace}})
	if err != nil {
		t.Fatalf("expected valid play, got error %v", err)
	}
	if delta.RemoveRequestLevels != 1 {
		t.Fatalf("expected removeRequestLevels=1, got %d", delta.RemoveRequestLevels)
	}
	if delta.RequestLevel != SuitRequest {
		t.Fatalf("expected requestLevel=SuitRequest (ace of spades carries value 2, one is consumed clearing the outstanding SuitRequest, one remains and reopens a SuitRequest), got %s", delta.RequestLevel)
	}
}

func TestQuestionThenAnswer(t *testing.T) {
	snap := Snapshot{PileTop: Card{Suit: Diamonds, Face: Four}}
	delta, err := Play(snap, []Card{
		{Suit: Diamonds, Face: Eight},
		{Suit: Hearts, Face: Eight},
	})
	if err != nil {
		t.Fatalf("expected valid play, got error %v", err)
	}
	if delta.Pick != 1 {
		t.Fatalf("expected pick=1 (last card is a question), got %d", delta.Pick)
	}
}

func TestJackSkipWithDirection(t *testing.T) {
	snap := Snapshot{PileTop: Card{Suit: Spades, Face: Five}}
	delta, err := Play(snap, []Card{{Suit: Spades, Face: Jack}})
	if err != nil {
		t.Fatalf("expected valid play, got error %v", err)
	}
	if delta.Skip != 2 {
		t.Fatalf("expected skip=2, got %d", delta.Skip)
	}
	if delta.Reverse {
		t.Fatalf("expected reverse=false")
	}
}

func TestEvenKingsCancelSkip(t *testing.T) {
	snap := Snapshot{PileTop: Card{Suit: Spades, Face: King}}
	delta, err := Play(snap, []Card{
		{Suit: Spades, Face: King},
		{Suit: Hearts, Face: King},
	})
	if err != nil {
		t.Fatalf("expected valid play, got error %v", err)
	}
	if delta.Skip != 0 {
		t.Fatalf("expected skip=0 for two kings, got %d", delta.Skip)
	}
}

func TestEmptyTurnUsesOutstandingPick(t *testing.T) {
	snap := Snapshot{PileTop: Card{Suit: Spades, Face: Five}, Pick: 3}
	delta, err := Play(snap, nil)
	if err != nil {
		t.Fatalf("empty turn must always be valid, got %v", err)
	}
	if delta.Pick != 3 {
		t.Fatalf("expected pick=3, got %d", delta.Pick)
	}
}

func TestEmptyTurnDefaultsPickToOne(t *testing.T) {
	snap := Snapshot{PileTop: Card{Suit: Spades, Face: Five}}
	delta, err := Play(snap, nil)
	if err != nil {
		t.Fatalf("empty turn must always be valid, got %v", err)
	}
	if delta.Pick != 1 {
		t.Fatalf("expected pick=1, got %d", delta.Pick)
	}
}

func TestSubsequentAceRequiresQuestionOrAce(t *testing.T) {
	snap := Snapshot{PileTop: Card{Suit: Spades, Face: Five}}
	_, err := Play(snap, []Card{
		{Suit: Spades, Face: Five},
		{Suit: Hearts, Face: Ace},
	})
	if err != SubsequentAceOrJoker {
		t.Fatalf("expected SubsequentAceOrJoker, got %v", err)
	}
}

func TestEnginePurity(t *testing.T) {
	snap := Snapshot{PileTop: Card{Suit: Diamonds, Face: Four}}
	cards := []Card{{Suit: Diamonds, Face: Eight}, {Suit: Hearts, Face: Eight}}
	d1, err1 := Play(snap, cards)
	d2, err2 := Play(snap, cards)
	if err1 != err2 {
		t.Fatalf("expected identical errors across invocations, got %v vs %v", err1, err2)
	}
	if d1.Pick != d2.Pick || d1.Give != d2.Give || d1.Skip != d2.Skip ||
		d1.Reverse != d2.Reverse || d1.RequestLevel != d2.RequestLevel ||
		d1.RemoveRequestLevels != d2.RemoveRequestLevels {
		t.Fatalf("expected identical deltas across invocations, got %+v vs %+v", d1, d2)
	}
}
