package engine

// Play is the rule engine (§4.1): a pure function over a game snapshot and
// an attempted sequence of played cards. It performs no I/O and mutates
// nothing — not the snapshot, not the cards slice. On success it returns a
// Delta; on rejection it returns one of the closed TurnError kinds.
func Play(snap Snapshot, cards []Card) (Delta, error) {
	if len(cards) == 0 {
		return emptyTurnDelta(snap), nil
	}
	if err := validate(snap, cards); err != nil {
		return Delta{}, err
	}
	return generateDelta(snap, cards), nil
}

// emptyTurnDelta implements §4.1 "Empty turn (k = 0)": always valid, forces
// at least the outstanding pick (or 1, if none), and leaves any outstanding
// request untouched.
func emptyTurnDelta(snap Snapshot) Delta {
	pick := snap.Pick
	if pick < 1 {
		pick = 1
	}
	return Delta{
		Pick:                pick,
		Give:                0,
		Skip:                1,
		Reverse:             false,
		RequestLevel:        NoRequest,
		RemoveRequestLevels: 0,
	}
}

// validate implements §4.1's four numbered validation rules, in order.
func validate(snap Snapshot, cards []Card) error {
	top := snap.PileTop
	first := cards[0]

	// 1. Honor outstanding request.
	if snap.RequestLevel != NoRequest && first.Face != Ace {
		if !snap.CurrentRequest.Matches(first) {
			return CardRequested
		}
	}

	// 2. Counter a bomb attack.
	if top.IsBomb() && snap.Pick > 0 && first.Face != Ace {
		if top.IsJoker() {
			if !first.IsJoker() {
				return DrawCards
			}
		} else if !first.IsBomb() {
			return DrawCards
		}
	}

	// 3. Opening card legality.
	if !openingLegal(first, top) {
		return InvalidFirstCard
	}

	// 4. Chaining.
	for i := 1; i < len(cards); i++ {
		prev, cur := cards[i-1], cards[i]
		if err := chainLegal(prev, cur); err != nil {
			return err
		}
	}
	return nil
}

func openingLegal(first, top Card) bool {
	if first.Face == Ace || first.IsJoker() {
		return true
	}
	if top.Face == Ace || top.IsJoker() {
		return true
	}
	if first.Face == top.Face {
		return true
	}
	return first.Suit == top.Suit
}

func chainLegal(prev, cur Card) error {
	switch {
	case cur.Face == Ace:
		if prev.IsQuestion() || prev.Face == Ace {
			return nil
		}
		return SubsequentAceOrJoker
	case cur.IsJoker():
		if prev.IsQuestion() || prev.IsJoker() {
			return nil
		}
		return SubsequentAceOrJoker
	case prev.IsQuestion():
		if cur.Face == prev.Face || cur.Suit == prev.Suit {
			return nil
		}
		return InvalidAnswer
	default:
		if cur.Face == prev.Face {
			return nil
		}
		return InvalidCardSequence
	}
}

// generateDelta implements §4.1 "Delta generation (k ≥ 1)".
func generateDelta(snap Snapshot, cards []Card) Delta {
	d := Delta{
		Cards:               cards,
		Pick:                0,
		Give:                0,
		Skip:                1,
		Reverse:             false,
		RequestLevel:        NoRequest,
		RemoveRequestLevels: 0,
	}

	kings := 0
	for _, c := range cards {
		switch c.Face {
		case Jack:
			d.Skip++
		case King:
			d.Reverse = !d.Reverse
			kings++
		}
	}

	last := cards[len(cards)-1]
	switch {
	case last.IsQuestion():
		d.Pick = 1
		return finalizeKings(d, kings)
	case last.IsBomb():
		d.Give = last.PickValue()
		return finalizeKings(d, kings)
	case last.Face == Ace:
		applyAceResolution(&d, snap, cards)
		return finalizeKings(d, kings)
	}
	return finalizeKings(d, kings)
}

// applyAceResolution implements the Ace branch of delta generation: clearing
// outstanding request levels and, if any ace value remains, issuing a new
// request.
func applyAceResolution(d *Delta, snap Snapshot, cards []Card) {
	var aces int
	for _, c := range cards {
		aces += int(c.AceValue())
	}
	level := int(snap.RequestLevel)
	remove := aces
	if level < remove {
		remove = level
	}
	if remove < 0 {
		remove = 0
	}
	d.RemoveRequestLevels = uint(remove)
	aces -= level
	if snap.Pick > 0 && aces > 0 {
		aces--
	}
	if aces > 0 {
		if aces > 1 {
			d.RequestLevel = CardRequest
		} else {
			d.RequestLevel = SuitRequest
		}
	}
}

// finalizeKings implements the even-Kings-cancel-skip rule: a positive, even
// count of Kings in the played sequence forces skip back to 0 so the acting
// player plays again.
func finalizeKings(d Delta, kings int) Delta {
	if kings > 0 && kings%2 == 0 {
		d.Skip = 0
	}
	return d
}
