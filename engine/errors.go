package engine

import "errors"

// TurnError is the closed set of kinds the rule engine can reject a played
// sequence with (§7). It implements error directly so callers can return it
// wherever an error is expected, while orchestration code can also
// errors.Is against the named sentinels below to branch on kind.
type TurnError uint8

const (
	// CardRequested means the first card fails to honor an outstanding
	// currentRequest.
	CardRequested TurnError = iota + 1
	// DrawCards means the first card fails to counter an active bomb
	// attack.
	DrawCards
	// InvalidFirstCard means the first card is not legal against the pile
	// top.
	InvalidFirstCard
	// SubsequentAceOrJoker means an Ace or joker appears mid-sequence
	// without a qualifying predecessor.
	SubsequentAceOrJoker
	// InvalidAnswer means a card following a question does not match its
	// face or suit.
	InvalidAnswer
	// InvalidCardSequence means a non-answer, non-Ace, non-joker card does
	// not match the face of its predecessor.
	InvalidCardSequence
)

func (e TurnError) Error() string {
	switch e {
	case CardRequested:
		return "card requested: first card does not honor the outstanding request"
	case DrawCards:
		return "draw cards: first card does not counter the active bomb"
	case InvalidFirstCard:
		return "invalid first card: does not match the pile top by face or suit"
	case SubsequentAceOrJoker:
		return "invalid sequence: ace or joker requires a qualifying predecessor"
	case InvalidAnswer:
		return "invalid answer: does not match the question by face or suit"
	case InvalidCardSequence:
		return "invalid card sequence: does not match the face of the prior card"
	default:
		return "unknown turn error"
	}
}

// Sentinel values so orchestration code can branch with errors.Is instead of
// a type switch on the concrete kind.
var (
	ErrCardRequested         error = CardRequested
	ErrDrawCards             error = DrawCards
	ErrInvalidFirstCard      error = InvalidFirstCard
	ErrSubsequentAceOrJoker  error = SubsequentAceOrJoker
	ErrInvalidAnswer         error = InvalidAnswer
	ErrInvalidCardSequence   error = InvalidCardSequence
)

// Orchestration-level errors (§7): distinct from TurnError because they are
// raised before the rule engine is ever invoked.
var (
	ErrNotStarted        = errors.New("engine: game is not started")
	ErrNotYourTurn       = errors.New("engine: caller is not the player at currentTurn")
	ErrOutstandingPrompt = errors.New("engine: caller has an outstanding prompt")
)
