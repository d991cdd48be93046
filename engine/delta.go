package engine

import "fmt"

// Delta is the structured effect the rule engine produces for a played
// sequence: everything the orchestrator needs to apply to Game state. The
// rule engine never applies a Delta itself — it only computes one.
type Delta struct {
	Cards               []Card
	Pick                uint
	Give                uint
	Skip                uint
	Reverse             bool
	RequestLevel        RequestLevel
	RemoveRequestLevels uint
}

// String renders a Delta for structured log fields. Never sent over the
// wire — only the consequences the orchestrator applies are observable to
// clients.
func (d Delta) String() string {
	return fmt.Sprintf(
		"Delta{cards=%d pick=%d give=%d skip=%d reverse=%t requestLevel=%s removeRequestLevels=%d}",
		len(d.Cards), d.Pick, d.Give, d.Skip, d.Reverse, d.RequestLevel, d.RemoveRequestLevels,
	)
}

// Snapshot is the read-only view of a Game the rule engine consumes. It
// carries exactly the fields §4.1 validation and delta generation read, so
// the engine can never reach into live Game state and mutate it by
// accident — the only path from Game to Snapshot is a deep, defensive copy.
type Snapshot struct {
	PileTop        Card
	Pick           uint
	CurrentRequest Request
	RequestLevel   RequestLevel
}
