// Package prompt implements the Prompt Registry (§4.4): a process-wide,
// concurrency-safe map from connection to at most one outstanding prompt per
// kind. It is the only shared, cross-game mutable state in the system (§5);
// every other piece of state belongs to exactly one game's executor.
package prompt

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/karata-game/karata/engine"
)

// Kind distinguishes the two prompt flavors the orchestrator can raise.
type Kind uint8

const (
	CardRequestKind Kind = iota
	LastCardRequestKind
)

func (k Kind) String() string {
	switch k {
	case CardRequestKind:
		return "cardRequest"
	case LastCardRequestKind:
		return "lastCardRequest"
	default:
		return "unknown"
	}
}

// ConnectionID identifies one client connection.
type ConnectionID = uuid.UUID

// Response is the payload a client's resolving RPC carries back. Only the
// field matching the prompt's Kind is meaningful.
type Response struct {
	Card     engine.Card
	LastCard bool
}

// pending is one outstanding prompt: a single-shot, capacity-1 channel the
// resolver writes to, paired with the cancellation function for the
// context handed to the awaiting orchestrator.
type pending struct {
	ch     chan Response
	cancel context.CancelFunc
}

// Registry is the process-wide Prompt Registry. The zero value is not
// usable; construct with NewRegistry.
type Registry struct {
	mu      sync.Mutex
	byConn  map[ConnectionID]map[Kind]*pending
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{byConn: make(map[ConnectionID]map[Kind]*pending)}
}

// Await inserts a fresh single-shot future for (conn, kind) and returns a
// context that is cancelled when the prompt is cancelled (disconnect or
// timeout) and the channel the orchestrator should select on alongside
// ctx.Done(). Fails with engine.ErrOutstandingPrompt if a same-kind future
// already exists for that connection — this is the anti-ukora enforcement
// point (§4.3 step 1, §4.4).
func (r *Registry) Await(parent context.Context, conn ConnectionID, kind Kind) (context.Context, <-chan Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds, ok := r.byConn[conn]
	if !ok {
		kinds = make(map[Kind]*pending)
		r.byConn[conn] = kinds
	}
	if _, exists := kinds[kind]; exists {
		return nil, nil, engine.ErrOutstandingPrompt
	}

	ctx, cancel := context.WithCancel(parent)
	p := &pending{ch: make(chan Response, 1), cancel: cancel}
	kinds[kind] = p
	return ctx, p.ch, nil
}

// HasOutstanding reports whether conn has any outstanding prompt of any
// kind — used by the orchestrator's §4.3 step 1 anti-ukora check before a
// new PerformTurn is even attempted.
func (r *Registry) HasOutstanding(conn ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds, ok := r.byConn[conn]
	return ok && len(kinds) > 0
}

// Resolve completes the outstanding future for (conn, kind) with resp. If no
// such future exists, the answer is late or spurious and is silently
// ignored, returning false.
func (r *Registry) Resolve(conn ConnectionID, kind Kind, resp Response) bool {
	r.mu.Lock()
	kinds, ok := r.byConn[conn]
	if !ok {
		r.mu.Unlock()
		return false
	}
	p, ok := kinds[kind]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(kinds, kind)
	if len(kinds) == 0 {
		delete(r.byConn, conn)
	}
	r.mu.Unlock()

	p.ch <- resp
	return true
}

// Cancel cancels one outstanding prompt without resolving it — used for a
// bounded per-turn timeout (§5), which is treated identically to a
// disconnect cancel by the awaiting orchestrator.
func (r *Registry) Cancel(conn ConnectionID, kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds, ok := r.byConn[conn]
	if !ok {
		return
	}
	if p, ok := kinds[kind]; ok {
		p.cancel()
		delete(kinds, kind)
	}
	if len(kinds) == 0 {
		delete(r.byConn, conn)
	}
}

// CancelConnection cancels every outstanding prompt for conn — called on
// connection close (§4.4). The awaiting orchestrator observes ctx.Done() and
// ends the game with reason "<player> disconnected".
func (r *Registry) CancelConnection(conn ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds, ok := r.byConn[conn]
	if !ok {
		return
	}
	for _, p := range kinds {
		p.cancel()
	}
	delete(r.byConn, conn)
}
