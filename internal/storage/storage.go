// Package storage implements the §6 persistence boundary with pgx: an
// illustrative schema of two tables (game_snapshots, game_results) that the
// orchestrator's GamePersister interface writes through at the end of each
// completed turn and when a game ends. Migration tooling is out of scope — the
// schema below is the shape this package expects, not a migration runner.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karata-game/karata/internal/state"
)

// Store is a pgx-backed GamePersister.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an existing pgx pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pgx pool against databaseURL.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: connecting: %w", err)
	}
	return NewStore(pool), nil
}

// Close releases the underlying pool.
func (s *Store) Close() { s.pool.Close() }

type handSnapshot struct {
	PlayerID uuid.UUID     `json:"playerId"`
	Cards    []wireCard    `json:"cards"`
}

type wireCard struct {
	Suit uint8 `json:"suit"`
	Face uint8 `json:"face"`
}

// Persist upserts the current snapshot of a running game into
// game_snapshots. The orchestrator calls it at the end of each completed
// turn and after a cancellation or disconnect ends the game; failures are
// logged by the caller and never abort the turn.
func (s *Store) Persist(ctx context.Context, roomID uuid.UUID, g *state.Game) error {
	hands := make([]handSnapshot, g.NumPlayers())
	for i := 0; i < g.NumPlayers(); i++ {
		cards := g.Hand(i).Cards()
		wire := make([]wireCard, len(cards))
		for j, c := range cards {
			wire[j] = wireCard{Suit: uint8(c.Suit), Face: uint8(c.Face)}
		}
		hands[i] = handSnapshot{PlayerID: g.PlayerAt(i), Cards: wire}
	}

	payload, err := json.Marshal(struct {
		CurrentTurn int            `json:"currentTurn"`
		IsForward   bool           `json:"isForward"`
		Pick        uint           `json:"pick"`
		Give        uint           `json:"give"`
		Hands       []handSnapshot `json:"hands"`
	}{
		CurrentTurn: g.CurrentTurn(),
		IsForward:   g.IsForward(),
		Pick:        g.Pick(),
		Give:        g.Give(),
		Hands:       hands,
	})
	if err != nil {
		return fmt.Errorf("storage: marshaling snapshot: %w", err)
	}

	const stmt = `
		INSERT INTO game_snapshots (room_id, snapshot, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (room_id) DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, stmt, roomID, payload); err != nil {
		return fmt.Errorf("storage: upserting snapshot for room %s: %w", roomID, err)
	}
	return nil
}

// RecordResult implements orchestrator.GamePersister by recording a game's
// final outcome into game_results, mirroring the teacher's
// StoreFinalGameStateInDB. Called from each of the orchestrator's
// game-ending paths, including every disconnect, so one room can receive
// more than one result row.
func (s *Store) RecordResult(ctx context.Context, roomID uuid.UUID, winner *uuid.UUID, reason string) error {
	const stmt = `
		INSERT INTO game_results (room_id, winner_id, reason, finished_at)
		VALUES ($1, $2, $3, now())
	`
	if _, err := s.pool.Exec(ctx, stmt, roomID, winner, reason); err != nil {
		return fmt.Errorf("storage: recording result for room %s: %w", roomID, err)
	}
	return nil
}
