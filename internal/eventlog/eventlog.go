// Package eventlog publishes the fire-and-forget action log redis-go-redis
// backs, mirroring the teacher's cache.PublishGameAction /
// cache.GameActionRecord: an append-only RPUSH onto a per-room list key,
// consumed by an out-of-process historian. Logging never blocks a turn.
package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/karata-game/karata/internal/orchestrator"
)

// Publisher is a redis-backed orchestrator.ActionLogger.
type Publisher struct {
	client *redis.Client
}

// NewPublisher wraps an existing redis client.
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Connect opens a redis client against addr.
func Connect(addr, password string, db int) *Publisher {
	return NewPublisher(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}))
}

// Close releases the underlying client.
func (p *Publisher) Close() error { return p.client.Close() }

type record struct {
	ActorID    uuid.UUID              `json:"actorId"`
	ActionType string                 `json:"actionType"`
	Payload    map[string]interface{} `json:"payload"`
	Timestamp  int64                  `json:"timestamp"`
}

// Log implements orchestrator.ActionLogger by RPUSHing a JSON record onto
// the room's action-log list.
func (p *Publisher) Log(ctx context.Context, roomID uuid.UUID, entry orchestrator.ActionLogEntry) {
	rec := record{
		ActorID:    entry.ActorID,
		ActionType: entry.ActionType,
		Payload:    entry.Payload,
		Timestamp:  entry.At.UnixMilli(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	key := fmt.Sprintf("karata:actions:%s", roomID)
	if err := p.client.RPush(ctx, key, data).Err(); err != nil {
		return
	}
	p.client.Expire(ctx, key, 24*time.Hour)
}
