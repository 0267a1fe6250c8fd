package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/KirkDiggler/dm-table/internal/domain/game/combat"
	"github.com/redis/go-redis/v9"
)

const redisPublisherPriority = 1000

// Envelope is the wire form of an event pushed to subscribers
type Envelope struct {
	Type           EventType     `json:"type"`
	SessionID      string        `json:"session_id"`
	OccurredAt     time.Time     `json:"occurred_at"`
	Version        int64         `json:"version,omitempty"`
	CombatEnded    bool          `json:"combat_ended,omitempty"`
	Paused         *bool         `json:"paused,omitempty"`
	IgnoredTargets []string      `json:"ignored_targets,omitempty"`
	CombatState    *combat.State `json:"combat_state,omitempty"`
}

// Encode converts an event into its wire envelope
func Encode(event Event) ([]byte, error) {
	env := Envelope{
		Type:      event.GetType(),
		SessionID: event.GetSessionID(),
	}

	switch e := event.(type) {
	case *CombatEvent:
		env.OccurredAt = e.OccurredAt
		env.Version = e.Version
		env.CombatEnded = e.Ended
		env.IgnoredTargets = e.IgnoredTargets
		env.CombatState = e.State
	case *SessionEvent:
		env.OccurredAt = e.OccurredAt
		paused := e.Paused
		env.Paused = &paused
	}

	return json.Marshal(env)
}

// RedisPublisher pushes events to a Redis pub/sub channel so table clients
// in other processes see state changes
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
	timeout time.Duration
}

// NewRedisPublisher creates a listener publishing to channel
func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		timeout: 2 * time.Second,
	}
}

func (p *RedisPublisher) ID() string    { return "redis-publisher:" + p.channel }
func (p *RedisPublisher) Priority() int { return redisPublisherPriority }

// HandleEvent publishes the encoded event
func (p *RedisPublisher) HandleEvent(event Event) error {
	payload, err := Encode(event)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.GetType(), err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.client.Publish(ctx, p.channel, string(payload)).Err(); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.GetType(), err)
	}
	return nil
}
