// Package messaging implements real-time event delivery for the gamification
// service. Events are published to per-user Redis Pub/Sub channels that the
// frontend gateway subscribes to. Delivery is best-effort: a failed publish
// never fails the XP mutation that triggered it.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskforge/gamification/internal/domain/xp"
	"github.com/taskforge/gamification/pkg/circuitbreaker"
	"github.com/taskforge/gamification/pkg/logger"
	"github.com/taskforge/gamification/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// Envelope is the wire format published to user channels. The gateway routes
// on Event and forwards Payload verbatim to the connected client.
type Envelope struct {
	Event      string          `json:"event"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS NOTIFIER
// ══════════════════════════════════════════════════════════════════════════════

// RedisNotifier implements xp.Notifier over Redis Pub/Sub. Publishes run
// through a small bounded retry and a circuit breaker, so a Redis outage
// degrades to dropped notifications instead of piling up latency on the
// write path.
type RedisNotifier struct {
	client  *redis.Client
	breaker *circuitbreaker.CircuitBreaker
	retrier *retry.Retrier
	log     *logger.Logger
}

// NewRedisNotifier creates a notifier bound to the given client.
func NewRedisNotifier(client *redis.Client, log *logger.Logger) *RedisNotifier {
	return &RedisNotifier{
		client:  client,
		breaker: circuitbreaker.NotifierBreaker(nil),
		retrier: retry.NotifierRetrier(),
		log:     log.With(logger.Component("redis_notifier")),
	}
}

// Emit publishes the event to the user's channel. The returned error is
// informational; callers log and continue.
func (n *RedisNotifier) Emit(ctx context.Context, userID, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}

	envelope, err := json.Marshal(Envelope{
		Event:      event,
		Payload:    data,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s envelope: %w", event, err)
	}

	channel := xp.UserChannel(userID)

	err = n.breaker.Execute(ctx, func(ctx context.Context) error {
		return n.retrier.Do(ctx, func(ctx context.Context) error {
			return n.client.Publish(ctx, channel, envelope).Err()
		})
	})
	if err != nil {
		n.log.Warn("notification dropped",
			logger.UserID(userID),
			logger.String("event", event),
			logger.Err(err))
		return fmt.Errorf("failed to publish %s to %s: %w", event, channel, err)
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MEMORY NOTIFIER
// ══════════════════════════════════════════════════════════════════════════════

// Emission is a single captured notification.
type Emission struct {
	UserID  string
	Event   string
	Payload any
}

// MemoryNotifier captures emissions in memory. Used in tests and in local
// development runs without Redis.
type MemoryNotifier struct {
	mu        sync.Mutex
	emissions []Emission

	// FailWith, when set, makes every Emit return this error without
	// recording the emission.
	FailWith error
}

// NewMemoryNotifier creates an empty capturing notifier.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

// Emit records the notification.
func (n *MemoryNotifier) Emit(_ context.Context, userID, event string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.FailWith != nil {
		return n.FailWith
	}

	n.emissions = append(n.emissions, Emission{
		UserID:  userID,
		Event:   event,
		Payload: payload,
	})
	return nil
}

// Emissions returns a copy of everything recorded so far.
func (n *MemoryNotifier) Emissions() []Emission {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Emission, len(n.emissions))
	copy(out, n.emissions)
	return out
}

// ByEvent returns recorded emissions with the given event name.
func (n *MemoryNotifier) ByEvent(event string) []Emission {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []Emission
	for _, e := range n.emissions {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
