package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Publisher appends events to Redis streams. Publishes run behind a circuit
// breaker: when Redis misbehaves the breaker opens and publishes fail fast
// instead of stalling request handling. Event delivery is best-effort by
// contract; callers log and continue.
type Publisher struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewPublisher(client *redis.Client, logger *zap.Logger) *Publisher {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "event-publisher",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("event publisher breaker state change",
				zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return &Publisher{client: client, breaker: breaker, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.breaker.Execute(func() (any, error) {
		args := &redis.XAddArgs{
			Stream: stream,
			Values: map[string]any{
				"event": eventJSON,
			},
		}
		return p.client.XAdd(ctx, args).Result()
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
