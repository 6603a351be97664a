// Package events publishes product upserts to a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/brain-scraper/internal/models"
	"github.com/redis/go-redis/v9"
)

type EventType string

const (
	EventTypeProductCreated EventType = "PRODUCT_CREATED"
	EventTypeProductUpdated EventType = "PRODUCT_UPDATED"
)

const DefaultStream = "stream:products"

// ProductUpsertedPayload is the JSON document carried in the "data" field of
// every stream entry.
type ProductUpsertedPayload struct {
	EventID   string                `json:"event_id"`
	EventType EventType             `json:"event_type"`
	Timestamp time.Time             `json:"timestamp"`
	ProductID uuid.UUID             `json:"product_id"`
	Product   *models.ProductRecord `json:"product"`
	Source    string                `json:"source"`
}

// RedisClient is the subset of the redis client the publisher needs.
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

type Publisher struct {
	redis  RedisClient
	stream string
	now    func() time.Time
	logger *slog.Logger
}

func NewPublisher(client RedisClient, stream string, logger *slog.Logger) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{
		redis:  client,
		stream: stream,
		now:    time.Now,
		logger: logger.With("component", "event_publisher"),
	}
}

// ProductUpserted appends one entry to the stream.
func (p *Publisher) ProductUpserted(ctx context.Context, id uuid.UUID, rec *models.ProductRecord, created bool) error {
	eventType := EventTypeProductUpdated
	if created {
		eventType = EventTypeProductCreated
	}

	payload := ProductUpsertedPayload{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: p.now().UTC(),
		ProductID: id,
		Product:   rec,
		Source:    "brain-scraper",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":         string(data),
			"type":         string(eventType),
			"event_id":     payload.EventID,
			"aggregate_id": id.String(),
			"link":         rec.Link,
			"timestamp":    fmt.Sprintf("%d", payload.Timestamp.UnixNano()),
		},
	}

	entryID, err := p.redis.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Info("event published",
		"type", eventType,
		"event_id", payload.EventID,
		"product_id", id,
		"stream", p.stream,
		"entry_id", entryID,
	)
	return nil
}
