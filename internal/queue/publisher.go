package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher appends events to a stream.
type Publisher interface {
	// Publish returns the message ID assigned by Redis.
	Publish(ctx context.Context, stream string, event ActivityEvent) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
}

// NewPublisher creates a new Publisher backed by Redis Streams.
func NewPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish adds an event with XADD and an auto-generated ID.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event ActivityEvent) (string, error) {
	startTime := time.Now()

	values, err := event.ToMap()
	if err != nil {
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		log.Printf("[Publisher] Publish FAILED: stream=%s type=%s err=%v", stream, event.Type, err)
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	log.Printf("[Publisher] Publish OK: stream=%s type=%s actor=%s msgID=%s duration=%v",
		stream, event.Type, event.ActorID, messageID, time.Since(startTime))
	return messageID, nil
}

// Activity publishes activity events without ever failing the caller. A nil
// *Activity or one without a Publisher drops events, which is how the server
// runs when REDIS_URL is unset.
type Activity struct {
	pub Publisher
}

// NewActivity wraps pub. pub may be nil.
func NewActivity(pub Publisher) *Activity {
	return &Activity{pub: pub}
}

// Emit publishes event to the activity stream and logs any failure.
func (a *Activity) Emit(ctx context.Context, event ActivityEvent) {
	if a == nil || a.pub == nil {
		return
	}
	if _, err := a.pub.Publish(ctx, StreamActivity, event); err != nil {
		log.Printf("[Activity] dropped %s event from %s: %v", event.Type, event.ActorID, err)
	}
}
