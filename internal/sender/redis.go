package sender

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/honeycombio/kennel/datadog"
	"github.com/honeycombio/kennel/internal/observability"
	"github.com/vmihailenco/msgpack/v5"
)

// Envelope is one list entry written by Redis. Attributes holds the event
// attributes as a messagepack map with sorted keys.
type Envelope struct {
	ID           string             `msgpack:"id"`
	APIKey       string             `msgpack:"api_key,omitempty"`
	ReceivedAtMs int64              `msgpack:"received_at_ms"`
	Attributes   msgpack.RawMessage `msgpack:"attributes"`
}

// Redis pushes each event onto a list. All events of one request are pushed
// in a single pipeline, in order.
type Redis struct {
	client *redis.Client
	list   string
	now    func() time.Time
}

func NewRedis(client *redis.Client, list string) *Redis {
	return &Redis{client: client, list: list, now: time.Now}
}

// NewRedisFromURL connects to the server named by a redis:// URL.
func NewRedisFromURL(url, list string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedis(redis.NewClient(opt), list), nil
}

func (r *Redis) Send(ctx context.Context, events []datadog.Event) error {
	if len(events) == 0 {
		return nil
	}

	receivedAt := r.now().UnixMilli()
	entries := make([]interface{}, 0, len(events))
	for _, ev := range events {
		attrs, err := ev.MarshalMsgp()
		if err != nil {
			observability.RecordEventsSent("redis", len(events), false)
			return fmt.Errorf("%w: %v", datadog.ErrDeliveryRejected, err)
		}
		entry, err := msgpack.Marshal(&Envelope{
			ID:           uuid.New().String(),
			APIKey:       ev.APIKey,
			ReceivedAtMs: receivedAt,
			Attributes:   attrs,
		})
		if err != nil {
			observability.RecordEventsSent("redis", len(events), false)
			return fmt.Errorf("%w: %v", datadog.ErrDeliveryRejected, err)
		}
		entries = append(entries, entry)
	}

	if err := r.client.RPush(ctx, r.list, entries...).Err(); err != nil {
		observability.RecordEventsSent("redis", len(events), false)
		return fmt.Errorf("%w: %v", datadog.ErrDeliveryFailed, err)
	}
	observability.RecordEventsSent("redis", len(events), true)
	return nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
