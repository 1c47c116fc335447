package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StreamPublisher appends events to a Redis stream so the portal front end
// and other consumers can poll query activity.
type StreamPublisher struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// NewStreamPublisher builds a publisher; maxLen <= 0 leaves the stream untrimmed.
func NewStreamPublisher(client redis.Cmdable, stream string, maxLen int64) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Publish writes a single stream entry for the event.
func (p *StreamPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: []any{
			"id", event.ID,
			"type", string(event.Type),
			"query_id", event.QueryID,
			"student_id", event.StudentID,
			"actor_id", event.Actor.ID,
			"actor_role", string(event.Actor.Role),
			"at", event.Timestamp.UTC().Format(time.RFC3339Nano),
			"payload", string(payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}
