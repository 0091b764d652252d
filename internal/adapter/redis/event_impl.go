package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/user/site-auditor/internal/entity"
)

const (
	// EventsChannel is the pub/sub channel live listeners subscribe to.
	EventsChannel = "analyzer:events"
	historyKey    = "analyzer:events:history"
)

// EventRepoImpl publishes run events and keeps a capped history in a Redis list.
type EventRepoImpl struct {
	client  *redis.Client
	maxKept int64
}

// NewEventRepo creates a new instance of EventRepoImpl keeping at most maxKept events.
func NewEventRepo(client *redis.Client, maxKept int64) *EventRepoImpl {
	return &EventRepoImpl{client: client, maxKept: maxKept}
}

// Publish appends the event to the history and broadcasts it.
func (r *EventRepoImpl) Publish(ctx context.Context, event entity.RunEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, historyKey, payload)
	pipe.LTrim(ctx, historyKey, 0, r.maxKept-1)
	pipe.Publish(ctx, EventsChannel, payload)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to n of the latest events, oldest first.
func (r *EventRepoImpl) Recent(ctx context.Context, n int64) ([]entity.RunEvent, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := r.client.LRange(ctx, historyKey, 0, n-1).Result()
	if err != nil {
		return nil, err
	}

	events := make([]entity.RunEvent, 0, len(raw))
	// LPush keeps newest first; walk backwards for chronological order.
	for i := len(raw) - 1; i >= 0; i-- {
		var ev entity.RunEvent
		if err := json.Unmarshal([]byte(raw[i]), &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}
