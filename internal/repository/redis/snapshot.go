package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

func snapshotKey(matchID string) string { return "match:" + matchID + ":snapshot" }

// SetSnapshot stores the latest match snapshot JSON and refreshes its TTL.
func (c *Client) SetSnapshot(ctx context.Context, matchID string, snapshot json.RawMessage) error {
	return c.rdb.Set(ctx, snapshotKey(matchID), []byte(snapshot), c.ttl).Err()
}

// GetSnapshot retrieves the cached snapshot JSON, or nil if it has expired.
func (c *Client) GetSnapshot(ctx context.Context, matchID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, snapshotKey(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return json.RawMessage(data), nil
}

// DeleteMatchData drops everything cached for a finished match.
func (c *Client) DeleteMatchData(ctx context.Context, matchID string) error {
	return c.rdb.Del(ctx, snapshotKey(matchID)).Err()
}
