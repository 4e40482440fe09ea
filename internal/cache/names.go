package cache

import (
	"context"
	"fmt"
	"time"
)

const displayNameKeyPrefix = "vrste:profile:name:"

// DisplayNameTTL bounds how long a renamed profile can show its old name.
const DisplayNameTTL = 10 * time.Minute

func displayNameKey(profileID string) string {
	return displayNameKeyPrefix + profileID
}

// DisplayNames returns the cached names among ids. Misses are absent from
// the result.
func (c *Cache) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = displayNameKey(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget failed: %w", err)
	}
	for i, v := range values {
		if s, ok := v.(string); ok {
			names[ids[i]] = s
		}
	}
	return names, nil
}

// SetDisplayNames caches display names keyed by profile ID.
func (c *Cache) SetDisplayNames(ctx context.Context, names map[string]string) error {
	if len(names) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for id, name := range names {
		pipe.Set(ctx, displayNameKey(id), name, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("caching display names: %w", err)
	}
	return nil
}

// InvalidateDisplayName drops a cached display name, e.g. after a rename.
func (c *Cache) InvalidateDisplayName(ctx context.Context, profileID string) error {
	if err := c.client.Del(ctx, displayNameKey(profileID)).Err(); err != nil {
		return fmt.Errorf("invalidating display name: %w", err)
	}
	return nil
}
