// Copyright 2026 The OpenRoster Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGrantsCache caches grant snapshots in Redis with a fixed TTL.
// Entries are invalidated by the roster service whenever a role assignment
// commit changes the underlying records.
type RedisGrantsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGrantsCache creates a Redis-backed grants cache.
func NewRedisGrantsCache(client *redis.Client, ttl time.Duration) *RedisGrantsCache {
	return &RedisGrantsCache{client: client, ttl: ttl}
}

func grantsKey(personID string) string {
	return fmt.Sprintf("openroster:grants:%s", personID)
}

// Get returns the cached snapshot, or (nil, nil) on miss.
func (c *RedisGrantsCache) Get(ctx context.Context, personID string) (Grants, error) {
	val, err := c.client.Get(ctx, grantsKey(personID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read grants cache: %w", err)
	}

	var grants Grants
	if err := json.Unmarshal([]byte(val), &grants); err != nil {
		// A corrupt entry behaves like a miss.
		return nil, nil
	}
	return grants, nil
}

// Set stores a snapshot under the configured TTL.
func (c *RedisGrantsCache) Set(ctx context.Context, personID string, grants Grants) error {
	data, err := json.Marshal(grants)
	if err != nil {
		return fmt.Errorf("failed to encode grants: %w", err)
	}
	if err := c.client.Set(ctx, grantsKey(personID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write grants cache: %w", err)
	}
	return nil
}

// Invalidate drops a person's cached snapshot.
func (c *RedisGrantsCache) Invalidate(ctx context.Context, personID string) error {
	if err := c.client.Del(ctx, grantsKey(personID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate grants cache: %w", err)
	}
	return nil
}
