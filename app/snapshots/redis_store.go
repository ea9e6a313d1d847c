package snapshots

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"trinity-schools/app/models"
)

// RedisStore is a read-through cache in front of another Store. Snapshots are
// immutable once frozen, so entries only expire to bound memory.
type RedisStore struct {
	client *redis.Client
	next   Store
	ttl    time.Duration
}

// NewRedisStore wraps next with a Redis cache. A nil client disables caching.
func NewRedisStore(client *redis.Client, next Store, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, next: next, ttl: ttl}
}

func snapshotKey(pupilID, termID string) string {
	return fmt.Sprintf("snapshot:%s:%s", pupilID, termID)
}

// GetPupilTermSnapshot implements Store.
func (s *RedisStore) GetPupilTermSnapshot(ctx context.Context, pupilID, termID string) (*models.PupilTermSnapshot, error) {
	if s.client == nil {
		return s.next.GetPupilTermSnapshot(ctx, pupilID, termID)
	}

	key := snapshotKey(pupilID, termID)
	raw, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var snap models.PupilTermSnapshot
		if err := sonic.Unmarshal(raw, &snap); err == nil {
			return &snap, nil
		}
		log.Printf("[SNAPSHOT] corrupt cache entry %s, reloading", key)
	case err != redis.Nil:
		log.Printf("[SNAPSHOT] redis get %s: %v", key, err)
	}

	snap, err := s.next.GetPupilTermSnapshot(ctx, pupilID, termID)
	if err != nil || snap == nil {
		return snap, err
	}

	if payload, err := sonic.Marshal(snap); err == nil {
		if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
			log.Printf("[SNAPSHOT] redis set %s: %v", key, err)
		}
	}
	return snap, nil
}
