package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"media-fetch-service/internal/entity"
)

var ErrNotFound = errors.New("not found")

// TTL bounds how long a cached record copy serves status lookups. The
// cache is advisory, never the system of record.
const TTL = 24 * time.Hour

type Cache struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func key(id string) string {
	return "download:" + id
}

func (c *Cache) Put(ctx context.Context, rec *entity.JobRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key(rec.ID), payload, TTL).Err()
}

func (c *Cache) Get(ctx context.Context, id string) (*entity.JobRecord, error) {
	payload, err := c.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var rec entity.JobRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
