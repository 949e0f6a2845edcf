package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/mhd-br/void-studio/internal/canvas"
	"github.com/mhd-br/void-studio/internal/store"
)

// ProjectCache is a read-through redis cache in front of a ProjectStore.
// Cache faults never fail a request; they degrade to the underlying store.
type ProjectCache struct {
	rdb  *redis.Client
	next store.ProjectStore
	ttl  time.Duration
}

func NewProjectCache(rdb *redis.Client, next store.ProjectStore, ttl time.Duration) *ProjectCache {
	return &ProjectCache{rdb: rdb, next: next, ttl: ttl}
}

func (c *ProjectCache) Save(ctx context.Context, snap canvas.Snapshot) error {
	if err := c.next.Save(ctx, snap); err != nil {
		return err
	}
	// Invalidate rather than write through: the next Load repopulates.
	if err := c.rdb.Del(ctx, projectKey(snap.ProjectID)).Err(); err != nil {
		log.Printf("cache: invalidate %s: %v", snap.ProjectID, err)
	}
	return nil
}

func (c *ProjectCache) Load(ctx context.Context, id string) (canvas.Snapshot, error) {
	data, err := c.rdb.Get(ctx, projectKey(id)).Bytes()
	if err == nil {
		var snap canvas.Snapshot
		if err := json.Unmarshal(data, &snap); err == nil {
			return snap, nil
		}
		log.Printf("cache: corrupt entry for %s, falling through", id)
	} else if err != redis.Nil {
		log.Printf("cache: get %s: %v", id, err)
	}

	snap, err := c.next.Load(ctx, id)
	if err != nil {
		return canvas.Snapshot{}, err
	}
	if data, err := json.Marshal(snap); err == nil {
		if err := c.rdb.Set(ctx, projectKey(id), data, c.ttl).Err(); err != nil {
			log.Printf("cache: set %s: %v", id, err)
		}
	}
	return snap, nil
}

func (c *ProjectCache) List(ctx context.Context) ([]store.ProjectInfo, error) {
	return c.next.List(ctx)
}

func (c *ProjectCache) Delete(ctx context.Context, id string) error {
	if err := c.next.Delete(ctx, id); err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, projectKey(id)).Err(); err != nil {
		log.Printf("cache: invalidate %s: %v", id, err)
	}
	return nil
}
