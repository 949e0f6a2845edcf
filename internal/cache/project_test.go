package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/mhd-br/void-studio/internal/canvas"
	"github.com/mhd-br/void-studio/internal/store"
)

// memProjects is an in-memory ProjectStore that counts Load calls, so the
// tests can tell cache hits from fall-throughs.
type memProjects struct {
	m     map[string]canvas.Snapshot
	loads int
}

func newMemProjects() *memProjects {
	return &memProjects{m: make(map[string]canvas.Snapshot)}
}

func (s *memProjects) Save(_ context.Context, snap canvas.Snapshot) error {
	s.m[snap.ProjectID] = snap
	return nil
}

func (s *memProjects) Load(_ context.Context, id string) (canvas.Snapshot, error) {
	s.loads++
	snap, ok := s.m[id]
	if !ok {
		return canvas.Snapshot{}, store.ErrNotFound
	}
	return snap, nil
}

func (s *memProjects) List(_ context.Context) ([]store.ProjectInfo, error) {
	var infos []store.ProjectInfo
	for id, snap := range s.m {
		infos = append(infos, store.ProjectInfo{ID: id, Name: snap.ProjectName})
	}
	return infos, nil
}

func (s *memProjects) Delete(_ context.Context, id string) error {
	delete(s.m, id)
	return nil
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("skip: redis not available: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestProjectCacheReadThrough(t *testing.T) {
	rdb := testRedis(t)
	next := newMemProjects()
	c := NewProjectCache(rdb, next, time.Minute)
	ctx := context.Background()
	id := fmt.Sprintf("project-%d", time.Now().UnixNano())
	defer rdb.Del(ctx, projectKey(id))

	snap := canvas.Snapshot{ProjectID: id, ProjectName: "cached"}
	if err := c.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	// First load falls through and populates the cache.
	got, err := c.Load(ctx, id)
	if err != nil || got.ProjectName != "cached" {
		t.Fatalf("first load: %+v, %v", got, err)
	}
	if next.loads != 1 {
		t.Fatalf("expected 1 store load, got %d", next.loads)
	}

	// Second load is served from redis.
	if _, err := c.Load(ctx, id); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if next.loads != 1 {
		t.Fatalf("cache miss on second load: %d store loads", next.loads)
	}

	// Save invalidates, so the next load sees the new name.
	snap.ProjectName = "renamed"
	if err := c.Save(ctx, snap); err != nil {
		t.Fatalf("resave: %v", err)
	}
	got, err = c.Load(ctx, id)
	if err != nil || got.ProjectName != "renamed" {
		t.Fatalf("load after resave: %+v, %v", got, err)
	}
	if next.loads != 2 {
		t.Fatalf("expected invalidation to hit the store, got %d loads", next.loads)
	}
}

func TestProjectCacheDelete(t *testing.T) {
	rdb := testRedis(t)
	next := newMemProjects()
	c := NewProjectCache(rdb, next, time.Minute)
	ctx := context.Background()
	id := fmt.Sprintf("project-%d", time.Now().UnixNano())
	defer rdb.Del(ctx, projectKey(id))

	if err := c.Save(ctx, canvas.Snapshot{ProjectID: id, ProjectName: "doomed"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := c.Load(ctx, id); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := c.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Load(ctx, id); err != store.ErrNotFound {
		t.Fatalf("load after delete: %v", err)
	}
}
